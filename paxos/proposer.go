package paxos

import (
	"log"

	"github.com/gdub/weighted-paxos/paxos/message"
	"github.com/gdub/weighted-paxos/paxos/proposal"
)

// roundFor returns (creating if necessary) the proposerRound for (instance,
// number), creating the instance-level map it lives in if needed.
func (a *Agent) roundFor(instance, number int64, request any) *proposerRound {
	byNumber, ok := a.rounds[instance]
	if !ok {
		byNumber = make(map[int64]*proposerRound)
		a.rounds[instance] = byNumber
	}
	r, ok := byNumber[number]
	if !ok {
		r = newProposerRound(request)
		byNumber[number] = r
	}
	return r
}

// latestRequestForInstance resolves spec §9's retry ambiguity: it returns
// the request value attached to the highest-numbered round this proposer
// has ever started for instance, or nil if it has never touched that
// instance before.
func (a *Agent) latestRequestForInstance(instance int64) any {
	byNumber, ok := a.rounds[instance]
	if !ok {
		return nil
	}
	var best int64 = -1
	var value any
	for number, r := range byNumber {
		if number > best {
			best = number
			value = r.request
		}
	}
	return value
}

func (a *Agent) broadcastPrepare(p proposal.Proposal) {
	for _, pid := range a.cfg.AcceptorPids() {
		a.Transport.Send(pid, message.Prepare{From: a.Pid, Proposal: p})
		if a.analyzer != nil {
			a.analyzer.AddSend(pid)
		}
	}
}

func (a *Agent) broadcastAccept(p proposal.Proposal) {
	for _, pid := range a.cfg.AcceptorPids() {
		a.Transport.Send(pid, message.Accept{From: a.Pid, Proposal: p})
		if a.analyzer != nil {
			a.analyzer.AddSend(pid)
		}
	}
}

func (a *Agent) broadcastWeights(weights map[int]float64) {
	for _, pid := range a.cfg.LearnerPids() {
		a.Transport.Send(pid, message.AdjustWeights{From: a.Pid, Weights: weights})
	}
}

// startRound allocates a Proposal for (instance, request) — a fresh instance
// when instance is 0 — and emits Prepare to every acceptor, per spec §4.1's
// "Handling a ClientRequest" steps 1-3.
func (a *Agent) startRound(instance int64, request any) {
	number := a.sequenceNext
	if instance == 0 {
		instance = a.nextInstance
		a.nextInstance++
	}
	a.sequenceNext += a.sequenceStep

	r := a.roundFor(instance, number, request)
	r.request = request

	log.Printf("[PROPOSER %d] -> Starting round for instance %d with number %d.", a.Pid, instance, number)
	a.broadcastPrepare(proposal.Proposal{Number: number, Instance: instance, ProposerPid: a.Pid})
}

func (a *Agent) handleClientRequest(msg message.ClientRequest) {
	a.startRound(msg.Instance, msg.Value)
}

func (a *Agent) handlePrepareResponse(msg message.PrepareResponse) {
	instance, number := msg.Proposal.Instance, msg.Proposal.Number
	byNumber, ok := a.rounds[instance]
	if !ok {
		return
	}
	r, ok := byNumber[number]
	if !ok {
		return
	}

	r.prepareResponders[msg.Source()] = true
	if a.analyzer != nil {
		a.analyzer.AddRecvd(msg.Source())
	}

	if msg.HighestAccepted.GreaterThan(r.highestPromised) {
		r.highestPromised = msg.HighestAccepted
	}

	if r.phase != PhasePrepared || !a.weightedMajority(r.prepareResponders) {
		return
	}

	p := proposal.Proposal{Number: number, Instance: instance, ProposerPid: a.Pid}
	if r.highestPromised.HasValue() {
		p.Value = r.highestPromised.Value // safety takeover
	} else {
		p.Value = r.request // free choice
	}
	r.phase = PhaseAccepted

	log.Printf("[PROPOSER %d] -> Weighted majority of promises for instance %d, number %d; sending accept.", a.Pid, instance, number)
	a.broadcastAccept(p)
}

func (a *Agent) handleAcceptResponseAtProposer(msg message.AcceptResponse) {
	instance, number := msg.Proposal.Instance, msg.Proposal.Number
	byNumber, ok := a.rounds[instance]
	if !ok {
		return
	}
	r, ok := byNumber[number]
	if !ok {
		return
	}

	r.acceptResponders[msg.Source()] = true
	if a.analyzer != nil {
		a.analyzer.AddRecvd(msg.Source())
	}

	if r.majorityNotified || !a.weightedMajority(r.acceptResponders) {
		return
	}
	r.majorityNotified = true

	if a.analyzer == nil {
		return
	}
	if weights, changed := a.analyzer.Check(); changed {
		log.Printf("[PROPOSER %d] -> Analyzer adjusted weights: %v.", a.Pid, weights)
		a.weights = weights
		a.broadcastWeights(weights)
		if a.OnWeightsAdjusted != nil {
			a.OnWeightsAdjusted(weights)
		}
	}
}

// handleRetry treats a RetryMsg exactly like a ClientRequest pinned to the
// same instance, producing a fresh higher number (spec §4.1). It resolves
// spec §9's Open Question in favor of reusing the original client value:
// the retry reuses whatever request this proposer last attached to that
// instance, falling back to a nil request (a Retry carries no value) only
// if this proposer has never started that instance before.
func (a *Agent) handleRetry(msg message.Retry) {
	request := a.latestRequestForInstance(msg.Instance)
	log.Printf("[PROPOSER %d] -> Retry requested for instance %d; restarting with a fresh number.", a.Pid, msg.Instance)
	a.startRound(msg.Instance, request)
}
