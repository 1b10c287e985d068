package paxos

import (
	"log"

	"github.com/gdub/weighted-paxos/paxos/message"
)

func (a *Agent) instanceFor(instance int64) *acceptorInstance {
	s, ok := a.acceptorInstances[instance]
	if !ok {
		s = newAcceptorInstance()
		a.acceptorInstances[instance] = s
	}
	return s
}

// handlePrepare implements spec §4.2: promise iff the incoming number is
// strictly higher than anything already promised for this instance, else
// drop silently (a reject-message optimization is explicitly allowed but
// not required, so this stays quiet rather than replying "retry" the way
// the teacher's HTTP acceptor does).
func (a *Agent) handlePrepare(msg message.Prepare) {
	s := a.instanceFor(msg.Proposal.Instance)
	if msg.Proposal.Number <= s.highestPromisedNumber {
		log.Printf("[ACCEPTOR %d] -> Dropping prepare for instance %d, number %d: already promised %d.",
			a.Pid, msg.Proposal.Instance, msg.Proposal.Number, s.highestPromisedNumber)
		return
	}
	s.highestPromisedNumber = msg.Proposal.Number
	log.Printf("[ACCEPTOR %d] -> Promising instance %d, number %d.", a.Pid, msg.Proposal.Instance, msg.Proposal.Number)
	a.Transport.Send(msg.Proposal.ProposerPid, message.PrepareResponse{
		From:            a.Pid,
		Proposal:        msg.Proposal,
		HighestAccepted: s.highestAccepted,
	})
}

// handleAccept implements spec §4.2: accept iff the incoming number is at
// least as high as the highest promised (the `>=`, not `>`, is deliberate:
// an acceptor accepts the very proposal it just promised to), else drop
// silently. On accept, fan out AcceptResponse to the proposer and to every
// learner.
func (a *Agent) handleAccept(msg message.Accept) {
	s := a.instanceFor(msg.Proposal.Instance)
	if msg.Proposal.Number < s.highestPromisedNumber {
		log.Printf("[ACCEPTOR %d] -> Dropping accept for instance %d, number %d: already promised %d.",
			a.Pid, msg.Proposal.Instance, msg.Proposal.Number, s.highestPromisedNumber)
		return
	}
	s.highestAccepted = msg.Proposal
	log.Printf("[ACCEPTOR %d] -> Accepting instance %d, number %d, value %v.",
		a.Pid, msg.Proposal.Instance, msg.Proposal.Number, msg.Proposal.Value)

	resp := message.AcceptResponse{From: a.Pid, Proposal: msg.Proposal}
	a.Transport.Send(msg.Proposal.ProposerPid, resp)
	for _, pid := range a.cfg.LearnerPids() {
		a.Transport.Send(pid, resp)
	}
}
