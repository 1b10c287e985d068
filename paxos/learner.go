package paxos

import (
	"log"
	"time"

	"github.com/gdub/weighted-paxos/paxos/message"
)

// handleAcceptResponseAtLearner implements spec §4.3: track, per instance,
// which acceptors reported Accepted for which value, and latch "decided"
// the first time one value's responder set crosses a weighted majority.
//
// A basic learner logs the moment it decides. An ordered-retry learner
// leaves logging to its background ordering goroutine so instances are
// published to the result logger in strict instance order rather than
// arrival order.
func (a *Agent) handleAcceptResponseAtLearner(msg message.AcceptResponse) {
	instance := msg.Proposal.Instance

	a.learnerMu.Lock()
	if instance > a.highestInstanceSeen {
		a.highestInstanceSeen = instance
	}
	inst, ok := a.learnerInstances[instance]
	if !ok {
		inst = newLearnerInstance()
		a.learnerInstances[instance] = inst
	}
	if inst.decided {
		a.learnerMu.Unlock()
		return
	}

	value := msg.Proposal.Value
	set, ok := inst.responders[value]
	if !ok {
		set = make(map[int]bool)
		inst.responders[value] = set
	}
	set[msg.Source()] = true

	decided := a.weightedMajority(set)
	if decided {
		inst.decided = true
		inst.value = value
	}
	a.learnerMu.Unlock()

	if !decided {
		return
	}
	log.Printf("[LEARNER %d] -> Instance %d decided with value %v.", a.Pid, instance, value)
	if !a.ordered {
		a.Logger.LogResult(a.Pid, instance, value)
		if a.OnInstanceDecided != nil {
			a.OnInstanceDecided(instance, value)
		}
	}
}

func (a *Agent) handleAdjustWeights(msg message.AdjustWeights) {
	weights := make(map[int]float64, len(msg.Weights))
	for pid, w := range msg.Weights {
		weights[pid] = w
	}
	a.weights = weights
	log.Printf("[LEARNER %d] -> Weights adjusted: %v.", a.Pid, weights)
}

func (a *Agent) decidedValue(instance int64) (any, bool) {
	a.learnerMu.Lock()
	defer a.learnerMu.Unlock()
	inst, ok := a.learnerInstances[instance]
	if !ok || !inst.decided {
		return nil, false
	}
	return inst.value, true
}

func (a *Agent) seenThrough() int64 {
	a.learnerMu.Lock()
	defer a.learnerMu.Unlock()
	return a.highestInstanceSeen
}

func (a *Agent) stopped() bool {
	select {
	case <-a.stopOrdering:
		return true
	default:
		return false
	}
}

// runOrdering is the ordered-retry learner's background goroutine (spec
// §4.3, §5): it emits instance k to the result logger only once k has a
// recorded value, in order, and after waiting 5*message_timeout with no
// result for k it asks the leader to retry that instance. It keeps running
// after the agent has gone inactive until it has drained every instance up
// through highestInstanceSeen, matching the teacher-adjacent LoggerThread
// pattern in original_source/ (paxos/retries.py).
func (a *Agent) runOrdering() {
	poll := a.cfg.MessageTimeout / 4
	if poll <= 0 {
		poll = time.Millisecond
	}
	retryAfter := 5 * a.cfg.MessageTimeout

	var next int64 = 1
	waitStart := time.Now()

	for {
		if value, ok := a.decidedValue(next); ok {
			a.Logger.LogResult(a.Pid, next, value)
			if a.OnInstanceDecided != nil {
				a.OnInstanceDecided(next, value)
			}
			next++
			waitStart = time.Now()
			continue
		}

		if a.stopped() && next > a.seenThrough() {
			return
		}

		if time.Since(waitStart) >= retryAfter {
			log.Printf("[LEARNER %d] -> No result for instance %d after %s; requesting retry.", a.Pid, next, retryAfter)
			a.Transport.Send(a.cfg.LeaderPid, message.Retry{From: a.Pid, Instance: next})
			waitStart = time.Now()
		}
		time.Sleep(poll)
	}
}
