package paxos

import "github.com/gdub/weighted-paxos/paxos/proposal"

// Phase is a proposer's per-round state machine position (spec §3).
type Phase int

const (
	PhasePrepared Phase = iota
	PhaseAccepted
)

// proposerRound is the per-(instance, number) bookkeeping a proposer keeps
// for one round it is running, keyed by instance then number as spec §3
// specifies. Keys are never reused and entries are retained for the whole
// run (the simulation is bounded, spec §3's "Lifecycles").
type proposerRound struct {
	request            any
	prepareResponders  map[int]bool
	highestPromised    proposal.Proposal
	acceptResponders   map[int]bool
	phase              Phase
	majorityNotified   bool // first-crossing latch for the analyzer hook
}

func newProposerRound(request any) *proposerRound {
	return &proposerRound{
		request:           request,
		prepareResponders: make(map[int]bool),
		highestPromised:   proposal.Zero,
		acceptResponders:  make(map[int]bool),
		phase:             PhasePrepared,
	}
}

// acceptorInstance is the per-instance state an acceptor keeps: the highest
// proposal number it has promised, and the highest-numbered proposal it has
// actually accepted (may be proposal.Zero).
type acceptorInstance struct {
	highestPromisedNumber int64
	highestAccepted       proposal.Proposal
}

func newAcceptorInstance() *acceptorInstance {
	return &acceptorInstance{
		highestPromisedNumber: -1,
		highestAccepted:       proposal.Zero,
	}
}

// learnerInstance is the per-instance state a learner keeps: for each value
// seen, the set of acceptor pids that reported Accepted(value), plus a
// latch once any value's responder set crosses a weighted majority.
type learnerInstance struct {
	responders map[any]map[int]bool
	decided    bool
	value      any
}

func newLearnerInstance() *learnerInstance {
	return &learnerInstance{responders: make(map[any]map[int]bool)}
}
