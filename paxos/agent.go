// Package paxos implements the three Paxos role state machines generalized
// to weighted quorums, as specified in spec §4: Proposer (two-phase
// bookkeeping plus the analyzer hook), Acceptor (promise/accept per
// instance), and Learner (quorum detection, ordered logging, retry
// trigger). Ported from the teacher's go-paxos/paxos package — same
// bracketed `[ROLE] -> message` logging convention, same "one file per
// role" layout — but every handler is rewritten against an in-process
// mailbox instead of an HTTP handler, and every majority check is weighted
// instead of a plain count.
package paxos

import (
	"log"
	"sync"

	"github.com/gdub/weighted-paxos/paxos/analyzer"
	"github.com/gdub/weighted-paxos/paxos/config"
	"github.com/gdub/weighted-paxos/paxos/message"
	"github.com/gdub/weighted-paxos/paxos/resultlog"
	"github.com/gdub/weighted-paxos/paxos/transport"
)

// Role distinguishes which of the three state machines an Agent runs. Spec
// §9 asks for composition over inheritance: Agent is one type with a role
// tag and role-specific state, not three subclasses.
type Role int

const (
	RoleProposer Role = iota
	RoleAcceptor
	RoleLearner
)

func (r Role) String() string {
	switch r {
	case RoleProposer:
		return "PROPOSER"
	case RoleAcceptor:
		return "ACCEPTOR"
	case RoleLearner:
		return "LEARNER"
	default:
		return "UNKNOWN"
	}
}

// Agent is the single receive loop every pid runs, dispatching on message
// kind to a per-role handler table (spec §9: "a tagged union of messages
// and a per-role handler table", not class inheritance).
type Agent struct {
	Pid       int
	Role      Role
	Transport transport.Transport
	Logger    *resultlog.Logger

	cfg     *config.Config
	weights map[int]float64 // this agent's own copy; only it mutates it
	active  bool

	// Proposer-only state.
	sequenceNext int64
	sequenceStep int64
	nextInstance int64
	rounds       map[int64]map[int64]*proposerRound
	analyzer     *analyzer.Analyzer

	// Acceptor-only state.
	acceptorInstances map[int64]*acceptorInstance

	// Learner-only state. learnerMu guards learnerInstances and
	// highestInstanceSeen because, for an ordered learner, both the
	// receive loop and the background ordering goroutine touch them.
	learnerMu           sync.Mutex
	learnerInstances    map[int64]*learnerInstance
	highestInstanceSeen int64
	ordered             bool
	stopOrdering        chan struct{}

	// OnWeightsAdjusted and OnInstanceDecided are optional observer hooks a
	// driver can set before Run to mirror protocol events out to the
	// optional telemetry publisher, without the paxos package importing
	// telemetry itself (SPEC_FULL.md §6).
	OnWeightsAdjusted func(weights map[int]float64)
	OnInstanceDecided func(instance int64, value any)
}

// NewAgent builds an Agent for pid in the given role. Ordered makes a
// learner an ordered-retry learner (spec §4.3); it is ignored for other
// roles.
func NewAgent(pid int, role Role, tr transport.Transport, logger *resultlog.Logger, ordered bool) *Agent {
	a := &Agent{
		Pid:       pid,
		Role:      role,
		Transport: tr,
		Logger:    logger,
		active:    true,
	}
	switch role {
	case RoleProposer:
		a.rounds = make(map[int64]map[int64]*proposerRound)
	case RoleAcceptor:
		a.acceptorInstances = make(map[int64]*acceptorInstance)
	case RoleLearner:
		a.learnerInstances = make(map[int64]*learnerInstance)
		a.ordered = ordered
		if ordered {
			a.stopOrdering = make(chan struct{})
		}
	}
	return a
}

// Run is the agent's receive loop: block on Recv, dispatch, repeat until a
// Quit message arrives. Each suspension point is this one Recv call (spec
// §5).
func (a *Agent) Run() {
	for a.active {
		msg := a.Transport.Recv(a.Pid)
		if _, ok := msg.(message.Quit); ok {
			a.active = false
			break
		}
		a.dispatch(msg)
	}
	if a.Role == RoleLearner && a.ordered {
		close(a.stopOrdering)
	}
}

func (a *Agent) dispatch(msg message.Message) {
	switch msg.Kind() {
	case message.KindConfig:
		a.handleConfig(msg.(message.SystemConfig))
	case message.KindClientRequest:
		if a.Role == RoleProposer {
			a.handleClientRequest(msg.(message.ClientRequest))
		}
	case message.KindPrepare:
		if a.Role == RoleAcceptor {
			a.handlePrepare(msg.(message.Prepare))
		}
	case message.KindPrepareResponse:
		if a.Role == RoleProposer {
			a.handlePrepareResponse(msg.(message.PrepareResponse))
		}
	case message.KindAccept:
		if a.Role == RoleAcceptor {
			a.handleAccept(msg.(message.Accept))
		}
	case message.KindAcceptResponse:
		switch a.Role {
		case RoleProposer:
			a.handleAcceptResponseAtProposer(msg.(message.AcceptResponse))
		case RoleLearner:
			a.handleAcceptResponseAtLearner(msg.(message.AcceptResponse))
		}
	case message.KindRetry:
		if a.Role == RoleProposer {
			a.handleRetry(msg.(message.Retry))
		}
	case message.KindAdjustWeights:
		if a.Role == RoleLearner {
			a.handleAdjustWeights(msg.(message.AdjustWeights))
		}
	}
}

func (a *Agent) handleConfig(msg message.SystemConfig) {
	a.cfg = msg.Cfg
	a.weights = make(map[int]float64, len(msg.Cfg.Weights))
	for pid, w := range msg.Cfg.Weights {
		a.weights[pid] = w
	}

	switch a.Role {
	case RoleProposer:
		a.sequenceNext = a.cfg.SequenceStart(a.Pid)
		a.sequenceStep = a.cfg.SequenceStep()
		a.nextInstance = 1
		if a.cfg.DynamicWeights {
			a.analyzer = analyzer.New(a.cfg.AcceptorPids())
		}
	case RoleLearner:
		if a.ordered {
			go a.runOrdering()
		}
	}
	log.Printf("[%s %d] -> Configuration received: %d proposers, %d acceptors, %d learners.",
		a.Role, a.Pid, a.cfg.NumProposers, a.cfg.NumAcceptors, a.cfg.NumLearners)
}

// weightedMajority reports whether the pids in responders sum to strictly
// more than half of TotalWeight, per spec §3's definition.
func (a *Agent) weightedMajority(responders map[int]bool) bool {
	var sum float64
	for pid := range responders {
		sum += a.weights[pid]
	}
	return sum > a.cfg.TotalWeight/2
}
