// Package system wires together the mailbox, the result logger, and one
// agent per pid, the way spec §4.5 describes: instantiate, broadcast
// configuration as the first message to every pid, run each agent in its
// own goroutine, and provide a ShutdownAgents that waits for the mailbox to
// go idle before telling every agent to quit.
//
// Grounded in the teacher's init()/main() wiring in
// esaraci-go-paxos/main.go (config load -> db prepare -> http.ListenAndServe
// per node) reimagined as one process hosting every pid instead of one HTTP
// server per pid.
package system

import (
	"log"

	"github.com/gdub/weighted-paxos/paxos"
	"github.com/gdub/weighted-paxos/paxos/config"
	"github.com/gdub/weighted-paxos/paxos/message"
	"github.com/gdub/weighted-paxos/paxos/resultlog"
	"github.com/gdub/weighted-paxos/paxos/transport"
)

// System owns the mailbox, the result logger, and the agent cohort for one
// run.
type System struct {
	Cfg       *config.Config
	Transport transport.Transport
	Logger    *resultlog.Logger

	agents []*paxos.Agent
	done   chan struct{}
}

// Options lets a driver opt into an ordered-retry learner variant and
// substitute a lossy transport (spec §6's "optionally pass a mailbox
// variant for the drop model").
type Options struct {
	Transport      transport.Transport // nil builds a plain transport.Mailbox
	OrderedLearner bool
}

func allPids(cfg *config.Config) []int {
	total := cfg.NumProposers + cfg.NumAcceptors + cfg.NumLearners
	pids := make([]int, total)
	for i := range pids {
		pids[i] = i
	}
	return pids
}

// New builds a System: a transport sized to the cohort, a result logger,
// and one Agent per pid in the appropriate role.
func New(cfg *config.Config, opts Options) *System {
	tr := opts.Transport
	if tr == nil {
		tr = transport.NewMailbox(allPids(cfg), cfg.MessageTimeout)
	}

	logger := resultlog.New()
	s := &System{Cfg: cfg, Transport: tr, Logger: logger, done: make(chan struct{})}

	for _, pid := range cfg.ProposerPids() {
		s.agents = append(s.agents, paxos.NewAgent(pid, paxos.RoleProposer, tr, logger, false))
	}
	for _, pid := range cfg.AcceptorPids() {
		s.agents = append(s.agents, paxos.NewAgent(pid, paxos.RoleAcceptor, tr, logger, false))
	}
	for _, pid := range cfg.LearnerPids() {
		s.agents = append(s.agents, paxos.NewAgent(pid, paxos.RoleLearner, tr, logger, opts.OrderedLearner))
	}
	return s
}

// Agents returns every agent in the cohort, in (proposers, acceptors,
// learners) order, so a driver can attach observer hooks (e.g. telemetry)
// before calling Start.
func (s *System) Agents() []*paxos.Agent {
	return s.agents
}

// Start launches every agent's receive loop and broadcasts the
// configuration to every pid as the first message (spec §4.5).
func (s *System) Start() {
	for _, agent := range s.agents {
		go agent.Run()
	}
	cfgMsg := message.SystemConfig{Cfg: s.Cfg}
	for pid := 0; pid < s.Cfg.NumProposers+s.Cfg.NumAcceptors+s.Cfg.NumLearners; pid++ {
		s.Transport.Send(pid, cfgMsg)
	}
	log.Printf("[SYSTEM] -> Started %d agents; configuration broadcast.", len(s.agents))
}

// Submit sends a ClientRequest for value to the leader pid, opening a new
// Paxos instance (spec §6, driver API step 4).
func (s *System) Submit(value any) {
	s.Transport.Send(s.Cfg.LeaderPid, message.ClientRequest{From: -1, Value: value})
}

// SubmitTo sends a ClientRequest for value to proposer pid, pinned to
// instance if non-zero. Used by scenarios that need more than one proposer
// to receive client traffic (e.g. two concurrent proposers racing for the
// same instance).
func (s *System) SubmitTo(pid int, value any, instance int64) {
	s.Transport.Send(pid, message.ClientRequest{From: -1, Value: value, Instance: instance})
}

// ShutdownAgents waits for the mailbox to go idle, then sends "quit" to
// every pid (spec §4.5).
func (s *System) ShutdownAgents() {
	s.Transport.Join()
	s.Transport.Quit()
	log.Printf("[SYSTEM] -> Shutdown signal sent to every agent.")
}

// Quit stops accepting new logged results once every learner has stopped
// sending (spec §6, driver API step 5).
func (s *System) Quit() {
	s.Logger.Close()
}

// Stats exposes the transport's send/receive/fail counters for a run
// summary (spec §4.4, §6).
func (s *System) Stats() transport.Stats {
	return s.Transport.Stats()
}
