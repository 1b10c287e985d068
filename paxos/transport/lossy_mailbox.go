package transport

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gdub/weighted-paxos/paxos/message"
)

// LossyMailbox decorates a Mailbox with spec §4.4's optional drop model:
// for each Send, look up the destination's fail rate and drop with that
// probability, except control-plane messages, which are never dropped.
//
// This is the teacher's Mailbox -> FailTestMailbox -> DebugFailTestMailbox
// layering (esaraci-go-paxos's HTTP-era mailbox hierarchy) reimagined as
// composition per spec §9's explicit instruction, rather than a second
// concrete type that reimplements delivery from scratch.
type LossyMailbox struct {
	*Mailbox

	mu       sync.Mutex
	rng      *rand.Rand
	failRate func(pid int) float64
	failed   int
}

// NewLossyMailbox builds a LossyMailbox over a fresh base Mailbox for pids.
// failRate is consulted per Send; seed makes the drop sequence
// deterministic for tests (spec §9: "the RNG must be seedable for
// deterministic tests").
func NewLossyMailbox(pids []int, messageTimeout time.Duration, failRate func(pid int) float64, seed int64) *LossyMailbox {
	return &LossyMailbox{
		Mailbox:  NewMailbox(pids, messageTimeout),
		rng:      rand.New(rand.NewSource(seed)),
		failRate: failRate,
	}
}

// Send enqueues msg for to unless the drop model randomly discards it.
// Control-plane messages (spec §4.4: config, quit, client requests, weight
// broadcasts) are exempt and always delivered.
func (m *LossyMailbox) Send(to int, msg message.Message) {
	if message.IsControlPlane(msg) {
		m.Mailbox.Send(to, msg)
		return
	}

	m.mu.Lock()
	roll := m.rng.Float64()
	m.mu.Unlock()

	if roll < m.failRate(to) {
		m.mu.Lock()
		m.failed++
		m.mu.Unlock()
		return
	}
	m.Mailbox.Send(to, msg)
}

// Stats returns the base Mailbox's send/receive counters plus this
// decorator's own drop count.
func (m *LossyMailbox) Stats() Stats {
	s := m.Mailbox.Stats()
	m.mu.Lock()
	s.Failed = m.failed
	m.mu.Unlock()
	return s
}
