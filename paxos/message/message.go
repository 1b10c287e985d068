// Package message defines the wire types exchanged between agents over the
// mailbox. Unlike the teacher's HTTP-era messages.GenericMessage envelope,
// these travel in-process as plain Go values; there is no marshalling step
// between a proposer's send and an acceptor's receive.
package message

import (
	"github.com/gdub/weighted-paxos/paxos/config"
	"github.com/gdub/weighted-paxos/paxos/proposal"
)

// Kind tags a Message so an agent's receive loop can dispatch on it without
// a type switch falling through every case.
type Kind int

const (
	KindConfig Kind = iota
	KindQuit
	KindClientRequest
	KindPrepare
	KindPrepareResponse
	KindAccept
	KindAcceptResponse
	KindRetry
	KindAdjustWeights
)

// Message is the common interface implemented by every value the mailbox
// transports. Source is the pid that sent it; 0 is a valid pid, so Source is
// meaningless (and unused) on messages with no natural sender, such as the
// system's own Config broadcast.
type Message interface {
	Kind() Kind
	Source() int
}

// SystemConfig is the control message the system broadcasts to every pid as
// the first thing it ever receives, carrying the immutable run
// configuration (spec §4.5).
type SystemConfig struct {
	Cfg *config.Config
}

func (m SystemConfig) Kind() Kind  { return KindConfig }
func (m SystemConfig) Source() int { return -1 }

// ClientRequest opens a new Paxos instance (or forces a retry of an existing
// one when Instance is non-zero) carrying Value as the client's requested
// value.
type ClientRequest struct {
	From     int
	Value    any
	Instance int64 // 0 means "assign the next instance"
}

func (m ClientRequest) Kind() Kind { return KindClientRequest }
func (m ClientRequest) Source() int { return m.From }

// Prepare is Phase 1's request: "promise not to accept anything numbered
// lower than Proposal.Number".
type Prepare struct {
	From     int
	Proposal proposal.Proposal
}

func (m Prepare) Kind() Kind  { return KindPrepare }
func (m Prepare) Source() int { return m.From }

// PrepareResponse is an acceptor's promise, carrying back the highest
// proposal it had already accepted for this instance (Zero if none).
type PrepareResponse struct {
	From             int
	Proposal         proposal.Proposal
	HighestAccepted  proposal.Proposal
}

func (m PrepareResponse) Kind() Kind  { return KindPrepareResponse }
func (m PrepareResponse) Source() int { return m.From }

// Accept is Phase 2's request: "accept (Number, Value) for Instance".
type Accept struct {
	From     int
	Proposal proposal.Proposal
}

func (m Accept) Kind() Kind  { return KindAccept }
func (m Accept) Source() int { return m.From }

// AcceptResponse is an acceptor's acknowledgement, fanned out to the
// proposer and to every learner.
type AcceptResponse struct {
	From     int
	Proposal proposal.Proposal
}

func (m AcceptResponse) Kind() Kind  { return KindAcceptResponse }
func (m AcceptResponse) Source() int { return m.From }

// Retry asks the leader proposer to re-run Paxos for Instance because the
// sending learner has been waiting too long for a result.
type Retry struct {
	From     int
	Instance int64
}

func (m Retry) Kind() Kind  { return KindRetry }
func (m Retry) Source() int { return m.From }

// AdjustWeights is the analyzer's broadcast of a new weight vector.
type AdjustWeights struct {
	From    int
	Weights map[int]float64
}

func (m AdjustWeights) Kind() Kind  { return KindAdjustWeights }
func (m AdjustWeights) Source() int { return m.From }

// Quit is the control sentinel that flips an agent's active flag.
type Quit struct{}

func (m Quit) Kind() Kind  { return KindQuit }
func (m Quit) Source() int { return -1 }

// IsControlPlane reports whether a message is exempt from the mailbox's drop
// model: configuration, client requests, weight broadcasts, and quit.
func IsControlPlane(msg Message) bool {
	switch msg.Kind() {
	case KindConfig, KindQuit, KindClientRequest, KindAdjustWeights:
		return true
	default:
		return false
	}
}
