// Package transport implements the in-process message transport described
// as the mailbox in the core protocol: per-pid FIFO delivery, idle-shutdown
// detection, and an optional probabilistic drop model layered on top by
// composition rather than inheritance.
//
// The teacher's Mailbox funnelled every send through a single shared queue
// before fanning it out to per-pid inboxes, because its agents lived in
// separate OS processes talking over HTTP. Agents here share an address
// space, so Send enqueues directly onto the destination's queue; the funnel
// hop is gone but the last-delivery bookkeeping it existed to maintain is
// not.
package transport

import (
	"container/list"
	"sync"
	"time"

	"github.com/gdub/weighted-paxos/paxos/message"
)

// Stats reports the counters a run summary needs: spec §4.4 calls for
// send/receive/fail counts to be exposed.
type Stats struct {
	Sent     int
	Received int
	Failed   int
}

// Transport is the interface every agent and the system package program
// against. LossyMailbox wraps a Mailbox to add the drop model
// without the base type needing to know about it.
type Transport interface {
	Send(to int, msg message.Message)
	Recv(pid int) message.Message
	// Join blocks until the mailbox has been idle (no deliveries) for
	// 3*message_timeout.
	Join()
	// Quit forces every inbox to unblock its pending Recv with a Quit
	// message. Only meaningful after Join has returned.
	Quit()
	Stats() Stats
}

type inbox struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue *list.List
	quit  bool
}

func newInbox() *inbox {
	b := &inbox{queue: list.New()}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *inbox) push(msg message.Message) {
	b.mu.Lock()
	b.queue.PushBack(msg)
	b.cond.Signal()
	b.mu.Unlock()
}

func (b *inbox) pop() message.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.queue.Len() == 0 && !b.quit {
		b.cond.Wait()
	}
	if b.queue.Len() == 0 {
		return message.Quit{}
	}
	front := b.queue.Front()
	b.queue.Remove(front)
	return front.Value.(message.Message)
}

func (b *inbox) shutdown() {
	b.mu.Lock()
	b.quit = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Mailbox is the base transport: unconditional per-pid FIFO delivery plus
// idle-shutdown detection. It carries no drop model of its own; wrap it in
// a LossyMailbox for that.
type Mailbox struct {
	messageTimeout time.Duration

	mu        sync.Mutex
	inboxes   map[int]*inbox
	lastSeen  time.Time
	active    bool
	sent      int
	received  int
	idleOnce  sync.Once
	idleDone  chan struct{}
}

// NewMailbox builds a Mailbox for the given pids, idle-shutdown threshold
// derived from messageTimeout per spec §4.4 (3x) and starts its idle
// watcher.
func NewMailbox(pids []int, messageTimeout time.Duration) *Mailbox {
	m := &Mailbox{
		messageTimeout: messageTimeout,
		inboxes:        make(map[int]*inbox, len(pids)),
		lastSeen:       timeNow(),
		active:         true,
		idleDone:       make(chan struct{}),
	}
	for _, pid := range pids {
		m.inboxes[pid] = newInbox()
	}
	go m.watchIdle()
	return m
}

// deliver is the common tail of Send for both Mailbox and LossyMailbox: it
// records the send, enqueues onto the destination, and bumps lastSeen.
func (m *Mailbox) deliver(to int, msg message.Message) {
	m.mu.Lock()
	m.sent++
	m.lastSeen = timeNow()
	m.mu.Unlock()

	box, ok := m.inboxes[to]
	if !ok {
		return
	}
	box.push(msg)
}

// Send enqueues msg for pid to, unconditionally. See LossyMailbox for the
// drop-model variant.
func (m *Mailbox) Send(to int, msg message.Message) {
	m.deliver(to, msg)
}

// Recv blocks until a message is available for pid, or until Quit has been
// called and the inbox is empty, in which case it returns message.Quit{}.
func (m *Mailbox) Recv(pid int) message.Message {
	box, ok := m.inboxes[pid]
	if !ok {
		return message.Quit{}
	}
	msg := box.pop()
	m.mu.Lock()
	m.received++
	m.mu.Unlock()
	return msg
}

// Join blocks until the mailbox has gone idle: no deliveries for
// 3*messageTimeout.
func (m *Mailbox) Join() {
	<-m.idleDone
}

// Quit unblocks every pending Recv across every pid.
func (m *Mailbox) Quit() {
	for _, box := range m.inboxes {
		box.shutdown()
	}
}

// Stats returns the current send/receive/fail counters. Failed is always 0
// on the base Mailbox; only LossyMailbox drops messages.
func (m *Mailbox) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Sent: m.sent, Received: m.received}
}

func (m *Mailbox) watchIdle() {
	threshold := 3 * m.messageTimeout
	ticker := time.NewTicker(m.messageTimeout)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		idleFor := timeNow().Sub(m.lastSeen)
		wasActive := m.active
		if idleFor >= threshold {
			m.active = false
		}
		stillActive := m.active
		m.mu.Unlock()
		if wasActive && !stillActive {
			m.idleOnce.Do(func() { close(m.idleDone) })
			return
		}
	}
}

// timeNow is a thin indirection so tests could swap the clock; production
// code always uses wall-clock time.
var timeNow = time.Now
