package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdub/weighted-paxos/paxos/message"
)

func TestMailboxDeliversFIFOPerPid(t *testing.T) {
	m := NewMailbox([]int{0, 1}, 20*time.Millisecond)
	m.Send(0, message.ClientRequest{Value: "a"})
	m.Send(0, message.ClientRequest{Value: "b"})
	m.Send(0, message.ClientRequest{Value: "c"})

	for _, want := range []string{"a", "b", "c"} {
		got := m.Recv(0).(message.ClientRequest)
		assert.Equal(t, want, got.Value)
	}
}

func TestMailboxSendToUnknownPidIsANoop(t *testing.T) {
	m := NewMailbox([]int{0}, 20*time.Millisecond)
	assert.NotPanics(t, func() {
		m.Send(99, message.ClientRequest{Value: "x"})
	})
}

func TestMailboxGoesIdleAfterThreeTimeouts(t *testing.T) {
	timeout := 10 * time.Millisecond
	m := NewMailbox([]int{0}, timeout)

	select {
	case <-m.idleDone:
		t.Fatal("mailbox reported idle too early")
	case <-time.After(timeout):
	}

	select {
	case <-m.idleDone:
	case <-time.After(2 * time.Second):
		t.Fatal("mailbox never went idle")
	}
}

func TestMailboxQuitUnblocksRecv(t *testing.T) {
	m := NewMailbox([]int{0}, 20*time.Millisecond)
	done := make(chan message.Message, 1)
	go func() { done <- m.Recv(0) }()

	time.Sleep(10 * time.Millisecond)
	m.Quit()

	select {
	case msg := <-done:
		_, ok := msg.(message.Quit)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Quit")
	}
}

func TestLossyMailboxNeverDropsControlPlane(t *testing.T) {
	lm := NewLossyMailbox([]int{0}, 20*time.Millisecond, func(int) float64 { return 1.0 }, 1)
	lm.Send(0, message.ClientRequest{Value: "always delivered"})

	msg := lm.Recv(0)
	req, ok := msg.(message.ClientRequest)
	require.True(t, ok)
	assert.Equal(t, "always delivered", req.Value)
	assert.Equal(t, 0, lm.Stats().Failed)
}

func TestLossyMailboxDropsDataPlaneAtFullRate(t *testing.T) {
	lm := NewLossyMailbox([]int{0}, 20*time.Millisecond, func(int) float64 { return 1.0 }, 1)
	lm.Send(0, message.Prepare{From: 1})

	assert.Equal(t, 1, lm.Stats().Failed)
}

func TestLossyMailboxIsDeterministicForAGivenSeed(t *testing.T) {
	failRate := func(int) float64 { return 0.5 }
	var firstRunDrops []bool

	for run := 0; run < 2; run++ {
		lm := NewLossyMailbox([]int{0}, 20*time.Millisecond, failRate, 42)
		var drops []bool
		for i := 0; i < 20; i++ {
			before := lm.Stats().Failed
			lm.Send(0, message.Prepare{From: 1})
			drops = append(drops, lm.Stats().Failed != before)
		}
		if run == 0 {
			firstRunDrops = drops
		} else {
			assert.Equal(t, firstRunDrops, drops)
		}
	}
}
