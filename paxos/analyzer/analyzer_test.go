package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumWeights(w map[int]float64) float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

func TestNewSeedsUniformWeights(t *testing.T) {
	a := New([]int{3, 4, 5})
	w := a.Weights()
	require.Len(t, w, 3)
	for pid, weight := range w {
		assert.InDeltaf(t, 1.0/3.0, weight, 0.01, "pid %d", pid)
	}
	assert.InDelta(t, 1.0, sumWeights(w), 0.01)
}

// A ratio that stays at 1.0 (every send gets a receive) must never see its
// weight reduced (spec §8 analyzer property 8).
func TestPerfectRatioNeverLosesWeight(t *testing.T) {
	a := New([]int{3, 4, 5})
	for round := 0; round < 20; round++ {
		for _, pid := range []int{3, 4, 5} {
			a.AddSend(pid)
			a.AddRecvd(pid)
		}
		a.Check()
	}
	w := a.Weights()
	for pid, weight := range w {
		assert.InDeltaf(t, 1.0/3.0, weight, 0.01, "pid %d", pid)
	}
}

// A consistently lossy acceptor should see its weight strictly decrease,
// while every weight stays within [0, ceiling]. Conservation of the total
// (spec §8 property 6) is only exact while reallocation keeps finding a
// nominal-weight acceptor to raise; spec §9 flags the raise path as
// fragile under sustained starvation, so this test checks the bound, not
// exact conservation, once the loss is this severe.
func TestLossyAcceptorLosesWeight(t *testing.T) {
	a := New([]int{3, 4, 5})
	initial := a.Weights()[5]

	for round := 0; round < 8; round++ {
		for _, pid := range []int{3, 4} {
			a.AddSend(pid)
			a.AddRecvd(pid)
		}
		// pid 5 answers only 1 in 3 times.
		a.AddSend(5)
		if round%3 == 0 {
			a.AddRecvd(5)
		}
		a.Check()
	}

	w := a.Weights()
	assert.Less(t, w[5], initial, "lossy acceptor's weight should have dropped")
	for pid, weight := range w {
		assert.GreaterOrEqualf(t, weight, 0.0, "pid %d", pid)
		assert.LessOrEqualf(t, weight, ceiling+0.001, "pid %d", pid)
	}
}

func TestWeightsNeverNegative(t *testing.T) {
	a := New([]int{3, 4})
	for round := 0; round < 200; round++ {
		a.AddSend(3)
		a.AddSend(4)
		a.AddRecvd(4) // pid 3 never answers
		a.Check()
	}
	w := a.Weights()
	assert.GreaterOrEqual(t, w[3], 0.0)
}
