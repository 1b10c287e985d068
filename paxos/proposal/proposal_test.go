package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparisons(t *testing.T) {
	low := Proposal{Number: 1}
	high := Proposal{Number: 5}

	assert.True(t, high.GreaterThan(low))
	assert.True(t, low.LessThan(high))
	assert.True(t, high.GreaterOrEqual(low))
	assert.True(t, high.GreaterOrEqual(high))
	assert.True(t, low.LessOrEqual(high))
	assert.True(t, low.LessOrEqual(low))
	assert.False(t, low.GreaterThan(high))
}

func TestEqual(t *testing.T) {
	a := Proposal{Number: 3, Instance: 1, ProposerPid: 0, Value: "a"}
	b := Proposal{Number: 3, Instance: 9, ProposerPid: 2, Value: "b"}
	assert.True(t, a.Equal(b), "Equal only compares Number")
}

func TestHasValue(t *testing.T) {
	assert.False(t, Zero.HasValue())
	assert.True(t, Proposal{Value: "x"}.HasValue())
}

func TestZeroSortsBelowAnyRealProposal(t *testing.T) {
	assert.True(t, Proposal{Number: 0}.GreaterThan(Zero))
}
