package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsWeightLengthMismatch(t *testing.T) {
	_, err := New(Opts{
		NumProposers: 1, NumAcceptors: 3, NumLearners: 1,
		Weights: []float64{1, 1},
	})
	require.Error(t, err)
}

func TestNewRejectsFailRateLengthMismatch(t *testing.T) {
	_, err := New(Opts{
		NumProposers: 1, NumAcceptors: 3, NumLearners: 1,
		FailRates: []float64{0, 0},
	})
	require.Error(t, err)
}

func TestNewRejectsNonPositiveCohort(t *testing.T) {
	_, err := New(Opts{NumProposers: 0, NumAcceptors: 3, NumLearners: 1})
	require.Error(t, err)
}

func TestStaticWeightsDefaultToOne(t *testing.T) {
	cfg, err := New(Opts{NumProposers: 1, NumAcceptors: 3, NumLearners: 1})
	require.NoError(t, err)
	for _, pid := range cfg.AcceptorPids() {
		assert.Equal(t, 1.0, cfg.Weights[pid])
	}
	assert.Equal(t, 3.0, cfg.TotalWeight)
}

func TestDynamicWeightsDefaultToUniform(t *testing.T) {
	cfg, err := New(Opts{NumProposers: 1, NumAcceptors: 4, NumLearners: 1, DynamicWeights: true})
	require.NoError(t, err)
	for _, pid := range cfg.AcceptorPids() {
		assert.InDelta(t, 0.25, cfg.Weights[pid], 0.001)
	}
	assert.Equal(t, 1.0, cfg.TotalWeight)
}

func TestPidRangesArePartitioned(t *testing.T) {
	cfg, err := New(Opts{NumProposers: 2, NumAcceptors: 3, NumLearners: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, cfg.ProposerPids())
	assert.Equal(t, []int{2, 3, 4}, cfg.AcceptorPids())
	assert.Equal(t, []int{5, 6}, cfg.LearnerPids())
}

func TestFailRateDegradesToZeroOutOfRange(t *testing.T) {
	cfg, err := New(Opts{NumProposers: 1, NumAcceptors: 1, NumLearners: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.FailRate(999))
}

func TestDefaultMessageTimeoutApplied(t *testing.T) {
	cfg, err := New(Opts{NumProposers: 1, NumAcceptors: 1, NumLearners: 1})
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, cfg.MessageTimeout)
}

func TestSequenceDefaultsToPidAndProposerCount(t *testing.T) {
	cfg, err := New(Opts{NumProposers: 3, NumAcceptors: 1, NumLearners: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cfg.SequenceStart(2))
	assert.Equal(t, int64(3), cfg.SequenceStep())
}

func TestExplicitSequenceOverridesDefault(t *testing.T) {
	cfg, err := New(Opts{
		NumProposers: 3, NumAcceptors: 1, NumLearners: 1,
		ProposerSequenceStart: 100, ProposerSequenceStep: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(110), cfg.SequenceStart(1))
	assert.Equal(t, int64(10), cfg.SequenceStep())
}
