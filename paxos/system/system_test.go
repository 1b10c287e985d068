package system_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdub/weighted-paxos/paxos/config"
	"github.com/gdub/weighted-paxos/paxos/resultlog"
	"github.com/gdub/weighted-paxos/paxos/system"
	"github.com/gdub/weighted-paxos/paxos/transport"
)

const testTimeout = 20 * time.Millisecond

func allPids(total int) []int {
	pids := make([]int, total)
	for i := range pids {
		pids[i] = i
	}
	return pids
}

func submitSequential(sys *system.System, n int) {
	for i := 1; i <= n; i++ {
		sys.Submit(i)
	}
}

func learnerResults(t *testing.T, logger *resultlog.Logger, cfg *config.Config) map[int]map[int64]any {
	t.Helper()
	out := make(map[int]map[int64]any)
	for _, pid := range cfg.LearnerPids() {
		out[pid] = logger.Results(pid)
	}
	return out
}

// S1: clean cohort, no loss. Every learner should learn every instance, in
// agreement (spec §8 S1).
func TestCleanCohortAllLearnersAgree(t *testing.T) {
	cfg, err := config.New(config.Opts{
		NumProposers: 3, NumAcceptors: 3, NumLearners: 3,
		Weights:        []float64{1, 1, 1},
		MessageTimeout: testTimeout,
	})
	require.NoError(t, err)

	tr := transport.NewMailbox(allPids(9), cfg.MessageTimeout)
	sys := system.New(cfg, system.Options{Transport: tr})
	sys.Start()
	submitSequential(sys, 10)
	sys.ShutdownAgents()
	sys.Quit()

	results := learnerResults(t, sys.Logger, cfg)
	for _, pid := range cfg.LearnerPids() {
		require.Len(t, results[pid], 10, "learner %d should have learned all 10 instances", pid)
		for i := int64(1); i <= 10; i++ {
			assert.Equal(t, int(i), results[pid][i])
		}
	}
	for i := int64(1); i <= 10; i++ {
		first := results[cfg.LearnerPids()[0]][i]
		for _, pid := range cfg.LearnerPids()[1:] {
			assert.Equal(t, first, results[pid][i], "learners disagree on instance %d", i)
		}
	}
}

// S2: one dead acceptor, static equal weights. Two alive acceptors out of
// three still form a weighted majority (2 > 1.5), so every request is
// learned (spec §8 S2).
func TestOneDeadAcceptorStaticEqualWeightsStillLearns(t *testing.T) {
	cfg, err := config.New(config.Opts{
		NumProposers: 3, NumAcceptors: 3, NumLearners: 3,
		Weights:        []float64{1, 1, 1},
		FailRates:      []float64{0, 0, 0, 1, 0, 0, 0, 0, 0},
		MessageTimeout: testTimeout,
	})
	require.NoError(t, err)

	tr := transport.NewLossyMailbox(allPids(9), cfg.MessageTimeout, cfg.FailRate, 7)
	sys := system.New(cfg, system.Options{Transport: tr})
	sys.Start()
	submitSequential(sys, 10)
	sys.ShutdownAgents()
	sys.Quit()

	results := learnerResults(t, sys.Logger, cfg)
	for _, pid := range cfg.LearnerPids() {
		assert.Len(t, results[pid], 10)
	}
}

// S3: two dead acceptors, static unequal weights. The surviving acceptor
// with weight 3 alone exceeds total/2 = 2.5, so the run still completes
// even with two acceptors down (spec §8 S3).
func TestUnequalWeightsSurviveTwoDeadAcceptors(t *testing.T) {
	cfg, err := config.New(config.Opts{
		NumProposers: 3, NumAcceptors: 3, NumLearners: 3,
		Weights:        []float64{1, 1, 3},
		FailRates:      []float64{0, 0, 0, 1, 1, 0, 0, 0, 0},
		MessageTimeout: testTimeout,
	})
	require.NoError(t, err)

	tr := transport.NewLossyMailbox(allPids(9), cfg.MessageTimeout, cfg.FailRate, 11)
	sys := system.New(cfg, system.Options{Transport: tr})
	sys.Start()
	submitSequential(sys, 10)
	sys.ShutdownAgents()
	sys.Quit()

	results := learnerResults(t, sys.Logger, cfg)
	for _, pid := range cfg.LearnerPids() {
		assert.Len(t, results[pid], 10)
	}
}

// S5: a lossy link to the sole learner exercises the ordered-retry
// learner's gap-filling path; the learner should still end up with every
// instance logged in order despite the loss (spec §8 S5).
//
// The mailbox's idle-shutdown threshold (3*message_timeout) is shorter than
// the ordering learner's retry wait (5*message_timeout), matching spec §4.4
// and §4.3 exactly, so a gap in the very last submitted instance can in
// principle race the driver's idle-triggered shutdown. Spec §8's own S5
// sidesteps this by picking gap instances (2 and 5) that are not the last
// of ten; this test does the same by checking only a leading slice of
// instances and submitting a trailing run of filler requests whose own
// traffic (including their own retries) keeps the mailbox busy long enough
// for the checked instances' retries to land first.
func TestOrderedLearnerRetriesPastLoss(t *testing.T) {
	cfg, err := config.New(config.Opts{
		NumProposers: 1, NumAcceptors: 3, NumLearners: 1,
		FailRates:      []float64{0, 0, 0, 0, 0.4},
		MessageTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	const checked = 5
	const filler = 20

	tr := transport.NewLossyMailbox(allPids(5), cfg.MessageTimeout, cfg.FailRate, 3)
	sys := system.New(cfg, system.Options{Transport: tr, OrderedLearner: true})
	sys.Start()
	for i := 1; i <= checked; i++ {
		sys.Submit(i)
	}
	for i := checked + 1; i <= checked+filler; i++ {
		sys.Submit(i)
		time.Sleep(8 * time.Millisecond)
	}
	sys.ShutdownAgents()
	sys.Quit()

	results := sys.Logger.Results(cfg.LearnerPids()[0])
	for i := int64(1); i <= checked; i++ {
		assert.Equal(t, int(i), results[i], "instance %d should have been logged, retrying past loss if needed", i)
	}
}

// S6: two concurrent proposers submit different values for the same
// instance. Paxos safety means the learner ends up with exactly one of the
// two values, never neither and never a corrupted hybrid (spec §8 S6).
func TestConcurrentProposersPreserveAgreement(t *testing.T) {
	cfg, err := config.New(config.Opts{
		NumProposers: 2, NumAcceptors: 3, NumLearners: 1,
		MessageTimeout: testTimeout,
	})
	require.NoError(t, err)

	tr := transport.NewMailbox(allPids(6), cfg.MessageTimeout)
	sys := system.New(cfg, system.Options{Transport: tr})
	sys.Start()
	sys.SubmitTo(0, "from-0", 1)
	sys.SubmitTo(1, "from-1", 1)
	sys.ShutdownAgents()
	sys.Quit()

	results := sys.Logger.Results(cfg.LearnerPids()[0])
	require.Contains(t, results, int64(1))
	value := results[1]
	assert.Contains(t, []any{"from-0", "from-1"}, value)
}
