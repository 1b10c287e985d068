// Package config holds the immutable run configuration shared by every
// agent: cohort layout, weights, timeouts, and the optional failure model.
// It plays the same role the teacher's config.Conf plays, loaded the same
// way (gopkg.in/yaml.v2) when a file is supplied, but the fields describe a
// weighted Paxos cohort rather than a single HTTP node.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is broadcast to every agent as the first message of a run. Once
// built it is never mutated; agents that need to track weight changes over
// time keep their own copy of the Weights map.
type Config struct {
	NumProposers int `yaml:"num_proposers"`
	NumAcceptors int `yaml:"num_acceptors"`
	NumLearners  int `yaml:"num_learners"`

	// Weights maps acceptor pid to its vote weight. Populated by New from
	// either an explicit per-acceptor list or the static/dynamic default.
	Weights     map[int]float64 `yaml:"-"`
	TotalWeight float64         `yaml:"-"`

	// FailRates maps any pid to the probability the mailbox drops a
	// message addressed to it. Absent entries default to 0.
	FailRates map[int]float64 `yaml:"-"`

	NumTestRequests int           `yaml:"num_test_requests"`
	MessageTimeout  time.Duration `yaml:"message_timeout"`
	DynamicWeights  bool          `yaml:"dynamic_weights"`

	// ProposerSequenceStart/Step override the default disjoint arithmetic
	// progression (start = pid, step = NumProposers) when non-zero.
	ProposerSequenceStart int `yaml:"proposer_sequence_start"`
	ProposerSequenceStep  int `yaml:"proposer_sequence_step"`

	// LeaderPid is the proposer that receives client requests and retries.
	LeaderPid int `yaml:"leader_pid"`
}

// fileFormat mirrors the subset of Config that can come from YAML; weights
// and fail rates are given as plain slices there since a map keyed by a
// computed pid is awkward to author by hand.
type fileFormat struct {
	NumProposers          int       `yaml:"num_proposers"`
	NumAcceptors          int       `yaml:"num_acceptors"`
	NumLearners           int       `yaml:"num_learners"`
	Weights               []float64 `yaml:"weights"`
	FailRates             []float64 `yaml:"fail_rates"`
	NumTestRequests       int       `yaml:"num_test_requests"`
	MessageTimeout        int       `yaml:"message_timeout_ms"`
	DynamicWeights        bool      `yaml:"dynamic_weights"`
	ProposerSequenceStart int       `yaml:"proposer_sequence_start"`
	ProposerSequenceStep  int       `yaml:"proposer_sequence_step"`
	LeaderPid             int       `yaml:"leader_pid"`
}

// Opts captures the constructor arguments accepted by New, mirroring the
// driver API in spec §6: cohort sizes plus the optional weight/fail-rate
// overrides.
type Opts struct {
	NumProposers int
	NumAcceptors int
	NumLearners  int

	// Weights, if non-nil, must have length NumAcceptors and is applied in
	// acceptor-pid order (lowest acceptor pid first). Nil means static
	// default (1.0 each) unless DynamicWeights is set, in which case it
	// defaults to 1/NumAcceptors each.
	Weights []float64

	// FailRates, if non-nil, must have length NumProposers+NumAcceptors+
	// NumLearners and is applied in pid order 0..N-1.
	FailRates []float64

	NumTestRequests       int
	MessageTimeout        time.Duration
	DynamicWeights        bool
	ProposerSequenceStart int
	ProposerSequenceStep  int
	LeaderPid             int
}

// New builds a Config from explicit options, failing loudly (spec §7: a
// weight-list length mismatch is a precondition violation) rather than
// silently truncating or padding.
func New(o Opts) (*Config, error) {
	if o.NumProposers <= 0 || o.NumAcceptors <= 0 || o.NumLearners <= 0 {
		return nil, fmt.Errorf("config: cohort sizes must be positive, got (%d,%d,%d)", o.NumProposers, o.NumAcceptors, o.NumLearners)
	}
	if o.Weights != nil && len(o.Weights) != o.NumAcceptors {
		return nil, fmt.Errorf("config: weights has length %d, want %d (num_acceptors)", len(o.Weights), o.NumAcceptors)
	}
	total := o.NumProposers + o.NumAcceptors + o.NumLearners
	if o.FailRates != nil && len(o.FailRates) != total {
		return nil, fmt.Errorf("config: fail_rates has length %d, want %d (total agents)", len(o.FailRates), total)
	}

	c := &Config{
		NumProposers:          o.NumProposers,
		NumAcceptors:          o.NumAcceptors,
		NumLearners:           o.NumLearners,
		NumTestRequests:       o.NumTestRequests,
		MessageTimeout:        o.MessageTimeout,
		DynamicWeights:        o.DynamicWeights,
		ProposerSequenceStart: o.ProposerSequenceStart,
		ProposerSequenceStep:  o.ProposerSequenceStep,
		LeaderPid:             o.LeaderPid,
	}
	if c.MessageTimeout == 0 {
		c.MessageTimeout = 200 * time.Millisecond
	}

	c.Weights = make(map[int]float64, o.NumAcceptors)
	c.TotalWeight = 0
	acceptorBase := o.NumProposers
	switch {
	case o.Weights != nil:
		for i, w := range o.Weights {
			c.Weights[acceptorBase+i] = w
			c.TotalWeight += w
		}
	case o.DynamicWeights:
		nominal := round2(1.0 / float64(o.NumAcceptors))
		for i := 0; i < o.NumAcceptors; i++ {
			c.Weights[acceptorBase+i] = nominal
		}
		c.TotalWeight = 1.0
	default:
		for i := 0; i < o.NumAcceptors; i++ {
			c.Weights[acceptorBase+i] = 1.0
		}
		c.TotalWeight = float64(o.NumAcceptors)
	}

	if o.FailRates != nil {
		c.FailRates = make(map[int]float64, len(o.FailRates))
		for pid, r := range o.FailRates {
			c.FailRates[pid] = r
		}
	}

	return c, nil
}

// Load reads a YAML file in the fileFormat shape and builds a Config from
// it, the same two-step "read file, fail loudly" pattern as the teacher's
// Conf.LoadConfigFile.
func Load(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var ff fileFormat
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return New(Opts{
		NumProposers:          ff.NumProposers,
		NumAcceptors:          ff.NumAcceptors,
		NumLearners:           ff.NumLearners,
		Weights:               ff.Weights,
		FailRates:             ff.FailRates,
		NumTestRequests:       ff.NumTestRequests,
		MessageTimeout:        time.Duration(ff.MessageTimeout) * time.Millisecond,
		DynamicWeights:        ff.DynamicWeights,
		ProposerSequenceStart: ff.ProposerSequenceStart,
		ProposerSequenceStep:  ff.ProposerSequenceStep,
		LeaderPid:             ff.LeaderPid,
	})
}

// ProposerPids returns the cohort's proposer pid range, lowest first.
func (c *Config) ProposerPids() []int {
	pids := make([]int, c.NumProposers)
	for i := range pids {
		pids[i] = i
	}
	return pids
}

// AcceptorPids returns the cohort's acceptor pid range, lowest first.
func (c *Config) AcceptorPids() []int {
	pids := make([]int, c.NumAcceptors)
	base := c.NumProposers
	for i := range pids {
		pids[i] = base + i
	}
	return pids
}

// LearnerPids returns the cohort's learner pid range, lowest first.
func (c *Config) LearnerPids() []int {
	pids := make([]int, c.NumLearners)
	base := c.NumProposers + c.NumAcceptors
	for i := range pids {
		pids[i] = base + i
	}
	return pids
}

// FailRate returns the configured drop probability for pid, degrading to 0
// for any pid with no entry (spec §7: an out-of-range lookup is not an
// error, it just means "never drop").
func (c *Config) FailRate(pid int) float64 {
	if c.FailRates == nil {
		return 0
	}
	return c.FailRates[pid]
}

// SequenceStart returns the first proposal number pid should use.
func (c *Config) SequenceStart(pid int) int64 {
	if c.ProposerSequenceStart != 0 || c.ProposerSequenceStep != 0 {
		return int64(c.ProposerSequenceStart + pid*c.ProposerSequenceStep)
	}
	return int64(pid)
}

// SequenceStep returns the increment pid adds to its proposal numbers.
func (c *Config) SequenceStep() int64 {
	if c.ProposerSequenceStep != 0 {
		return int64(c.ProposerSequenceStep)
	}
	return int64(c.NumProposers)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
