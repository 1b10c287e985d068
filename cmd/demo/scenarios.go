package main

import (
	"time"

	"github.com/gdub/weighted-paxos/paxos/config"
)

// scenario bundles everything needed to run one of spec §8's S1-S6
// end-to-end scenarios from the command line: the
// config options, whether learners use the ordered-retry variant, and the
// client values to submit.
type scenario struct {
	Name           string
	Opts           config.Opts
	OrderedLearner bool
	// Requests are (proposerPid, instance, value) triples submitted in
	// order. ProposerPid 0 with instance 0 covers the common "N client
	// requests to the leader, one per new instance" case.
	Requests []request
}

type request struct {
	ProposerPid int
	Instance    int64
	Value       any
}

func sequentialRequests(leaderPid int, n int) []request {
	reqs := make([]request, n)
	for i := 0; i < n; i++ {
		reqs[i] = request{ProposerPid: leaderPid, Instance: 0, Value: i + 1}
	}
	return reqs
}

const defaultMessageTimeout = 20 * time.Millisecond

// scenarios returns the named S1-S6 scenarios from spec §8, by lowercase
// name ("s1".."s6").
func scenarios() map[string]scenario {
	m := make(map[string]scenario)

	m["s1"] = scenario{
		Name: "S1 - clean 3/3/3, no loss",
		Opts: config.Opts{
			NumProposers: 3, NumAcceptors: 3, NumLearners: 3,
			Weights:        []float64{1, 1, 1},
			FailRates:      make([]float64, 9),
			MessageTimeout: defaultMessageTimeout,
		},
		Requests: sequentialRequests(0, 10),
	}

	s2Fail := make([]float64, 9)
	s2Fail[3] = 1 // first acceptor pid (3) always drops
	m["s2"] = scenario{
		Name: "S2 - one dead acceptor, static equal weights",
		Opts: config.Opts{
			NumProposers: 3, NumAcceptors: 3, NumLearners: 3,
			Weights:        []float64{1, 1, 1},
			FailRates:      s2Fail,
			MessageTimeout: defaultMessageTimeout,
		},
		Requests: sequentialRequests(0, 10),
	}

	s3Fail := make([]float64, 9)
	s3Fail[3], s3Fail[4] = 1, 1 // two low-weight acceptors dead
	m["s3"] = scenario{
		Name: "S3 - two dead acceptors, static unequal weights",
		Opts: config.Opts{
			NumProposers: 3, NumAcceptors: 3, NumLearners: 3,
			Weights:        []float64{1, 1, 3},
			FailRates:      s3Fail,
			MessageTimeout: defaultMessageTimeout,
		},
		Requests: sequentialRequests(0, 10),
	}

	s4Fail := make([]float64, 8) // 1 proposer + 5 acceptors + 2 learners
	s4Fail[1+2], s4Fail[1+3] = 0.2, 0.3
	s4Fail[1+4] = 0.4
	m["s4"] = scenario{
		Name: "S4 - lossy acceptors with dynamic weights",
		Opts: config.Opts{
			NumProposers: 1, NumAcceptors: 5, NumLearners: 2,
			DynamicWeights: true,
			FailRates:      s4Fail,
			MessageTimeout: defaultMessageTimeout,
		},
		Requests: sequentialRequests(0, 100),
	}

	s5Fail := make([]float64, 5) // 1 proposer + 3 acceptors + 1 learner
	s5Fail[4] = 0.6              // the single learner's inbound AcceptResponses are lossy
	// The drop model is keyed by destination pid only, so this loses a share
	// of every AcceptResponse to the learner rather than those of chosen
	// instances; the ordered learner's retry path fills the resulting gaps.
	m["s5"] = scenario{
		Name: "S5 - learner retry path",
		Opts: config.Opts{
			NumProposers: 1, NumAcceptors: 3, NumLearners: 1,
			FailRates:      s5Fail,
			MessageTimeout: defaultMessageTimeout,
		},
		OrderedLearner: true,
		Requests:       sequentialRequests(0, 10),
	}

	m["s6"] = scenario{
		Name: "S6 - two concurrent proposers",
		Opts: config.Opts{
			NumProposers: 2, NumAcceptors: 3, NumLearners: 1,
			FailRates:      make([]float64, 6),
			MessageTimeout: defaultMessageTimeout,
		},
		Requests: []request{
			{ProposerPid: 0, Instance: 1, Value: "from-proposer-0"},
			{ProposerPid: 1, Instance: 1, Value: "from-proposer-1"},
		},
	}

	return m
}
