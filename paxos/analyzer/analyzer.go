// Package analyzer implements the per-proposer dynamic weight analyzer
// described in spec §4.7: it converts observed per-acceptor send/receive
// ratios into weight adjustments and hands back a full weight map whenever
// one changes, for the proposer to broadcast as an AdjustWeights message.
//
// There is nothing in the teacher (go-paxos is a static, unweighted HTTP
// simulation) that does this; it is grounded directly in
// original_source/sim.py's WeightAnalyzer, reimplemented as an ordinary Go
// value type rather than a class, and exercised exclusively from the
// proposer's own receive loop (spec §5: no locking needed).
package analyzer

import "sort"

const (
	ceiling = 0.5
	factor  = 0.05
)

// Analyzer tracks, per acceptor pid, how often it has answered relative to
// how often it was asked, and derives weight adjustments from the result.
type Analyzer struct {
	acceptorPids []int // ascending, fixed for the run
	nominal      float64
	weights      map[int]float64
	sent         map[int]int
	recvd        map[int]int
	threshold    map[int]float64
	changed      bool
}

// New builds an Analyzer for the given acceptor pids (ascending order
// matters: raiseWeight below walks them in id order), seeding every weight
// at 1/N and every threshold at 1-factor per spec §4.7.
func New(acceptorPids []int) *Analyzer {
	pids := append([]int(nil), acceptorPids...)
	sort.Ints(pids)

	n := len(pids)
	a := &Analyzer{
		acceptorPids: pids,
		nominal:      round2(1.0 / float64(n)),
		weights:      make(map[int]float64, n),
		sent:         make(map[int]int, n),
		recvd:        make(map[int]int, n),
		threshold:    make(map[int]float64, n),
	}
	for _, pid := range pids {
		a.weights[pid] = a.nominal
		a.threshold[pid] = round2(1 - factor)
	}
	return a
}

// AddSend records one outbound Prepare or Accept broadcast to pid.
func (a *Analyzer) AddSend(pid int) {
	a.sent[pid]++
}

// AddRecvd records one inbound PrepareResponse or AcceptResponse from pid.
func (a *Analyzer) AddRecvd(pid int) {
	a.recvd[pid]++
}

func (a *Analyzer) ratio(pid int) float64 {
	s := a.sent[pid]
	if s == 0 {
		return 0
	}
	return float64(a.recvd[pid]) / float64(s)
}

// Check runs one analyzer pass, called by the proposer whenever it observes
// a weighted-majority AcceptResponse set crossing for some instance (spec
// §4.7's "Check pass"). It returns the full weight map and true if any
// weight changed during this pass, in which case the caller should
// broadcast an AdjustWeights message and the map is a fresh copy safe to
// hand to callers.
func (a *Analyzer) Check() (map[int]float64, bool) {
	a.changed = false
	for _, pid := range a.acceptorPids {
		if a.ratio(pid) <= a.threshold[pid] {
			a.threshold[pid] = round2(a.threshold[pid] - factor)
			a.weights[pid] = round2(maxFloat(0, a.weights[pid]-factor))
			a.raiseWeight()
			a.changed = true
		}
	}
	if !a.changed {
		return nil, false
	}
	out := make(map[int]float64, len(a.weights))
	for pid, w := range a.weights {
		out[pid] = w
	}
	return out, true
}

// raiseWeight reallocates one factor unit to another acceptor, per spec
// §4.7/§9: walk acceptor pids in id order, give the increment to the first
// one whose weight is within tolerance of nominal; if a full pass finds no
// candidate, raise nominal by factor and try again; stop once nominal
// reaches ceiling (a tolerance-based comparison, never identity/exact-float
// as the source's `i is (N-1)` check did). A weight is never raised past
// ceiling: once nominal+factor would exceed it, the unit is not reallocated.
func (a *Analyzer) raiseWeight() {
	for round2(a.nominal+factor) <= ceiling+epsilon {
		for _, pid := range a.acceptorPids {
			if nearlyEqual(a.weights[pid], a.nominal) {
				a.weights[pid] = round2(a.weights[pid] + factor)
				return
			}
		}
		if nearlyEqual(a.nominal, ceiling) {
			return
		}
		a.nominal = round2(a.nominal + factor)
	}
}

// Weights returns a defensive copy of the current per-acceptor weight map.
func (a *Analyzer) Weights() map[int]float64 {
	out := make(map[int]float64, len(a.weights))
	for pid, w := range a.weights {
		out[pid] = w
	}
	return out
}

const epsilon = 1e-9

func nearlyEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.005
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
