// Package resultlog is the single-consumer result sink described in spec
// §4.6: learners call LogResult, a background goroutine is the sole writer
// of the results table, and Summary ports the consistency accounting from
// original_source/sim.py's ResultSummary line for line.
package resultlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

type entry struct {
	pid      int
	instance int64
	value    any
}

// Logger is the result logger: a channel-backed single-consumer queue
// feeding an in-memory results table, mirroring the teacher's pattern of
// routing every persisted artifact through one narrow interface (here,
// queries.SetLearntValue) rather than writing files ad hoc from protocol
// code.
type Logger struct {
	in      chan entry
	done    chan struct{}
	results map[int]map[int64]any // pid -> instance -> value
	add     chan func()
	get     chan func()
}

// New starts the logger's consumer goroutine.
func New() *Logger {
	l := &Logger{
		in:      make(chan entry, 256),
		done:    make(chan struct{}),
		results: make(map[int]map[int64]any),
	}
	go l.run()
	return l
}

func (l *Logger) run() {
	for e := range l.in {
		byInstance, ok := l.results[e.pid]
		if !ok {
			byInstance = make(map[int64]any)
			l.results[e.pid] = byInstance
		}
		byInstance[e.instance] = e.value
	}
	close(l.done)
}

// LogResult records that learner pid decided value for instance. Safe to
// call concurrently from every learner's receive loop; ordering between
// learners is not guaranteed, only that each individual write lands.
func (l *Logger) LogResult(pid int, instance int64, value any) {
	l.in <- entry{pid: pid, instance: instance, value: value}
}

// Close stops accepting new results and waits for the consumer to drain.
// Call only after every learner has stopped sending.
func (l *Logger) Close() {
	close(l.in)
	<-l.done
}

// Results returns a snapshot of learner pid's decided values. Only safe to
// call after Close, since the backing map is otherwise owned by the
// consumer goroutine.
func (l *Logger) Results(pid int) map[int64]any {
	out := make(map[int64]any, len(l.results[pid]))
	for k, v := range l.results[pid] {
		out[k] = v
	}
	return out
}

// LearnerPids returns the pids that logged at least one result, ascending.
func (l *Logger) LearnerPids() []int {
	pids := make([]int, 0, len(l.results))
	for pid := range l.results {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// InstanceClass is the per-instance classification spec §4.6/§6 asks the
// summary to report: whether all learners that have an opinion agree.
type InstanceClass int

const (
	ClassEmpty InstanceClass = iota
	ClassIncomplete
	ClassComplete
	ClassBad
)

// Summary is the end-of-run consistency report: how many instances every
// learner agreed on, how many are still missing from some learner, and how
// many are outright inconsistent.
type Summary struct {
	NumProposers, NumAcceptors, NumLearners int
	FailRates                               []float64
	FirstInstance, LastInstance             int64

	Good, Bad, Empty, Incomplete, Complete int
	Learned, Missing                       int

	MessagesSent, MessagesFailed, MessagesRecv int
}

// Consistent reports whether every instance with a recorded value agrees
// across every learner that has it (spec §4.6/§8 property 1, Agreement).
func (s Summary) Consistent() bool {
	return s.Bad == 0
}

// Summarize computes the run summary over instances [first, last], ranging
// across every learner pid the logger has seen a result from. Mirrors
// original_source/sim.py's per-instance classification: empty (nobody has
// it), incomplete (some but not all learners have it, and those that do
// agree), complete (every learner has it and they agree), bad (two learners
// disagree on the same instance).
func (l *Logger) Summarize(first, last int64, numProposers, numAcceptors, numLearners int, failRates []float64, stats MessageStats) Summary {
	pids := l.LearnerPids()
	numLearnerPids := len(pids)

	s := Summary{
		NumProposers:   numProposers,
		NumAcceptors:   numAcceptors,
		NumLearners:    numLearners,
		FailRates:      failRates,
		FirstInstance:  first,
		LastInstance:   last,
		MessagesSent:   stats.Sent,
		MessagesFailed: stats.Failed,
		MessagesRecv:   stats.Recv,
	}

	for i := first; i <= last; i++ {
		var seen []any
		for _, pid := range pids {
			if v, ok := l.results[pid][i]; ok {
				seen = append(seen, v)
			}
		}
		switch {
		case len(seen) == 0:
			s.Empty++
			s.Good++
		case len(seen) < numLearnerPids:
			if allEqual(seen) {
				s.Incomplete++
				s.Good++
			} else {
				s.Bad++
			}
		default:
			if allEqual(seen) {
				s.Complete++
				s.Good++
			} else {
				s.Bad++
			}
		}
	}

	total := int64(0)
	if last >= first {
		total = last - first + 1
	}
	for _, pid := range pids {
		s.Learned += len(l.results[pid])
	}
	s.Missing = int(total)*numLearnerPids - s.Learned
	if s.Missing < 0 {
		s.Missing = 0
	}
	return s
}

func allEqual(vs []any) bool {
	for _, v := range vs[1:] {
		if v != vs[0] {
			return false
		}
	}
	return true
}

// MessageStats is the subset of transport.Stats the summary cares about,
// kept separate so resultlog never has to import the transport package.
type MessageStats struct {
	Sent, Failed, Recv int
}

// WriteCSV appends one row describing s, matching the columns spec §6
// names: agent counts, fail-rate vector, learned/missing counts and
// percentages, instance classification counts, message counts. Ported from
// original_source/sim.py's DebugSystem.print_summary, using encoding/csv
// the same way that used Python's csv module.
func (s Summary) WriteCSV(w io.Writer, includeHeader bool) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if includeHeader {
		if err := cw.Write([]string{
			"num_proposers", "num_acceptors", "num_learners", "fail_rates",
			"learned", "missing", "learned_pct", "missing_pct",
			"good", "bad", "empty", "incomplete", "complete",
			"msgs_sent", "msgs_sent_pct", "msgs_failed", "msgs_failed_pct",
			"msgs_total", "msgs_recv",
		}); err != nil {
			return err
		}
	}

	total := s.Learned + s.Missing
	learnedPct, missingPct := pct(s.Learned, total), pct(s.Missing, total)

	msgsTotal := s.MessagesSent + s.MessagesFailed
	sentPct := pct(s.MessagesSent, msgsTotal)
	failPct := pct(s.MessagesFailed, msgsTotal)

	row := []string{
		fmt.Sprint(s.NumProposers), fmt.Sprint(s.NumAcceptors), fmt.Sprint(s.NumLearners),
		fmt.Sprint(s.FailRates),
		fmt.Sprint(s.Learned), fmt.Sprint(s.Missing), learnedPct, missingPct,
		fmt.Sprint(s.Good), fmt.Sprint(s.Bad), fmt.Sprint(s.Empty), fmt.Sprint(s.Incomplete), fmt.Sprint(s.Complete),
		fmt.Sprint(s.MessagesSent), sentPct, fmt.Sprint(s.MessagesFailed), failPct,
		fmt.Sprint(msgsTotal), fmt.Sprint(s.MessagesRecv),
	}
	return cw.Write(row)
}

func pct(n, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", 100*float64(n)/float64(total))
}
