package resultlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogResultAndResults(t *testing.T) {
	l := New()
	l.LogResult(10, 1, "a")
	l.LogResult(10, 2, "b")
	l.Close()

	got := l.Results(10)
	assert.Equal(t, map[int64]any{1: "a", 2: "b"}, got)
}

func TestLogResultIsIdempotent(t *testing.T) {
	l := New()
	l.LogResult(10, 1, "a")
	l.LogResult(10, 1, "a") // same value logged twice, e.g. a duplicated AcceptResponse
	l.Close()

	assert.Equal(t, map[int64]any{1: "a"}, l.Results(10))
}

func TestSummarizeClassifiesInstances(t *testing.T) {
	l := New()
	// instance 1: both learners agree -> complete
	l.LogResult(10, 1, "x")
	l.LogResult(11, 1, "x")
	// instance 2: only one learner has it -> incomplete
	l.LogResult(10, 2, "y")
	// instance 3: learners disagree -> bad
	l.LogResult(10, 3, "p")
	l.LogResult(11, 3, "q")
	// instance 4: nobody has it -> empty
	l.Close()

	s := l.Summarize(1, 4, 1, 3, 2, []float64{0, 0, 0, 0, 0}, MessageStats{Sent: 10, Failed: 1, Recv: 9})

	assert.Equal(t, 1, s.Complete)
	assert.Equal(t, 1, s.Incomplete)
	assert.Equal(t, 1, s.Bad)
	assert.Equal(t, 1, s.Empty)
	assert.Equal(t, 3, s.Good) // empty + incomplete counts as "all learners agreed"
	assert.False(t, s.Consistent())
}

func TestSummarizeAllConsistent(t *testing.T) {
	l := New()
	for i := int64(1); i <= 3; i++ {
		l.LogResult(10, i, i)
		l.LogResult(11, i, i)
	}
	l.Close()

	s := l.Summarize(1, 3, 1, 3, 2, nil, MessageStats{})
	require.True(t, s.Consistent())
	assert.Equal(t, 3, s.Complete)
	assert.Equal(t, 0, s.Bad)
}

func TestWriteCSVIncludesHeaderAndRow(t *testing.T) {
	l := New()
	l.LogResult(10, 1, "x")
	l.Close()
	s := l.Summarize(1, 1, 1, 3, 1, []float64{0, 0, 0, 0, 0}, MessageStats{Sent: 5, Failed: 0, Recv: 5})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf, true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "num_proposers")
}
