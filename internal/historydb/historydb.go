// Package historydb is the optional SQLite-backed run-history sink
// SPEC_FULL.md §4.6 adds on top of the core result logger: it lets a demo
// driver persist each run's summary row keyed by a run id, so a sequence of
// S1-S6 demo runs can be compared later. It never persists protocol state
// (no acceptor/proposer/learner table survives a restart; that stays out of
// scope per spec.md §1's Non-goals) and is never imported by the paxos,
// transport, or resultlog packages — only cmd/demo wires it in.
//
// Ported from esaraci-go-paxos/paxos/queries/sqlite-queries.go's
// table-per-concern, "INSERT ... ON CONFLICT DO UPDATE" style, using the
// teacher's own github.com/mattn/go-sqlite3 driver.
package historydb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gdub/weighted-paxos/paxos/resultlog"
)

// DB wraps a single SQLite connection holding one "runs" table, one row per
// recorded run.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the runs table exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("historydb: opening %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		scenario TEXT,
		num_proposers INTEGER,
		num_acceptors INTEGER,
		num_learners INTEGER,
		good INTEGER,
		bad INTEGER,
		empty INTEGER,
		incomplete INTEGER,
		complete INTEGER,
		learned INTEGER,
		missing INTEGER,
		messages_sent INTEGER,
		messages_failed INTEGER,
		messages_recv INTEGER
	)`); err != nil {
		return nil, fmt.Errorf("historydb: creating runs table: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// RecordRun upserts one row for runID, scenario, and the summary computed
// at the end of that run.
func (d *DB) RecordRun(runID, scenario string, s resultlog.Summary) error {
	_, err := d.conn.Exec(`INSERT INTO runs (
		run_id, scenario, num_proposers, num_acceptors, num_learners,
		good, bad, empty, incomplete, complete, learned, missing,
		messages_sent, messages_failed, messages_recv
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (run_id) DO UPDATE SET
		scenario = excluded.scenario,
		good = excluded.good, bad = excluded.bad,
		empty = excluded.empty, incomplete = excluded.incomplete, complete = excluded.complete,
		learned = excluded.learned, missing = excluded.missing,
		messages_sent = excluded.messages_sent, messages_failed = excluded.messages_failed,
		messages_recv = excluded.messages_recv`,
		runID, scenario, s.NumProposers, s.NumAcceptors, s.NumLearners,
		s.Good, s.Bad, s.Empty, s.Incomplete, s.Complete, s.Learned, s.Missing,
		s.MessagesSent, s.MessagesFailed, s.MessagesRecv,
	)
	if err != nil {
		return fmt.Errorf("historydb: recording run %s: %w", runID, err)
	}
	return nil
}

// Run is one persisted row, as returned by Recent.
type Run struct {
	RunID    string
	Scenario string
	Bad      int
	Complete int
}

// Recent returns up to n recorded runs ordered by run_id descending
// (highest run_id first). The order is lexical on run_id, not the order in
// which runs were recorded.
func (d *DB) Recent(n int) ([]Run, error) {
	rows, err := d.conn.Query("SELECT run_id, scenario, bad, complete FROM runs ORDER BY run_id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("historydb: querying recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Bad, &r.Complete); err != nil {
			return nil, fmt.Errorf("historydb: scanning run row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
