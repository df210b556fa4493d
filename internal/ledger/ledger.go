package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/snapcheck/internal/snapshot"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (runs, outcomes)
const currentSchemaVersion = 1

// Ledger records snapshot verification outcomes in SQLite.
// It implements snapshot.Observer.
//
// A Ledger represents one run: the run row is created lazily on the first
// observed outcome, so opening a ledger only to read it never creates an
// empty run.
type Ledger struct {
	db    *sql.DB
	clock *Clock
	ids   IDGenerator

	mu    sync.Mutex
	runID string
}

// Option configures Open.
type Option func(*Ledger)

// WithIDGenerator replaces the UUIDv7 generator (used by tests).
func WithIDGenerator(gen IDGenerator) Option {
	return func(l *Ledger) {
		l.ids = gen
	}
}

// Open creates or opens a ledger database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout, so parallel test binaries wait for the lock
//   - Foreign key enforcement
//
// The logical clock resumes after the highest stored seq.
func Open(path string, opts ...Option) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	var maxSeq int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM outcomes`).Scan(&maxSeq); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read clock position: %w", err)
	}

	l := &Ledger{
		db:    db,
		clock: NewClockAt(maxSeq),
		ids:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RunID returns the current run's id, or "" if nothing was observed yet.
func (l *Ledger) RunID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}

// Observe implements snapshot.Observer by appending one outcome row.
func (l *Ledger) Observe(ctx context.Context, outcome snapshot.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.runID == "" {
		runID := l.ids.Generate()
		if _, err := l.db.ExecContext(ctx,
			`INSERT INTO runs (id, started_seq) VALUES (?, ?)`,
			runID, l.clock.Current()+1,
		); err != nil {
			return fmt.Errorf("observe: create run: %w", err)
		}
		l.runID = runID
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(id, run_id, seq, test_name, reference_path, kind, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		l.ids.Generate(),
		l.runID,
		l.clock.Next(),
		outcome.TestName,
		outcome.Reference,
		string(outcome.Kind),
		outcome.Message,
	)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	return nil
}

// Entry is one stored outcome.
type Entry struct {
	ID        string               `json:"id"`
	RunID     string               `json:"run_id"`
	Seq       int64                `json:"seq"`
	TestName  string               `json:"test_name"`
	Reference string               `json:"reference"`
	Kind      snapshot.FailureKind `json:"kind"`
	Message   string               `json:"message,omitempty"`
}

// Filter narrows Entries. Zero values match everything.
type Filter struct {
	RunID string
	Kind  snapshot.FailureKind
	Limit int
}

// Entries lists outcomes ordered by seq ASC.
// Returns an empty slice (not nil) when nothing matches.
func (l *Ledger) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	var where []string
	var args []any
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	query := `SELECT id, run_id, seq, test_name, reference_path, kind, message FROM outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &e.TestName, &e.Reference, &kind, &e.Message); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Kind = snapshot.FailureKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// RunSummary aggregates the outcomes of one run.
type RunSummary struct {
	ID         string `json:"id"`
	StartedSeq int64  `json:"started_seq"`
	Total      int    `json:"total"`
	Failed     int    `json:"failed"`
}

// Runs lists every run in start order with pass/fail counts.
func (l *Ledger) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT r.id, r.started_seq,
		       COUNT(o.id),
		       COALESCE(SUM(CASE WHEN o.kind != ? THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id, r.started_seq
		ORDER BY r.started_seq ASC, r.id COLLATE BINARY ASC
	`, string(snapshot.KindMatched))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedSeq, &r.Total, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
