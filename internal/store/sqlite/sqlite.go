package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/portalchat/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id            TEXT PRIMARY KEY,
	prompt_id     TEXT NOT NULL,
	reply_id      TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	started_at_ms INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_started_at ON turns(started_at_ms);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file, or ":memory:".
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection: ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTurn persists a settled turn.
func (s *SQLiteStore) SaveTurn(ctx context.Context, turn *store.Turn) error {
	query := `
		INSERT INTO turns (id, prompt_id, reply_id, outcome, started_at_ms, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		turn.ID,
		turn.PromptID,
		turn.ReplyID,
		turn.Outcome,
		turn.StartedAt.UnixMilli(),
		turn.Latency.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// GetTurn retrieves a turn by ID.
func (s *SQLiteStore) GetTurn(ctx context.Context, id string) (*store.Turn, error) {
	query := `
		SELECT id, prompt_id, reply_id, outcome, started_at_ms, latency_ms
		FROM turns
		WHERE id = ?
	`
	turn, err := scanTurn(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("turn %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query turn: %w", err)
	}
	return turn, nil
}

// ListTurns returns the most recent turns, newest first.
func (s *SQLiteStore) ListTurns(ctx context.Context, limit int) ([]*store.Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, prompt_id, reply_id, outcome, started_at_ms, latency_ms
		FROM turns
		ORDER BY started_at_ms DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []*store.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, nil
}

// TurnStats aggregates turns started at or after since.
func (s *SQLiteStore) TurnStats(ctx context.Context, since time.Time) (store.TurnStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'replied' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'placeholder' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(latency_ms), 0)
		FROM turns
		WHERE started_at_ms >= ?
	`
	var (
		stats     store.TurnStats
		avgMillis float64
	)
	err := s.db.QueryRowContext(ctx, query, since.UnixMilli()).Scan(
		&stats.Total,
		&stats.Replied,
		&stats.Placeholder,
		&stats.Failed,
		&avgMillis,
	)
	if err != nil {
		return store.TurnStats{}, fmt.Errorf("query turn stats: %w", err)
	}
	stats.AvgLatency = time.Duration(avgMillis * float64(time.Millisecond))
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (*store.Turn, error) {
	var (
		turn      store.Turn
		startedMs int64
		latencyMs int64
	)
	if err := row.Scan(&turn.ID, &turn.PromptID, &turn.ReplyID, &turn.Outcome, &startedMs, &latencyMs); err != nil {
		return nil, err
	}
	turn.StartedAt = time.UnixMilli(startedMs)
	turn.Latency = time.Duration(latencyMs) * time.Millisecond
	return &turn, nil
}
