package store

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/portalchat/internal/core"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Turn is the persisted summary of one request/response cycle.
// Message content is never stored.
type Turn struct {
	ID        string
	PromptID  string
	ReplyID   string
	Outcome   string
	StartedAt time.Time
	Latency   time.Duration
}

// TurnStats aggregates turns over a time window.
type TurnStats struct {
	Total       int
	Replied     int
	Placeholder int
	Failed      int
	AvgLatency  time.Duration
}

// TurnStore handles turn persistence.
type TurnStore interface {
	// SaveTurn persists a settled turn.
	SaveTurn(ctx context.Context, turn *Turn) error

	// GetTurn retrieves a turn by ID.
	GetTurn(ctx context.Context, id string) (*Turn, error)

	// ListTurns returns the most recent turns, newest first.
	ListTurns(ctx context.Context, limit int) ([]*Turn, error)

	// TurnStats aggregates turns started at or after since.
	TurnStats(ctx context.Context, since time.Time) (TurnStats, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	TurnStore

	// Close closes the underlying database connection.
	Close() error
}

// Recorder saves every settled turn of a controller into a TurnStore.
type Recorder struct {
	turns TurnStore
}

var _ core.TurnObserver = (*Recorder)(nil)

// NewRecorder wraps turns as a core.TurnObserver.
func NewRecorder(turns TurnStore) *Recorder {
	return &Recorder{turns: turns}
}

// TurnSettled implements core.TurnObserver.
func (r *Recorder) TurnSettled(ctx context.Context, turn core.Turn) error {
	return r.turns.SaveTurn(ctx, &Turn{
		ID:        turn.ID,
		PromptID:  turn.PromptID,
		ReplyID:   turn.ReplyID,
		Outcome:   string(turn.Outcome),
		StartedAt: turn.StartedAt,
		Latency:   turn.Latency,
	})
}
