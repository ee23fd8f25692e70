package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetTurn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.UnixMilli(1_700_000_000_000)
	in := &store.Turn{
		ID:        "turn-1",
		PromptID:  "msg-1",
		ReplyID:   "msg-2",
		Outcome:   "replied",
		StartedAt: started,
		Latency:   1500 * time.Millisecond,
	}
	if err := s.SaveTurn(ctx, in); err != nil {
		t.Fatalf("SaveTurn failed: %v", err)
	}

	got, err := s.GetTurn(ctx, "turn-1")
	if err != nil {
		t.Fatalf("GetTurn failed: %v", err)
	}
	if *got != *in {
		t.Errorf("expected %+v, got %+v", *in, *got)
	}

	if _, err := s.GetTurn(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListTurnsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"a", "b", "c"} {
		turn := &store.Turn{ID: id, PromptID: "p-" + id, Outcome: "replied", StartedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.SaveTurn(ctx, turn); err != nil {
			t.Fatalf("SaveTurn %s failed: %v", id, err)
		}
	}

	turns, err := s.ListTurns(ctx, 2)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].ID != "c" || turns[1].ID != "b" {
		t.Errorf("expected [c b], got [%s %s]", turns[0].ID, turns[1].ID)
	}
}

func TestTurnStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000)
	tests := []struct {
		id      string
		outcome string
		age     time.Duration
		latency time.Duration
	}{
		{"old", "failed", 2 * time.Hour, time.Second},
		{"r1", "replied", time.Minute, 100 * time.Millisecond},
		{"r2", "replied", 30 * time.Second, 300 * time.Millisecond},
		{"p1", "placeholder", 20 * time.Second, 200 * time.Millisecond},
		{"f1", "failed", 10 * time.Second, 400 * time.Millisecond},
	}
	for _, tt := range tests {
		turn := &store.Turn{ID: tt.id, PromptID: "p", Outcome: tt.outcome, StartedAt: now.Add(-tt.age), Latency: tt.latency}
		if err := s.SaveTurn(ctx, turn); err != nil {
			t.Fatalf("SaveTurn %s failed: %v", tt.id, err)
		}
	}

	stats, err := s.TurnStats(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("TurnStats failed: %v", err)
	}
	want := store.TurnStats{Total: 4, Replied: 2, Placeholder: 1, Failed: 1, AvgLatency: 250 * time.Millisecond}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}

	empty, err := s.TurnStats(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("TurnStats failed: %v", err)
	}
	if empty != (store.TurnStats{}) {
		t.Errorf("expected zero stats, got %+v", empty)
	}
}

func TestNewWithSetupFailure(t *testing.T) {
	_, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec("NOT SQL")
		return err
	})
	if err == nil {
		t.Fatal("expected setup error")
	}
}

type stubAssistant struct{}

func (stubAssistant) Send(context.Context, string) (core.Reply, error) {
	return core.Reply{Response: "ok"}, nil
}

func TestRecorderStoresControllerTurns(t *testing.T) {
	s := newTestStore(t)

	conv := core.NewConversation(nil)
	ctrl := core.NewController(conv, stubAssistant{}, core.WithObserver(store.NewRecorder(s)))
	if err := ctrl.Submit("Hello"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	ctrl.Wait()

	turns, err := s.ListTurns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	msgs := conv.Messages()
	if turns[0].PromptID != msgs[0].ID || turns[0].ReplyID != msgs[1].ID {
		t.Errorf("turn ids do not match messages: %+v", turns[0])
	}
	if turns[0].Outcome != string(core.OutcomeReplied) {
		t.Errorf("expected replied, got %s", turns[0].Outcome)
	}
}
