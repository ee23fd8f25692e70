package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeAssistant answers from a script. When gate is set every Send blocks
// until a value is received from it.
type fakeAssistant struct {
	mu       sync.Mutex
	calls    []string
	reply    Reply
	err      error
	panicVal any
	gate     chan struct{}
	entered  chan string
}

func (f *fakeAssistant) Send(_ context.Context, message string) (Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- message
	}
	if gate != nil {
		<-gate
	}
	if f.panicVal != nil {
		panic(f.panicVal)
	}
	return f.reply, f.err
}

func (f *fakeAssistant) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errNetwork = errors.New("dial tcp: connection refused")

type recordingObserver struct {
	mu    sync.Mutex
	turns []Turn
}

func (r *recordingObserver) TurnSettled(_ context.Context, turn Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
	return nil
}

func (r *recordingObserver) Turns() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Turn(nil), r.turns...)
}

type lineInput struct {
	mu      sync.Mutex
	value   string
	cleared int
}

func (l *lineInput) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = ""
	l.cleared++
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}
