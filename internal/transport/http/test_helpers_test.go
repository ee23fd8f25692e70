package http

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/admin"
	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/store"
	"github.com/vovakirdan/portalchat/internal/store/sqlite"
)

// gatedAssistant answers "reply: <message>" once its gate is released.
type gatedAssistant struct {
	once sync.Once
	gate chan struct{}
}

func newGatedAssistant() *gatedAssistant {
	return &gatedAssistant{gate: make(chan struct{})}
}

func (a *gatedAssistant) Send(ctx context.Context, message string) (core.Reply, error) {
	select {
	case <-a.gate:
	case <-ctx.Done():
		return core.Reply{}, ctx.Err()
	}
	return core.Reply{Response: "reply: " + message}, nil
}

func (a *gatedAssistant) release() {
	a.once.Do(func() { close(a.gate) })
}

type testEnv struct {
	server    *httptest.Server
	ctrl      *core.Controller
	store     store.Store
	assistant *gatedAssistant
}

// createTestStore creates an in-memory SQLite turn store.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// startTestServer wires a controller to a gated assistant behind the router.
func startTestServer(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	st := createTestStore(t)
	asst := newGatedAssistant()
	conv := core.NewConversation(&disabledLogger)
	ctrl := core.NewController(conv, asst, core.WithObserver(store.NewRecorder(st)))
	// Cleanups run last-in first-out: release the gate, then wait for the turn.
	t.Cleanup(ctrl.Wait)
	t.Cleanup(asst.release)

	adm := admin.NewService(cfg.Services, st, conv, nil, &disabledLogger)
	ts := httptest.NewServer(NewRouter(ctrl, adm, &cfg, &disabledLogger))
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, ctrl: ctrl, store: st, assistant: asst}
}
