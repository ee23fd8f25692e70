package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/admin"
	"github.com/vovakirdan/portalchat/internal/assistant"
	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/store"
	"github.com/vovakirdan/portalchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/portalchat/internal/transport/http"
)

// App wires together core, storage and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	ctrl            *core.Controller
	assistant       *assistant.Client
	admin           *admin.Service
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. Extra controller
// options (for example an input buffer) are applied after the defaults.
func New(cfg *config.Config, logger *zerolog.Logger, opts ...core.Option) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Debug().Str("db_path", cfg.DatabasePath).Msg("turn ledger initialized")

	client, err := assistant.NewClient(cfg.Assistant.BaseURL,
		assistant.WithChatPath(cfg.Assistant.ChatPath),
		assistant.WithHealthPath(cfg.Assistant.HealthPath),
		assistant.WithTimeout(cfg.Assistant.RequestTimeout),
		assistant.WithLogger(logger),
	)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init assistant client: %w", err)
	}

	conv := core.NewConversation(logger)
	ctrlOpts := append([]core.Option{
		core.WithLogger(logger),
		core.WithObserver(store.NewRecorder(st)),
	}, opts...)
	ctrl := core.NewController(conv, client, ctrlOpts...)

	adm := admin.NewService(cfg.Services, st, conv, client, logger)
	server := transporthttp.NewServer(ctrl, adm, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		ctrl:            ctrl,
		assistant:       client,
		admin:           adm,
		store:           st,
		log:             logger,
	}, nil
}

// Controller returns the send controller.
func (a *App) Controller() *core.Controller {
	return a.ctrl
}

// Assistant returns the assistant client.
func (a *App) Assistant() *assistant.Client {
	return a.assistant
}

// Admin returns the admin service.
func (a *App) Admin() *admin.Service {
	return a.admin
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close waits for the in-flight turn, then closes the store.
func (a *App) Close() {
	if a.ctrl.InFlight() {
		a.log.Info().Msg("waiting for in-flight message")
	}
	a.ctrl.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Debug().Msg("store closed")
		}
	}
}
