package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vovakirdan/portalchat/internal/assistant"
	"github.com/vovakirdan/portalchat/internal/log"
)

func main() {
	addr := flag.String("addr", ":8082", "HTTP listen address")
	delay := flag.Duration("delay", 500*time.Millisecond, "wait before each reply")
	silent := flag.Bool("silent", false, "answer with an empty response")
	fail := flag.Bool("fail", false, "answer every chat request with 500")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := log.New(*level)

	server := &http.Server{
		Addr:              *addr,
		Handler:           assistant.NewEchoHandler(assistant.EchoConfig{Delay: *delay, Silent: *silent, Fail: *fail}, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", *addr).Msg("echo assistant listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("echo assistant exited")
	}
	logger.Info().Msg("echo assistant stopped")
}
