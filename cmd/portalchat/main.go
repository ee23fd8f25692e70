package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/log"
)

type rootOptions struct {
	configPath   string
	logLevel     string
	assistantURL string

	cfg    config.Config
	logger *zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portalchat",
		Short:         "Chat with the portal assistant from a terminal or a browser",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.yaml (default ./config.yaml or $PORTALCHAT_CONFIG_DEFAULT_PATH)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	flags.StringVar(&opts.assistantURL, "assistant-url", "", "assistant service base URL")

	cmd.AddCommand(
		newChatCmd(opts),
		newServeCmd(opts),
		newStatusCmd(opts),
	)
	return cmd
}

// load reads .env, the config file and env vars, then applies flag overrides.
func (o *rootOptions) load(cmd *cobra.Command) error {
	bootstrap := log.NewWithWriter(o.logLevel, cmd.ErrOrStderr())
	if err := config.LoadDotEnv(); err != nil {
		bootstrap.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		LogLevel:  o.logLevel,
		Assistant: config.AssistantConfig{BaseURL: o.assistantURL},
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = log.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
	o.logger.Debug().Str("config", path).Str("assistant", cfg.Assistant.BaseURL).Msg("config loaded")
	return nil
}
