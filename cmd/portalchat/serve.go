package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversation over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				opts.cfg.Addr = addr
			}

			application, err := app.New(&opts.cfg, opts.logger)
			if err != nil {
				return err
			}

			opts.logger.Info().
				Str("addr", opts.cfg.Addr).
				Str("assistant", opts.cfg.Assistant.BaseURL).
				Msg("starting portalchat server")
			if err := application.Run(cmd.Context()); err != nil {
				return err
			}
			opts.logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}
