package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/app"
	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/terminal"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := &terminal.LineBuffer{}
			application, err := app.New(&opts.cfg, opts.logger, core.WithInput(input))
			if err != nil {
				return err
			}
			defer application.Close()

			console := terminal.NewConsole(application.Controller(), input, cmd.InOrStdin(), cmd.OutOrStdout(), opts.logger)
			if err := console.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nGoodbye!")
			return nil
		},
	}
}
