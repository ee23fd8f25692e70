package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/admin"
	"github.com/vovakirdan/portalchat/internal/app"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the assistant and the configured services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := app.New(&opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return printStatus(cmd.Context(), cmd.OutOrStdout(), application.Admin(), opts.cfg.Assistant.BaseURL)
		},
	}
}

func printStatus(ctx context.Context, out io.Writer, adm *admin.Service, assistantURL string) error {
	dashboard, err := adm.Dashboard(ctx)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(out, "Assistant")
	fmt.Fprintf(out, "  %s  %s\n\n", colorStatus(dashboard.Assistant), assistantURL)

	_, _ = bold.Fprintln(out, "Services")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSTATUS\tLATENCY\tURL")
	for _, svc := range adm.Services(ctx) {
		fmt.Fprintf(w, "  %s\t%s\t%dms\t%s\n", svc.Name, colorStatus(svc.Status), svc.LatencyMs, svc.URL)
	}
	return w.Flush()
}

func colorStatus(status string) string {
	if status == admin.StatusUp {
		return color.GreenString(status)
	}
	return color.RedString(status)
}
