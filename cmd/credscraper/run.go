package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the command that runs both stages.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape, then normalize the fresh intermediate file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := runScrape(ctx, cfg)
			if result != nil {
				printScrapeSummary(cmd.OutOrStdout(), result, cfg.IntermediatePath)
			}
			if err != nil {
				return err
			}
			return runNormalize(ctx, cfg, cmd.OutOrStdout())
		},
	}
	addScrapeFlags(cmd.Flags())
	addNormalizeFlags(cmd.Flags())
	return cmd
}
