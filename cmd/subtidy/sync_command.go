package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subtidy/internal/workflow"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var skipRepair bool
	var skipScrape bool
	var detailed bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a full synchronization pass",
		Long: "Repairs the media tree, prunes downloaded and stale subscriptions,\n" +
			"scrapes new classes, and records the run in the subscription history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			sync := workflow.NewSync(cfg, logger,
				workflow.WithDryRun(dryRun),
				workflow.WithSkipRepair(skipRepair),
				workflow.WithSkipScrape(skipScrape))

			rec, runErr := sync.Run(cmd.Context())

			out := cmd.OutOrStdout()
			if detailed {
				fmt.Fprintln(out, rec.DetailedBreakdown())
			} else {
				fmt.Fprintln(out, rec.Summary())
			}

			if runErr != nil {
				return runErr
			}
			if !rec.Success {
				return errors.New("sync completed with failures; see log for details")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned changes without touching any files")
	cmd.Flags().BoolVar(&skipRepair, "skip-repair", false, "Skip the directory validation stage")
	cmd.Flags().BoolVar(&skipScrape, "skip-scrape", false, "Skip the scraping stage")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Print the full per-stage breakdown")

	return cmd
}
