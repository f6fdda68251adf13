package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subtidy/internal/activity"
	"subtidy/internal/metrics"
	"subtidy/internal/repair"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate and repair the media directory tree",
		Long: "Scans the media directory for corrupted activity folders, moves\n" +
			"misplaced episodes to their canonical locations, and renumbers\n" +
			"episode collisions. Runs only the repair stage of a sync.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			engine := repair.NewEngine(repair.Options{
				Root:      cfg.Paths.MediaDir,
				Detector:  activity.NewDetector(cfg.Repair.CorruptedFragments),
				DryRun:    dryRun,
				MaxPasses: cfg.Repair.MaxPasses,
				Logger:    logger,
			})

			var rec metrics.RepairMetrics
			ok, err := engine.Run(cmd.Context(), &rec)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rec.Summary())
			if !ok {
				return errors.New("validation completed with unresolved problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned repairs without touching any files")

	return cmd
}
