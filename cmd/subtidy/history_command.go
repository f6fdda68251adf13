package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"subtidy/internal/history"
	"subtidy/internal/logging"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store := history.NewStore(cfg.HistoryFile(),
				cfg.History.PurgeDays, cfg.History.WarningDays, logging.NewNop())
			snapshots, err := store.Snapshots()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(snapshots) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			if limit > 0 && len(snapshots) > limit {
				snapshots = snapshots[len(snapshots)-limit:]
			}

			heading := fmt.Sprintf("Run History (%d of %d shown)", len(snapshots), mustCount(store))
			if shouldColorize(out) {
				heading = ansiBlue + heading + ansiReset
			}
			fmt.Fprintln(out, heading)

			rows := make([][]string, 0, len(snapshots))
			for _, snap := range snapshots {
				rows = append(rows, []string{
					snap.RunTimestamp,
					strconv.Itoa(snap.VideosOnDisk),
					strconv.Itoa(snap.VideosInSubscriptions),
					strconv.Itoa(snap.NewVideosAdded),
					strconv.Itoa(snap.TotalActivities),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run Time", "On Disk", "Subscribed", "New", "Activities"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")

	return cmd
}

func mustCount(store *history.Store) int {
	count, err := store.SnapshotCount()
	if err != nil {
		return 0
	}
	return count
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
