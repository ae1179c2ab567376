package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lostfilm/internal/history"
	"lostfilm/internal/media"
	"lostfilm/internal/player"
	"lostfilm/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Resume from watch history",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every history entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.history.Clear(ctx)
		})
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		entries, err := a.history.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No history entries found.")
			return nil
		}

		if flagJSON {
			return printJSON(entries)
		}

		items := history.FormatForDisplay(entries)
		idx, err := ui.Select("History", items)
		if err != nil {
			return err
		}

		selected := entries[idx]
		debugf("resuming: %s at %s", selected.Title, player.FormatPosition(selected.Position))

		ep := media.NewEpisode(selected.SeriesID, selected.Season, selected.Episode)
		ep.SeriesTitle = selected.Title

		// Override continue flag to resume
		flagContinue = true
		return playEpisode(ctx, a, ep)
	})
}
