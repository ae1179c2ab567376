package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the series cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop expired series from the on-disk cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			n, err := a.cache.Prune(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d expired series.\n", n)
			return nil
		})
	},
}

var cacheForgetCmd = &cobra.Command{
	Use:   "forget <series-id>...",
	Short: "Drop series from the cache so they are fetched again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			for _, id := range ids {
				if err := a.cache.Delete(ctx, id); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheForgetCmd)
}
