package cli

import (
	"time"

	"github.com/spf13/cobra"

	"ringwatch/internal/app"
)

var (
	pruneOlderThan time.Duration
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete observations older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PruneOptions{
			OlderThan: pruneOlderThan,
		}

		return getApp().Prune(cmd.Context(), opts)
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 90*24*time.Hour, "Delete observations older than this duration")
}
