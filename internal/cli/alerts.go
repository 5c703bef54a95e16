package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ringwatch/internal/app"
)

var (
	alertsLimit int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Display recent alert emissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.AlertsOptions{
			Limit: alertsLimit,
		}

		return getApp().Alerts(cmd.Context(), opts)
	},
}

func init() {
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "Number of alerts to display")
}
