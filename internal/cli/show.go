package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trumpwatch/internal/app"
)

var (
	showJSON    bool
	countdownAt string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Refresh every source once and print the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{JSON: showJSON})
	},
}

var countdownCmd = &cobra.Command{
	Use:   "countdown",
	Short: "Print the term countdown without fetching any data",
	RunE: func(cmd *cobra.Command, args []string) error {
		var at time.Time
		if countdownAt != "" {
			parsed, err := time.Parse(time.RFC3339, countdownAt)
			if err != nil {
				return fmt.Errorf("invalid --at value: %w", err)
			}
			at = parsed
		}
		return getApp().Countdown(at)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the dashboard as JSON")
	countdownCmd.Flags().StringVar(&countdownAt, "at", "", "Instant to compute the countdown for (RFC3339, defaults to now)")
}
