package cli

import (
	"github.com/spf13/cobra"

	"trumpwatch/internal/app"
)

var (
	exportPNGPath string
	exportCSVPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current dashboard as a PNG widget and/or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write the widget image")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
}
