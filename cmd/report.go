package cmd

import (
	"os"

	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/outwriter"
	"github.com/spf13/cobra"
)

// reportCmd charts stored metrics for one repository.
var reportCmd = &cobra.Command{
	Use:   "report <repository>",
	Short: "Chart review metrics against sizeup scores for a repository",
	Long: `Chart how review metrics vary with diff size for pull requests in a repository.

Only merged pull requests that were ready for review and carry a positive sizeup
score are charted. Each pull request contributes its latest evaluation in the window.

Stat types:
  review-engagement - comments, reviews and unacknowledged review requests vs. diff size
  delivery          - time to approval and time to merge vs. diff size
  effectiveness     - diff size distribution and sizeup-action participation
  all               - every stat type above (default)

Charts are drawn with YouPlot (uplot) unless --renderer table is given. With
--output-file, the chart datasets are written as JSON instead of drawn.

Examples:
  # Chart everything evaluated in the last 30 days
  sizeup report lerebear/sizeup --lookback 30d

  # Delivery charts for January as plain tables
  sizeup report lerebear/sizeup --start-date 2024-01-01 --end-date 2024-02-01 --stat-type delivery --renderer table`,
	Args:    cobra.ExactArgs(1),
	PreRunE: reportSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := withTimeout(rootCtx)
		defer cancel()

		if cfg.OutputFile != "" {
			data, err := core.CollectReportData(ctx, store, cfg.StatType, cfg.Repository, cfg.Range)
			if err != nil {
				contract.LogFatal("Failed to collect report data", err)
			}
			if err := outwriter.WriteReportData(cfg.OutputFile, data); err != nil {
				contract.LogFatal("Failed to write report data", err)
			}
			return
		}

		renderer, err := outwriter.NewRenderer(cfg.Renderer, cfg.Width)
		if err != nil {
			contract.LogFatal("Invalid renderer", err)
		}
		if err := core.RunReport(ctx, store, renderer, os.Stdout, cfg.StatType, cfg.Repository, cfg.Range); err != nil {
			contract.LogFatal("Failed to run report", err)
		}
	},
}
