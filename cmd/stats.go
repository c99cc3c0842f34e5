package cmd

import (
	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] <file>...",
	Short: "Summarize how much noise deduplication removes",
	Long: `Deduplicate the input and report totals: lines read, rows left, lines
suppressed and the reduction ratio, plus level counts, the longest runs and
the value breakdown of the most common labels.

Examples:
  quell stats app.log
  quell stats --strategy numbers --top 3 /var/log/app.log
  quell stats -f json 'logs/*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStats,
}

func init() {
	setupStatsFlags(statsCmd)
	rootCmd.AddCommand(statsCmd)
}

func setupStatsFlags(cmd *cobra.Command) {
	addStrategyFlag(cmd)
	addFilterFlags(cmd, "label")
	cmd.Flags().IntP("top", "n", 0, "number of runs and labels to report (default from config)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	strategy, err := resolveStrategy(cmd, cfg)
	if err != nil {
		return err
	}

	entries, _, err := loadEntries(cmd, cfg, args, "label")
	if err != nil {
		return err
	}

	sum := analyzer.Summarize(entries, strategy, resolveTop(cmd, cfg.Labels.Top))
	return newWriter(cmd, cfg).WriteSummary(sum)
}
