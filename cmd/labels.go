package cmd

import (
	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels [flags] <file>...",
	Short: "Show how often each value of a label occurs",
	Long: `Report the distinct values of one label with their counts and share of
the entries that define the label, most common first.

Without --label, list every label found in the input with the number of
entries defining it and its number of distinct values.

Labels come from structured fields: every JSON key other than the message,
level and timestamp, and key=value pairs on plain lines.

Examples:
  quell labels app.log
  quell labels --label service app.log
  quell labels --label status --top 5 --where service=api 'logs/*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLabels,
}

func init() {
	setupLabelsFlags(labelsCmd)
	rootCmd.AddCommand(labelsCmd)
}

func setupLabelsFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("label", "l", "", "label to compute statistics for")
	cmd.Flags().IntP("top", "n", 0, "show at most n values (default from config, 0 for all)")
	addFilterFlags(cmd, "where")
}

func runLabels(cmd *cobra.Command, args []string) error {
	label, _ := cmd.Flags().GetString("label")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, _, err := loadEntries(cmd, cfg, args, "where")
	if err != nil {
		return err
	}

	w := newWriter(cmd, cfg)
	if label == "" {
		return w.WriteLabelNames(analyzer.LabelNames(entries))
	}

	stats := analyzer.LabelStats(entries, label)
	return w.WriteLabelStats(label, analyzer.TopLabelStats(stats, resolveTop(cmd, cfg.Labels.Top)))
}

// resolveTop prefers an explicit --top over the configured default.
func resolveTop(cmd *cobra.Command, fallback int) int {
	if f := cmd.Flags().Lookup("top"); f != nil && f.Changed {
		n, _ := cmd.Flags().GetInt("top")
		return n
	}
	return fallback
}
