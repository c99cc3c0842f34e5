package cmd

import (
	"fmt"

	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/spf13/cobra"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup [flags] <file>...",
	Short: "Collapse runs of repeated log lines",
	Long: `Print log files with runs of adjacent equivalent lines collapsed into the
first line of the run, followed by a (×N) repeat count.

Strategies decide when two lines are equivalent:
  none       never; every line is printed
  exact      identical text
  numbers    identical once numbers are ignored
  signature  identical punctuation and spacing once words are ignored

Only adjacent lines are compared; a line that reappears later starts a new
run.

Examples:
  quell dedup app.log
  quell dedup --strategy numbers --level warn /var/log/app.log
  quell dedup --strategy signature --label service=api 'logs/*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDedup,
}

func init() {
	setupDedupFlags(dedupCmd)
	rootCmd.AddCommand(dedupCmd)
}

func setupDedupFlags(cmd *cobra.Command) {
	addStrategyFlag(cmd)
	addFilterFlags(cmd, "label")
	cmd.Flags().Bool("summary", false, "print a line/row count summary to stderr")
}

func runDedup(cmd *cobra.Command, args []string) error {
	showSummary, _ := cmd.Flags().GetBool("summary")

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

	rows := dedup.Dedup(entries, strategy)
	if err := newWriter(cmd, cfg).WriteRows(rows); err != nil {
		return err
	}

	if showSummary {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d lines, %d rows, %d suppressed (strategy %s)\n",
			len(entries), len(rows), dedup.Suppressed(rows), strategy)
	}
	return nil
}
