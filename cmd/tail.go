package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/bimmerbailey/quell/internal/parser"
	"github.com/bimmerbailey/quell/internal/tail"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:   "tail [flags] <file>",
	Short: "Live-tail a log file, collapsing repeated lines",
	Long: `Watch a log file in real-time, similar to 'tail -f', with repeated lines
collapsed as they arrive.

The first line of a run is printed immediately. When the run ends, a
"last message repeated N times" line reports how many lines were hidden.

Examples:
  quell tail /var/log/app.log
  quell tail --strategy numbers --level warn /var/log/app.log
  quell tail --no-follow -n 50 app.log
  quell tail --follow-rotate /var/log/app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	setupTailFlags(tailCmd)
	rootCmd.AddCommand(tailCmd)
}

func setupTailFlags(cmd *cobra.Command) {
	addStrategyFlag(cmd)
	cmd.Flags().StringP("pattern", "p", "", "only show lines matching regex pattern")
	cmd.Flags().StringP("level", "l", "", "minimum log level to display (debug, info, warn, error, fatal)")
	cmd.Flags().IntP("lines", "n", 10, "number of initial lines to show")
	cmd.Flags().Bool("no-follow", false, "print last N lines and exit (don't follow)")
	cmd.Flags().Bool("follow-rotate", false, "follow through log rotations (continue when file is renamed/removed)")
}

func runTail(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	levelStr, _ := cmd.Flags().GetString("level")
	lines, _ := cmd.Flags().GetInt("lines")
	noFollow, _ := cmd.Flags().GetBool("no-follow")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")
	patternStr, _ := cmd.Flags().GetString("pattern")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	strategy, err := resolveStrategy(cmd, cfg)
	if err != nil {
		return err
	}

	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	var pattern *regexp.Regexp
	if patternStr != "" {
		pattern, err = regexp.Compile(patternStr)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}

	levelFilter := config.LevelUnknown
	if levelStr != "" {
		levelFilter = config.ParseLevel(levelStr)
		if levelFilter == config.LevelUnknown {
			return fmt.Errorf("invalid level: %s", levelStr)
		}
	}

	w := newWriter(cmd, cfg)
	out := cmd.OutOrStdout()

	tailer := tail.New(tail.Options{
		FilePath:     filePath,
		Lines:        lines,
		Follow:       !noFollow,
		FollowRotate: followRotate,
		Pattern:      pattern,
		LevelFilter:  levelFilter,
		Strategy:     strategy,
		Parser:       parser.New(cfg.TimestampFormats),
		Logger:       newLogger(cfg.Verbose),
		OutputFunc: func(entry config.LogEntry) error {
			return w.WriteRow(dedup.Row{Entry: entry})
		},
		RepeatFunc: func(row dedup.Row) error {
			_, err := fmt.Fprintf(out, "  last message repeated %d times\n", row.Duplicates)
			return err
		},
	})

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tailer.Run(ctx)
	if err != nil && !errors.Is(err, tail.ErrRotated) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
