package cmd

import (
	"fmt"
	"regexp"

	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/bimmerbailey/quell/internal/parser"
	"github.com/spf13/cobra"
)

// addFilterFlags registers the entry selection flags shared by the batch
// commands. matcherFlag names the repeatable key=value label matcher.
func addFilterFlags(cmd *cobra.Command, matcherFlag string) {
	cmd.Flags().StringP("pattern", "p", "", "only keep lines matching regex pattern")
	cmd.Flags().BoolP("invert", "V", false, "invert --pattern (keep non-matching lines)")
	cmd.Flags().String("level", "", "only keep entries of this level (debug, info, warn, error, fatal)")
	cmd.Flags().String("since", "", "keep entries after this time (RFC3339 or relative like '1h')")
	cmd.Flags().String("until", "", "keep entries before this time (RFC3339 or relative like '1h')")
	cmd.Flags().StringSlice(matcherFlag, nil, "only keep entries whose label equals value (key=value, repeatable)")
}

func addStrategyFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("strategy", "s", "", "dedup strategy: none, exact, numbers, signature (default from config)")
}

// filterOptions reads the flags registered by addFilterFlags.
func filterOptions(cmd *cobra.Command, matcherFlag string) (analyzer.FilterOptions, error) {
	var opts analyzer.FilterOptions

	pattern, _ := cmd.Flags().GetString("pattern")
	invert, _ := cmd.Flags().GetBool("invert")
	levelStr, _ := cmd.Flags().GetString("level")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	matchers, _ := cmd.Flags().GetStringSlice(matcherFlag)

	if invert && pattern == "" {
		return opts, fmt.Errorf("--invert requires --pattern")
	}

	var err error
	if pattern != "" {
		if opts.Pattern, err = regexp.Compile(pattern); err != nil {
			return opts, fmt.Errorf("invalid pattern: %w", err)
		}
		opts.Invert = invert
	}

	if levelStr != "" {
		opts.Level = config.ParseLevel(levelStr)
		if opts.Level == config.LevelUnknown {
			return opts, fmt.Errorf("invalid level: %s", levelStr)
		}
		opts.LevelActive = true
	}

	if sinceStr != "" {
		if opts.Since, err = config.ParseTimeRef(sinceStr); err != nil {
			return opts, fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if untilStr != "" {
		if opts.Until, err = config.ParseTimeRef(untilStr); err != nil {
			return opts, fmt.Errorf("invalid --until value: %w", err)
		}
	}

	if opts.Labels, err = analyzer.ParseLabelMatchers(matchers); err != nil {
		return opts, err
	}
	return opts, nil
}

// resolveStrategy prefers the --strategy flag over dedup.strategy.
func resolveStrategy(cmd *cobra.Command, cfg *config.Config) (dedup.Strategy, error) {
	name := cfg.Dedup.Strategy
	if f := cmd.Flags().Lookup("strategy"); f != nil && f.Changed {
		name = f.Value.String()
	}
	return dedup.ParseStrategy(name)
}

// loadEntries expands args, parses every file and applies the filter flags.
func loadEntries(cmd *cobra.Command, cfg *config.Config, args []string, matcherFlag string) ([]config.LogEntry, []string, error) {
	opts, err := filterOptions(cmd, matcherFlag)
	if err != nil {
		return nil, nil, err
	}

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return nil, nil, err
	}

	entries, err := parser.New(cfg.TimestampFormats).ParseFiles(commandContext(cmd), files)
	if err != nil {
		return nil, nil, err
	}
	return analyzer.Filter(entries, opts), files, nil
}
