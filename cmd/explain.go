package cmd

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/bimmerbailey/quell/internal/llm"
	"github.com/bimmerbailey/quell/internal/output"
	"github.com/bimmerbailey/quell/internal/prompt"
	"github.com/spf13/cobra"
)

// defaultExplainLabels is how many label breakdowns are sent when --labels
// is not given.
const defaultExplainLabels = 3

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <file>...",
	Short: "Ask an LLM to explain deduplicated log output",
	Long: `Deduplicate the input and send the resulting runs, with their repeat
counts and label breakdowns, to a language model (Ollama) for explanation.

Collapsing repeats first keeps noisy logs within the model's context.

Examples:
  quell explain app.log
  quell explain --strategy numbers --mode root_cause /var/log/app.log
  quell explain --question "why does the worker keep retrying?" app.log
  quell explain --labels service,status --level error 'logs/*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func init() {
	setupExplainFlags(explainCmd)
	rootCmd.AddCommand(explainCmd)
}

func setupExplainFlags(cmd *cobra.Command) {
	addStrategyFlag(cmd)
	addFilterFlags(cmd, "label")
	cmd.Flags().String("mode", "explain", "prompt mode: explain, root_cause, question")
	cmd.Flags().StringP("question", "q", "", "question to answer (implies --mode question)")
	cmd.Flags().StringSlice("labels", nil, "label names whose value breakdown is included")
	cmd.Flags().String("model", "", "model to use (default from config)")
}

// explainResult is the structured output of explain.
type explainResult struct {
	Files    []string `json:"files" yaml:"files"`
	Strategy string   `json:"strategy" yaml:"strategy"`
	Lines    int      `json:"lines" yaml:"lines"`
	Rows     int      `json:"rows" yaml:"rows"`
	Mode     string   `json:"mode" yaml:"mode"`
	Question string   `json:"question,omitempty" yaml:"question,omitempty"`
	Model    string   `json:"model" yaml:"model"`
	Answer   string   `json:"answer" yaml:"answer"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	modeStr, _ := cmd.Flags().GetString("mode")
	question, _ := cmd.Flags().GetString("question")
	labelNames, _ := cmd.Flags().GetStringSlice("labels")
	model, _ := cmd.Flags().GetString("model")
	pattern, _ := cmd.Flags().GetString("pattern")
	level, _ := cmd.Flags().GetString("level")

	mode, err := prompt.ParseMode(modeStr)
	if err != nil {
		return err
	}
	if question != "" {
		mode = prompt.ModeQuestion
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	strategy, err := resolveStrategy(cmd, cfg)
	if err != nil {
		return err
	}
	if model == "" {
		model = cfg.LLM.Ollama.Model
	}

	entries, files, err := loadEntries(cmd, cfg, args, "label")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No log entries matched your filters. Try broader criteria.")
		return nil
	}

	rows := dedup.Dedup(entries, strategy)
	messages, err := prompt.Build(mode, prompt.Options{
		Rows:     rows,
		Labels:   explainLabels(entries, labelNames, cfg.Labels.Top),
		MaxRows:  cfg.LLM.MaxRows,
		Strategy: strategy,
		Question: question,
		Files:    files,
		Pattern:  pattern,
		Level:    level,
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	provider, err := llm.NewProvider(cfg, newLogger(cfg.Verbose))
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	if err := llm.EnsureReady(ctx, provider, model); err != nil {
		return fmt.Errorf("cannot use model %s at %s: %w\n\nStart Ollama with: ollama serve, then: ollama pull %s",
			model, cfg.LLM.Ollama.Host, err, model)
	}

	stream, err := provider.ChatStream(ctx, messages, &llm.ChatOptions{
		Model:       model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to start LLM stream: %w", err)
	}

	format := output.ParseFormat(cfg.Format)
	streaming := format == output.FormatText || format == output.FormatTable
	out := cmd.OutOrStdout()
	if streaming && cfg.Verbose {
		fmt.Fprintf(out, "Sending %d runs (%d lines) to %s\n\n", len(rows), len(entries), model)
	}

	var answer strings.Builder
	for event := range stream {
		if event.Error != nil {
			if answer.Len() > 0 {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			return event.Error
		}
		if streaming {
			fmt.Fprint(out, event.Content)
		}
		answer.WriteString(event.Content)
	}

	if streaming {
		fmt.Fprintln(out)
		return nil
	}

	return newWriter(cmd, cfg).WriteValue(explainResult{
		Files:    files,
		Strategy: strategy.String(),
		Lines:    len(entries),
		Rows:     len(rows),
		Mode:     string(mode),
		Question: question,
		Model:    model,
		Answer:   answer.String(),
	})
}

// explainLabels builds breakdowns for names, or for the most common labels
// when names is empty.
func explainLabels(entries []config.LogEntry, names []string, top int) []analyzer.LabelBreakdown {
	if len(names) == 0 {
		for i, n := range analyzer.LabelNames(entries) {
			if i == defaultExplainLabels {
				break
			}
			names = append(names, n.Name)
		}
	}

	breakdowns := make([]analyzer.LabelBreakdown, 0, len(names))
	for _, name := range names {
		stats := analyzer.LabelStats(entries, name)
		if len(stats) == 0 {
			continue
		}
		breakdowns = append(breakdowns, analyzer.LabelBreakdown{
			Name:  name,
			Stats: analyzer.TopLabelStats(stats, top),
		})
	}
	return breakdowns
}
