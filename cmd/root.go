package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/output"
	"github.com/bimmerbailey/quell/internal/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quell",
	Short: "Collapse repeated log lines and summarize label values",
	Long: `Quell reduces the noise in log output.

It collapses runs of adjacent repeated lines into a single line with a
repeat count, and reports how the values of a label are distributed across
a set of entries.

Examples:
  quell dedup --strategy numbers /var/log/app.log
  quell labels --label service app.log
  quell stats --strategy signature app.log
  quell tail --strategy exact /var/log/app.log`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quell.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".quell")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("QUELL")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func setDefaults() {
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("no_color", false)
	viper.SetDefault("timestamp_formats", parser.DefaultTimestampFormats)
	viper.SetDefault("dedup.strategy", "exact")
	viper.SetDefault("labels.top", 10)
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 0)
	viper.SetDefault("llm.max_rows", 50)
	viper.SetDefault("llm.ollama.host", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.2")
}

// loadConfig returns the typed view of the current viper state.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a stderr logger that only shows errors unless verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newWriter builds an output writer for cmd honoring the format and color
// settings.
func newWriter(cmd *cobra.Command, cfg *config.Config) *output.Writer {
	mode := output.ColorAuto
	if cfg.NoColor {
		mode = output.ColorNever
	}
	return output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format)).WithColor(mode)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
