package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aluiziolira/go-scrape-creds/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credscraper",
		Short: "Scrape and normalize default router credentials",
		Long: `credscraper crawls the vendor, model and credential pages of
192-168-1-1-ip.co and turns the captured rows into a data module.

The scrape stage writes one JSON object per line to the intermediate file.
The normalize stage reads that file and emits the final artifact.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "YAML config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewNormalizeCmd())
	cmd.AddCommand(NewRunCmd())

	return cmd
}

func addScrapeFlags(fs *pflag.FlagSet) {
	def := config.DefaultConfig()
	fs.String("manufacturers", def.ManufacturersPath, "Tab-separated manufacturer list")
	fs.String("intermediate", def.IntermediatePath, "Intermediate JSONL file")
	fs.String("endpoint", def.EndpointURL, "Ajax endpoint URL")
	fs.String("user-agent", def.UserAgent, "User-Agent header")
	fs.Duration("timeout", def.Timeout, "Request timeout")
	fs.Duration("delay", def.Delay, "Pause before each request")
	fs.Int("max-retries", def.MaxRetries, "Maximum retry attempts per request")
	fs.Duration("retry-backoff", def.RetryBackoff, "Initial retry backoff")
	fs.Duration("retry-backoff-max", def.RetryBackoffMax, "Maximum retry backoff")
	fs.Int("cache-size", def.CacheSize, "Credential cache entries (0 disables)")
	fs.Bool("append", def.AppendIntermediate, "Append to the intermediate file instead of truncating it")
	fs.String("metrics-addr", def.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
}

func addNormalizeFlags(fs *pflag.FlagSet) {
	def := config.DefaultConfig()
	if fs.Lookup("intermediate") == nil {
		fs.String("intermediate", def.IntermediatePath, "Intermediate JSONL file")
	}
	fs.String("output", def.OutputPath, "Output file path")
	fs.String("format", def.OutputFormat, "Output format: js, json, or dual")
	fs.String("reference-base", def.ReferenceBaseURL, "Base URL for relative reference links")
}

// loadConfig layers defaults, the YAML file, CREDSCRAPER_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	fs := cmd.Flags()
	setString := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	setString("manufacturers", &cfg.ManufacturersPath)
	setString("intermediate", &cfg.IntermediatePath)
	setString("endpoint", &cfg.EndpointURL)
	setString("user-agent", &cfg.UserAgent)
	setString("metrics-addr", &cfg.MetricsAddr)
	setString("output", &cfg.OutputPath)
	setString("format", &cfg.OutputFormat)
	setString("reference-base", &cfg.ReferenceBaseURL)
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)

	if fs.Changed("timeout") {
		cfg.Timeout, _ = fs.GetDuration("timeout")
	}
	if fs.Changed("delay") {
		cfg.Delay, _ = fs.GetDuration("delay")
	}
	if fs.Changed("retry-backoff") {
		cfg.RetryBackoff, _ = fs.GetDuration("retry-backoff")
	}
	if fs.Changed("retry-backoff-max") {
		cfg.RetryBackoffMax, _ = fs.GetDuration("retry-backoff-max")
	}
	if fs.Changed("max-retries") {
		cfg.MaxRetries, _ = fs.GetInt("max-retries")
	}
	if fs.Changed("cache-size") {
		cfg.CacheSize, _ = fs.GetInt("cache-size")
	}
	if fs.Changed("append") {
		cfg.AppendIntermediate, _ = fs.GetBool("append")
	}
	if fs.Changed("verbose") {
		cfg.Verbose, _ = fs.GetBool("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
