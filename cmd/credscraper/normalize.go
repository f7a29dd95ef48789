package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-creds/config"
	"github.com/aluiziolira/go-scrape-creds/normalize"
	"github.com/aluiziolira/go-scrape-creds/pipeline"
	"github.com/spf13/cobra"
)

// NewNormalizeCmd creates the normalize command.
func NewNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Turn the intermediate file into the data module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runNormalize(ctx, cfg, cmd.OutOrStdout())
		},
	}
	addNormalizeFlags(cmd.Flags())
	return cmd
}

func runNormalize(ctx context.Context, cfg *config.Config, out io.Writer) error {
	in, err := os.Open(cfg.IntermediatePath)
	if err != nil {
		return fmt.Errorf("open intermediate file: %w", err)
	}
	defer in.Close()

	start := time.Now()
	p := pipeline.NewPipeline(nil, normalize.New(cfg.ReferenceBaseURL, slog.Default()))
	rows, err := p.Normalize(ctx, in)
	if err != nil {
		return fmt.Errorf("normalize failed: %w", err)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	if err := writer.Write(rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	printNormalizeSummary(out, len(rows), p.GetMetrics(), time.Since(start), cfg.OutputPath)
	return nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "js":
		return pipeline.NewModuleWriter(filename)
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".js") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printNormalizeSummary(w io.Writer, rows int, metrics map[string]interface{}, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Normalize complete")
	fmt.Fprintf(w, "  Rows:          %d\n", rows)
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Fprintf(w, "  Skipped:       %v\n", valErrors)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration)
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}
