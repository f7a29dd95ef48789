package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-creds/config"
	"github.com/aluiziolira/go-scrape-creds/models"
	"github.com/aluiziolira/go-scrape-creds/parser"
	"github.com/aluiziolira/go-scrape-creds/pipeline"
	"github.com/aluiziolira/go-scrape-creds/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl manufacturers, models and credentials into the intermediate file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := runScrape(ctx, cfg)
			if result != nil {
				printScrapeSummary(cmd.OutOrStdout(), result, cfg.IntermediatePath)
			}
			return err
		},
	}
	addScrapeFlags(cmd.Flags())
	return cmd
}

func runScrape(ctx context.Context, cfg *config.Config) (*models.ScrapeResult, error) {
	manufacturers, err := parser.LoadManufacturersFile(cfg.ManufacturersPath)
	if err != nil {
		return nil, fmt.Errorf("load manufacturers: %w", err)
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialising scraper: %w", err)
	}

	writer, err := pipeline.NewJSONLWriter(cfg.IntermediatePath, cfg.AppendIntermediate)
	if err != nil {
		return nil, fmt.Errorf("creating intermediate writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close intermediate writer", slog.Any("error", err))
		}
	}()

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("starting scrape",
		slog.String("endpoint", cfg.EndpointURL),
		slog.Int("manufacturers", len(manufacturers)),
		slog.String("intermediate", cfg.IntermediatePath),
	)

	result, err := s.Run(ctx, manufacturers, writer)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("scrape interrupted, intermediate file holds the rows written so far")
		}
		return result, fmt.Errorf("scraping failed: %w", err)
	}
	return result, nil
}

func printScrapeSummary(w io.Writer, result *models.ScrapeResult, intermediatePath string) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Scrape complete")
	fmt.Fprintf(w, "  Manufacturers: %d\n", result.ManufacturerCount)
	fmt.Fprintf(w, "  Models:        %d\n", result.ModelCount)
	fmt.Fprintf(w, "  Rows written:  %d\n", result.RowCount)
	fmt.Fprintf(w, "  No creds:      %d\n", result.MissingCredentials)
	fmt.Fprintf(w, "  Requests:      %d\n", result.RequestCount)
	fmt.Fprintf(w, "  Errors:        %d\n", result.ErrorCount)
	fmt.Fprintf(w, "  Retries:       %d\n", result.RetryCount)
	fmt.Fprintf(w, "  Cache hits:    %d\n", result.CacheHits)
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(w, "  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Fprintf(w, "  Output file:   %s\n", intermediatePath)
	fmt.Fprintln(w, separator)
}
