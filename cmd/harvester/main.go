package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/Belphemur/EpisodeHarvester/internal/client"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/harvest"
	"github.com/Belphemur/EpisodeHarvester/internal/metrics"
)

var (
	configFile string
	rootCmd    = &cobra.Command{
		Use:   "harvester",
		Short: "Download the latest episodes of the anime catalog",
		Long: `Scans the catalog listing, resolves every entry down to its latest episode,
downloads its thumbnail and video, and writes one report ordered by listing position.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (default ./config.yaml or ./config/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := config.GetLogger()
		logger.Error().Err(err).Msg("Harvest failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	config.ConfigureLogger(cfg.LogLevel)
	logger := config.GetLogger()

	logger.Info().
		Str("catalog_url", cfg.CatalogURL).
		Int("max_items", cfg.MaxItems).
		Int("workers", cfg.Workers).
		Str("output_dir", cfg.OutputDir).
		Str("report_format", cfg.Report.Format).
		Str("cache", cfg.Cache.Type).
		Msg("Application started with configuration")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialise Sentry, crash reporting disabled")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	// nil unless the cache backend is external; worker sessions build local caches themselves.
	pages, err := client.NewSharedPageCache(cfg)
	if err != nil {
		return err
	}
	if pages != nil {
		defer func() {
			if err := pages.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close page cache")
			}
		}()
	}

	// Handle graceful shutdown: in-flight items stop, finished ones are still reported.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := harvest.New(cfg, harvest.WithPageCache(pages)).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", summary.RunID).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Str("report", summary.ReportPath).
		Msg("Harvest finished")
	return nil
}
