package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/enterate/incident-etl/internal/adapter/geocache"
	"github.com/enterate/incident-etl/internal/adapter/httpadapter"
	"github.com/enterate/incident-etl/internal/adapter/nominatim"
	"github.com/enterate/incident-etl/internal/config"
	"github.com/enterate/incident-etl/internal/domain"
	"github.com/enterate/incident-etl/internal/observability"
	"github.com/enterate/incident-etl/internal/pipeline"
	"github.com/enterate/incident-etl/internal/source"
	"github.com/enterate/incident-etl/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	var rawDir string

	cmd := &cobra.Command{
		Use:           "etl",
		Short:         "Transform raw municipal incident feeds into curated partitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			if rawDir != "" {
				cfg.RawDir = rawDir
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&rawDir, "root", "", "raw data root (overrides config)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	opts := source.Options{City: cfg.City, Country: cfg.Country, Box: cfg.Box}

	// Geocoding is feature-flagged; with it disabled, records keep whatever
	// geolocation their source provided.
	var geocoder domain.Geocoder
	var cache *geocache.Store
	if cfg.GeocodeEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
			logger.Error("failed to create cache directory", "error", err)
			return err
		}
		var err error
		cache, err = geocache.Open(cfg.CachePath)
		if err != nil {
			logger.Error("failed to open geocode cache", "error", err)
			return err
		}
		defer cache.Close()

		client := nominatim.New(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent,
			cfg.GeocodeTimeout, cfg.GeocodeInterval, logger)
		geocoder = geocache.NewCachedGeocoder(client, cache, metrics, logger)
		logger.Info("geocoding enabled", "cache", cfg.CachePath, "interval", cfg.GeocodeInterval)
	} else {
		logger.Info("geocoding disabled")
	}

	store := storage.New(cfg.CuratedDir)
	p := pipeline.New(source.Registry(opts), store, geocoder, opts, cfg.Location(), logger, metrics)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx, cfg.RawDir)
	if runErr != nil {
		logger.Error("transform run failed", "error", runErr)
	}

	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	return runErr
}
