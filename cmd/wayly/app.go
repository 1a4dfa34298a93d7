package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/wayly/internal/config"
	"github.com/UnknownOlympus/wayly/internal/directions"
	"github.com/UnknownOlympus/wayly/internal/geocoding"
	"github.com/UnknownOlympus/wayly/internal/metrics"
	"github.com/UnknownOlympus/wayly/internal/poi"
	"github.com/UnknownOlympus/wayly/internal/repository"
	"github.com/UnknownOlympus/wayly/internal/resolver"
	"github.com/UnknownOlympus/wayly/internal/service"
	"github.com/UnknownOlympus/wayly/internal/session"
	"github.com/UnknownOlympus/wayly/internal/waypoints"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds every wired component of one process.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
	dtb      *pgxpool.Pool // nil when the geocode cache is disabled
	provider geocoding.Provider
	presets  resolver.Presets
	catalog  *poi.Client // nil when no catalog endpoint is configured
	routes   *service.RouteService
}

// newApp loads the configuration and wires the components.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.Type),
		APIKey:    cfg.Geocoder.APIKey,
		Country:   cfg.Geocoder.Country,
		RateLimit: cfg.Geocoder.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}

	var dtb *pgxpool.Pool
	if cfg.Database.Enabled() {
		dtb, err = repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}

		repo := repository.NewRepository(dtb, logger)
		if err = repo.EnsureSchema(ctx); err != nil {
			dtb.Close()
			return nil, err
		}

		provider = geocoding.NewCachedProvider(provider, repo, cfg.Geocoder.Country, appMetrics.GeocodeCacheHits, logger)
		logger.InfoContext(ctx, "Geocode cache enabled", "host", cfg.Database.Host)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Geocoder.Type)

	presets := resolver.DefaultPresets()
	if cfg.PresetsFile != "" {
		presets, err = resolver.LoadPresets(cfg.PresetsFile, presets)
		if err != nil {
			return nil, err
		}
	}

	res := resolver.New(presets, provider, cfg.Geocoder.Type, appMetrics.GeocodeSeconds, logger)
	router := directions.NewClient(cfg.Routes.Endpoint, cfg.Routes.APIKey, cfg.Routes.Timeout, logger)
	store := waypoints.NewStore()
	controller := session.NewController(res, router, store, session.Options{
		Throttle:      cfg.Session.Throttle,
		MinSeparation: cfg.Session.MinSeparation,
		UserID:        cfg.Routes.UserID,
		Metrics:       appMetrics,
	}, logger)

	var (
		catalog     *poi.Client
		catalogPort service.Catalog
	)
	if cfg.POI.Endpoint != "" {
		catalog = poi.NewClient(cfg.POI.Endpoint, cfg.POI.Token, logger)
		catalogPort = catalog
	}

	return &app{
		cfg:      cfg,
		log:      logger,
		reg:      reg,
		metrics:  appMetrics,
		dtb:      dtb,
		provider: provider,
		presets:  presets,
		catalog:  catalog,
		routes:   service.NewRouteService(logger, store, controller, catalogPort, cfg.POI.Limit),
	}, nil
}

func (a *app) Close() {
	if a.dtb != nil {
		a.dtb.Close()
	}
}
