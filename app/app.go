// Package app wires the scorekeeper backend together: database, event bus,
// services, and the HTTP surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"github.com/fairway-collective/scorekeeper/api"
	"github.com/fairway-collective/scorekeeper/api/handlers"
	"github.com/fairway-collective/scorekeeper/app/eventbus"
	handicapservice "github.com/fairway-collective/scorekeeper/app/modules/handicap/application"
	roundservice "github.com/fairway-collective/scorekeeper/app/modules/round/application"
	"github.com/fairway-collective/scorekeeper/app/shared/attr"
	"github.com/fairway-collective/scorekeeper/app/shared/metrics"
	"github.com/fairway-collective/scorekeeper/config"
	"github.com/fairway-collective/scorekeeper/db/bundb"
)

// App holds the assembled backend.
type App struct {
	Cfg             *config.Config
	Logger          *slog.Logger
	EventBus        eventbus.EventBus
	RoundService    roundservice.Service
	HandicapService handicapservice.Service
	Registry        *prometheus.Registry

	db            *bundb.DBService
	httpServer    *http.Server
	metricsServer *http.Server
}

// NewApp initializes the application with the necessary services.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(registry)

	tracer := otel.Tracer("scorekeeper")

	handicapSvc := handicapservice.NewHandicapService(dbService.HandicapDB, logger)
	roundSvc := roundservice.NewRoundService(
		dbService.RoundDB,
		handicapSvc,
		bus,
		logger,
		recorder,
		tracer,
		dbService.GetDB(),
	)

	rh := handlers.NewRoundHandlers(roundSvc, logger)

	a := &App{
		Cfg:             cfg,
		Logger:          logger,
		EventBus:        bus,
		RoundService:    roundSvc,
		HandicapService: handicapSvc,
		Registry:        registry,
		db:              dbService,
	}
	a.httpServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(rh, cfg.HTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.metricsServer = &http.Server{
		Addr:              cfg.Observability.MetricsAddress,
		Handler:           api.NewMetricsHandler(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// DB returns the database service.
func (a *App) DB() *bundb.DBService {
	return a.db
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.Logger.Info("api server listening", attr.String("address", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		a.Logger.Info("metrics server listening", attr.String("address", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("api server shutdown", attr.Error(err))
	}
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("metrics server shutdown", attr.Error(err))
	}
	return nil
}

// Close releases the event bus and database connections.
func (a *App) Close() {
	if a.EventBus != nil {
		if err := a.EventBus.Close(); err != nil {
			a.Logger.Error("error closing event bus", attr.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.GetDB().Close(); err != nil {
			a.Logger.Error("error closing database connection", attr.Error(err))
		}
	}
}
