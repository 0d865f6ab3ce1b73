package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/config"
	"github.com/platinummonkey/fleetgate/pkg/ingest"
	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/routing"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

// fleetgate-router drains robot status messages from the broker bridge and
// writes validated updates into the store.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	robotStore, err := newStore(cfg.Store)
	if err != nil {
		logger.WithError(err).Error("failed to initialize store")
		os.Exit(1)
	}
	defer robotStore.Close()
	if metrics != nil {
		robotStore = store.NewInstrumentedStore(robotStore, cfg.Store.Type, metrics)
	}

	sink := audit.NewSlogSink(logger)
	router := routing.NewRouter(robotStore, sink, logger, metrics)

	subscriber, err := ingest.NewSubscriber(ingest.Config{
		RedisURL:     cfg.Ingest.RedisURL,
		TopicPattern: cfg.Ingest.TopicPattern,
	}, router, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize subscriber")
		os.Exit(1)
	}
	defer subscriber.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := observability.NewHealthChecker()
	health.AddCheck("store", func(ctx context.Context) error {
		_, err := robotStore.GetRobot(ctx, store.Key{TenantID: "health", RobotID: "probe"})
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})

	healthRouter := mux.NewRouter()
	healthRouter.HandleFunc("/healthz", health.Liveness).Methods("GET")
	healthRouter.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if metrics != nil {
		healthRouter.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	healthSrv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthRouter,
	}
	go func() {
		logger.WithField("port", cfg.Server.HealthPort).Info("health server listening")
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("health server failed")
		}
	}()
	defer healthSrv.Close()

	logger.WithField("pattern", cfg.Ingest.TopicPattern).Info("starting status router")
	if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("subscriber stopped")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newStore(cfg store.Config) (store.Store, error) {
	switch cfg.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(cfg)
	case "dynamodb":
		return store.NewDynamoDBStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
