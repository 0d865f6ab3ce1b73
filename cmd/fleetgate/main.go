package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/fleetgate/pkg/api"
	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/authz"
	"github.com/platinummonkey/fleetgate/pkg/config"
	"github.com/platinummonkey/fleetgate/pkg/edge"
	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/resolver"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

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

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		logger.WithError(err).Error("failed to initialize token verifier")
		os.Exit(1)
	}

	sink := audit.NewSlogSink(logger)
	dispatcher := resolver.NewDispatcher(authz.NewModel(authz.DefaultConfig()), robotStore, sink, metrics)

	server, err := api.NewServer(dispatcher, api.Options{
		Verifier:   verifier,
		EdgeFilter: edge.NewFilter(auth.NewCodec()),
		Audit:      sink,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize server")
		os.Exit(1)
	}

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

	healthSrv := newHealthServer(cfg.Server, health, metrics)
	go func() {
		logger.WithField("port", cfg.Server.HealthPort).Info("health server listening")
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("health server failed")
		}
	}()

	apiSrv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		logger.WithField("addr", apiSrv.Addr).Info("fleet API listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("api server shutdown incomplete")
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("health server shutdown incomplete")
	}
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

func newVerifier(cfg config.AuthConfig) (auth.ClaimsVerifier, error) {
	switch cfg.Mode {
	case "none":
		return auth.NewCodecVerifier(auth.NewCodec()), nil
	case "rs256":
		pem, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		return auth.NewJWTVerifier(key, cfg.Issuer, cfg.Audience), nil
	case "oidc":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return auth.NewOIDCVerifier(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

func newHealthServer(cfg config.ServerConfig, health *observability.HealthChecker, metrics *observability.Metrics) *http.Server {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", health.Liveness).Methods("GET")
	router.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	return &http.Server{
		Addr:    cfg.Host + ":" + cfg.HealthPort,
		Handler: router,
	}
}
