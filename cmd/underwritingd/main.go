package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/lendermatch/underwriting-service/internal/application/usecase"
	"github.com/lendermatch/underwriting-service/internal/domain/service"
	"github.com/lendermatch/underwriting-service/internal/infrastructure/config"
	"github.com/lendermatch/underwriting-service/internal/infrastructure/messaging"
	pgrepo "github.com/lendermatch/underwriting-service/internal/infrastructure/persistence/postgres"
	"github.com/lendermatch/underwriting-service/internal/presentation/rest"
	pkgkafka "github.com/lendermatch/underwriting-service/pkg/kafka"
	"github.com/lendermatch/underwriting-service/pkg/observability"
	pkgpostgres "github.com/lendermatch/underwriting-service/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	cfg.Validate()

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting underwriting-service", "http_port", cfg.HTTPPort)

	// Tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(ctx) }() //nolint:errcheck // best-effort tracer shutdown
	}

	// Metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	otel.SetMeterProvider(meterProvider)

	// Database.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	dbCfg := pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
	}
	pool, err := pkgpostgres.NewPool(dbCtx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if migErr := pkgpostgres.RunMigrations(dbCfg.DSN(), "file://internal/infrastructure/persistence/postgres/migrations"); migErr != nil {
		logger.Warn("migration warning", "error", migErr)
	}

	// Infrastructure adapters.
	appRepo := pgrepo.NewApplicationRepo(pool)
	policyRepo := pgrepo.NewPolicyRepo(pool)
	runRepo := pgrepo.NewRunRepo(pool)

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.Config{Brokers: cfg.Kafka.Brokers})
	defer kafkaProducer.Close()
	publisher := messaging.NewKafkaEventPublisher(kafkaProducer, messaging.DefaultTopic, logger)

	// Decision engine.
	criteria := service.NewCriteriaEvaluator()
	scorer := service.NewFitScorer()
	programs := service.NewProgramEvaluator(criteria, scorer)
	lenders := service.NewLenderEvaluator(programs)
	engine := service.NewMatchEngine(lenders, logger, cfg.WorkerCap)

	// Use cases.
	active := usecase.NewActiveRuns()
	submitAppUC := usecase.NewSubmitApplicationUseCase(appRepo, publisher)
	getAppUC := usecase.NewGetApplicationUseCase(appRepo)
	savePolicyUC := usecase.NewSavePolicyUseCase(policyRepo)
	listPoliciesUC := usecase.NewListPoliciesUseCase(policyRepo)
	startRunUC := usecase.NewStartUnderwritingRunUseCase(
		appRepo, policyRepo, runRepo, publisher, engine, active, logger,
	)
	cancelRunUC := usecase.NewCancelUnderwritingRunUseCase(active, logger)
	getRunUC := usecase.NewGetRunUseCase(runRepo)

	// HTTP server.
	mux := http.NewServeMux()
	rest.NewHealthHandler(pool, logger).RegisterRoutes(mux)
	rest.NewApplicationHandler(submitAppUC, getAppUC, logger).RegisterRoutes(mux)
	rest.NewPolicyHandler(savePolicyUC, listPoliciesUC, logger).RegisterRoutes(mux)
	rest.NewUnderwritingHandler(startRunUC, cancelRunUC, getRunUC, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("underwriting-service stopped")
}
