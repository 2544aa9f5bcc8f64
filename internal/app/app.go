package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ordersvc/internal/health"
	"github.com/vladislavdragonenkov/ordersvc/internal/httpapi"
	"github.com/vladislavdragonenkov/ordersvc/internal/metrics"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/catalog"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/idempotency"
	"github.com/vladislavdragonenkov/ordersvc/internal/service/orders"
	"github.com/vladislavdragonenkov/ordersvc/internal/version"
)

// Run поднимает хранилище, HTTP API, сервер метрик, admin gRPC и фоновые воркеры
// и блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	return run(ctx, cfg, prometheus.NewRegistry())
}

func run(ctx context.Context, cfg Config, registry *prometheus.Registry) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without order events")
	}
	defer closeKafkaProducer(producer, logger)

	workflow := orders.NewWorkflow(deps.tx,
		orders.WithLogger(logger.WithField("component", "order-workflow")),
		orders.WithMetrics(metrics.NewOrderMetrics(registry)),
		orders.WithEvents(producer != nil),
	)
	router := httpapi.NewRouter(httpapi.Dependencies{
		Catalog: catalog.NewService(deps.customers, deps.items, logger.WithField("component", "catalog")),
		Orders:  workflow,
		Idempotency: idempotency.NewGuard(deps.idempotencyRepo,
			idempotency.WithTTL(cfg.IdempotencyTTL),
			idempotency.WithGuardLogger(logger.WithField("component", "idempotency")),
		),
		Metrics: metrics.NewHTTPMetrics(registry),
		Logger:  logger.WithField("component", "http"),
	})

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)

	var stops []func()
	defer func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}()

	if producer != nil {
		worker := newOutboxWorker(cfg, deps, producer, metrics.NewOutboxMetrics(registry), logger)
		stops = append(stops, startBackground(ctx, worker.Run))
	}
	cleanup := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
		idempotency.WithMetrics(metrics.NewCleanupMetrics(registry)),
	)
	stops = append(stops, startBackground(ctx, cleanup.Run))

	errCh := make(chan error, 3)

	var admin *adminGRPC
	if cfg.GRPCAddr != "" {
		admin = newAdminGRPC(registry, logger)
		if err := admin.serve(cfg.GRPCAddr, logger, errCh); err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
	}
	defer admin.stop(cfg.ShutdownTimeout, logger)

	metricsSrv, err := serveHTTP(cfg.MetricsAddr, "metrics", metricsHandler(registry, healthHandler), logger, errCh)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	defer shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)

	apiSrv, err := serveHTTP(cfg.HTTPAddr, "http", router, logger, errCh)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}

	logger.WithField("build", version.String()).Info("ordersvc started")

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		return fmt.Errorf("server failed: %w", err)
	}
}
