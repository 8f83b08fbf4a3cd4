package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appCatalog "github.com/alxiri/fulfillment/internal/application/catalog"
	appOrder "github.com/alxiri/fulfillment/internal/application/order"
	appReceipt "github.com/alxiri/fulfillment/internal/application/receipt"
	"github.com/alxiri/fulfillment/internal/config"
	"github.com/alxiri/fulfillment/internal/domain/rbac"
	"github.com/alxiri/fulfillment/internal/infrastructure/memory"
	"github.com/alxiri/fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/alxiri/fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/alxiri/fulfillment/internal/infrastructure/observability/telemetry"
	"github.com/alxiri/fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/alxiri/fulfillment/internal/infrastructure/outbox"
	receiptworker "github.com/alxiri/fulfillment/internal/infrastructure/receipt/worker"
	"github.com/alxiri/fulfillment/internal/infrastructure/token"
	"github.com/alxiri/fulfillment/internal/observability"
	"github.com/alxiri/fulfillment/internal/pkg/logging"
	httppresentation "github.com/alxiri/fulfillment/internal/presentation/http"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	obsLogger := zaplogger.Wrap(baseLogger)

	metrics := prometrics.New(prometheus.DefaultRegisterer)
	counters := map[string]observability.Counter{
		observability.MUsecaseRequests: metrics.Counter(
			observability.MUsecaseRequests,
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: metrics.Counter(
			observability.MHTTPRequests,
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MOrdersPlaced: metrics.Counter(
			observability.MOrdersPlaced,
			"Count of successfully placed orders.",
			"product",
		),
		observability.MOrderStageTransitions: metrics.Counter(
			observability.MOrderStageTransitions,
			"Count of order stage transitions.",
			"from", "to",
		),
		observability.MEventPublishFailures: metrics.Counter(
			observability.MEventPublishFailures,
			"Count of lifecycle event publish failures.",
			"event",
		),
	}
	histograms := map[string]observability.Histogram{
		observability.MUsecaseDuration: metrics.Histogram(
			observability.MUsecaseDuration,
			"Duration of use case execution in seconds.",
			nil,
			"use_case",
		),
		observability.MHTTPRequestDuration: metrics.Histogram(
			observability.MHTTPRequestDuration,
			"Duration of HTTP request handling in seconds.",
			nil,
			"method", "route", "status",
		),
	}
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), obsLogger, counters, histograms)

	catalogRepo := memory.NewCatalogRepository()
	orderRepo := memory.NewOrderRepository()
	receiptRepo := memory.NewReceiptStore()
	catalogAuth := memory.NewRoleStore()
	orderAuth := memory.NewRoleStore()
	coin := token.New()

	bus := outbox.NewBus(obsLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	catalogService := appCatalog.NewService(catalogRepo, catalogAuth)
	orderService := appOrder.NewService(orderRepo, catalogService, coin, orderAuth, bus, tel, cfg.TreasuryAccount)
	receiptService := appReceipt.NewService(receiptRepo, bus)

	receiptWorker := receiptworker.New(bus, receiptService)
	receiptWorker.Start()

	if cfg.SeedCatalog {
		seedCatalog(context.Background(), cfg, catalogService, catalogAuth, systemLogger)
	}

	handler := httppresentation.NewHandler(
		catalogService,
		orderService,
		receiptService,
		coin,
		catalogAuth,
		orderAuth,
		cfg.AdminAccount,
		obsLogger,
		tel,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

// seedCatalog grants the admin and the engine identity PRODUCT on the catalog
// and registers the initial product list.
func seedCatalog(ctx context.Context, cfg config.Config, svc *appCatalog.Service, auth rbac.Authorizer, logger *zap.Logger) {
	if err := auth.Grant(ctx, rbac.RoleProduct, cfg.AdminAccount); err != nil {
		logger.Error("seed_grant_failed", zap.Error(err))
		return
	}
	if err := auth.Grant(ctx, rbac.RoleProduct, cfg.TreasuryAccount); err != nil {
		logger.Error("seed_grant_failed", zap.Error(err))
		return
	}

	seed := []appCatalog.RegisterInput{
		{Name: "polo_manga_larga", Description: "polos de algodon de diferentes colores", Total: 2000, Price: 1},
		{Name: "pijamas", Description: "pijamas de algodon", Total: 5000, Price: 3},
		{Name: "sabanas", Description: "diversos colores y 200 hilos", Total: 3500, Price: 5},
	}
	for _, input := range seed {
		if _, err := svc.Register(ctx, cfg.AdminAccount, input); err != nil {
			logger.Warn("seed_register_failed", zap.String("name", input.Name), zap.Error(err))
			continue
		}
		logger.Info("seed_product_registered", zap.String("name", input.Name))
	}
}
