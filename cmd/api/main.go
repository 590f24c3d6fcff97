package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/georgemunganga/supplier-onboarding/internal/config"
	"github.com/georgemunganga/supplier-onboarding/internal/logging"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/notify"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payer"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payment"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/review"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/servicearea"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Service)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	// ── Catalog queue ───────────────────────────────────────
	var queue catalog.Queue
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		queue = catalog.NewRedisQueue(rdb, cfg.Redis.QueueKey)
		logger.Info("catalog queue on redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		queue = catalog.NewMemoryQueue(64)
		logger.Info("catalog queue in process")
	}

	steps := supplier.DefaultSteps()
	if cfg.Onboarding.StepsFile != "" {
		if steps, err = supplier.LoadStepsFile(cfg.Onboarding.StepsFile); err != nil {
			return err
		}
	}

	// ── Services ────────────────────────────────────────────
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	notifier := notify.NewLogNotifier(logger)

	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo, queue, catalog.NewSpreadsheetProcessor(), cfg.Catalog.UploadDir, logger)

	payerService := payer.NewService(payer.NewPostgresRepository(db), catalogRepo)
	areaService := servicearea.NewService(servicearea.NewPostgresRepository(db))

	supplierRepo := supplier.NewPostgresRepository(db)
	children := supplier.NewChildLoader(catalogService, payerService, areaService)
	supplierService := supplier.NewService(supplierRepo, children, steps, issuer, notifier, logger)

	gateway := payment.NewStripeGateway(cfg.Stripe.BaseURL, cfg.Stripe.SecretKey)
	paymentService := payment.NewService(supplierRepo, gateway, payment.Options{
		FrontendURL:   cfg.Stripe.FrontendURL,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, logger)
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set; webhook signatures are not verified")
	}

	reviewService := review.NewService(supplierRepo, children, supplierService, notifier, cfg.Stripe.FrontendURL, logger)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	requireSupplier := auth.RequireSupplier(issuer)
	supplier.NewHandler(supplierService, issuer).RegisterRoutes(router, requireSupplier)
	catalog.NewHandler(catalogService).RegisterRoutes(router, requireSupplier)
	payer.NewHandler(payerService).RegisterRoutes(router, requireSupplier)
	servicearea.NewHandler(areaService).RegisterRoutes(router, requireSupplier)
	payment.NewHandler(paymentService).RegisterRoutes(router, requireSupplier)
	review.NewHandler(reviewService).RegisterRoutes(router, auth.AdminGuard(cfg.Auth.AdminPasswordHash))

	// ── Workers ─────────────────────────────────────────────
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		catalog.RunPool(ctx, cfg.Catalog.Workers, queue, catalogService, logger)
	}()

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: router}
	errc := make(chan error, 1)
	go func() {
		logger.Info("supplier onboarding API starting", zap.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	wg.Wait()
	return err
}
