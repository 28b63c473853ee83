package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aumatinvert/storefront-api/internal/cron"
	product "github.com/aumatinvert/storefront-api/internal/products"
	"github.com/aumatinvert/storefront-api/internal/promocodes"
	"github.com/aumatinvert/storefront-api/pkg/config"
	"github.com/aumatinvert/storefront-api/pkg/db"
	"github.com/aumatinvert/storefront-api/pkg/instance"
	"github.com/aumatinvert/storefront-api/pkg/logger"
	"github.com/aumatinvert/storefront-api/pkg/metrics"
	"github.com/aumatinvert/storefront-api/pkg/migrate"
	"github.com/aumatinvert/storefront-api/pkg/redis"
	"github.com/aumatinvert/storefront-api/pkg/retry"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("jobs", "", "comma separated job names to run (default: all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	policy := retry.PolicyFromConfig(cfg.Pricing)
	productRepo := product.NewRepository(dbClient.DB())
	promoService, err := promocodes.NewService(promocodes.NewRepository(dbClient.DB()), dbClient, productRepo, policy)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo code service", err)
		os.Exit(1)
	}

	codeJob, err := cron.NewPromoCodeExpiryJob(cron.PromoCodeExpiryJobParams{Logger: logg, Codes: promoService})
	if err != nil {
		logg.Error(context.Background(), "failed to create promo code expiry job", err)
		os.Exit(1)
	}
	promotionJob, err := cron.NewPromotionExpiryJob(cron.PromotionExpiryJobParams{
		Logger:   logg,
		Products: productRepo,
		Grace:    cfg.Cron.PromoGrace,
		Policy:   policy,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion expiry job", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCronJobMetrics(promRegistry)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(codeJob, promotionJob)
	if err == nil {
		registry, err = registry.Only(strings.Split(*only, ",")...)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to build job registry", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "cron cycle completed")
		return
	}

	metricsServer := &http.Server{
		Addr:              cfg.Cron.MetricsListen,
		Handler:           promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "cron metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
