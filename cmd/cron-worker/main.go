package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/cron"
	"github.com/cleanmatch/cleanmatch-backend/internal/orders"
	"github.com/cleanmatch/cleanmatch-backend/internal/otp"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/instance"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/metrics"
	"github.com/cleanmatch/cleanmatch-backend/pkg/migrate"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
	"github.com/cleanmatch/cleanmatch-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
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

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceName,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	conn := dbClient.DB()

	otpJob, err := cron.NewOTPRetentionJob(cron.OTPRetentionJobParams{
		Logger:     logg,
		Repository: otp.NewRepository(conn),
		Retention:  cfg.OTP.Retention(),
	})
	if err != nil {
		return nil, err
	}

	outboxJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(conn),
		Retention:  cfg.Outbox.RetentionDays,
	})
	if err != nil {
		return nil, err
	}

	if !cfg.Orders.ExpiryEnabled {
		logg.Info(context.Background(), "order expiry disabled; pending orders are kept")
		return cron.NewRegistry(otpJob, outboxJob), nil
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(conn),
		Tx:     dbClient,
		Outbox: outbox.NewService(outbox.NewRepository(conn), logg),
		Policy: authz.NewPolicy(cfg.JWT.Required),
		Config: cfg.Orders,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	expiryJob, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:     logg,
		Orders:     orderService,
		PendingTTL: cfg.Orders.PendingTTL,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(otpJob, outboxJob, expiryJob), nil
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return serviceName + ":" + env
}
