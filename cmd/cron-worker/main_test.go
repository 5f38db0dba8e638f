package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanmatch/cleanmatch-backend/internal/cron"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/dbtest"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

func jobNames(registry *cron.Registry) []string {
	names := make([]string, 0, len(registry.Jobs()))
	for _, job := range registry.Jobs() {
		names = append(names, job.Name())
	}
	return names
}

func TestBuildRegistryOrderExpiryFlag(t *testing.T) {
	client, _ := dbtest.Client(t)
	cfg := &config.Config{
		OTP:    config.OTPConfig{TTL: 10 * time.Minute},
		Outbox: config.OutboxConfig{RetentionDays: 30},
		Orders: config.OrdersConfig{PendingTTL: 72 * time.Hour},
	}

	registry, err := buildRegistry(cfg, logger.Nop(), client)
	require.NoError(t, err)
	require.Equal(t, []string{"otp-retention", "outbox-retention"}, jobNames(registry))

	cfg.Orders.ExpiryEnabled = true
	registry, err = buildRegistry(cfg, logger.Nop(), client)
	require.NoError(t, err)
	require.Equal(t, []string{"otp-retention", "outbox-retention", "order-expiry"}, jobNames(registry))
}

func TestLockNameDefaultsToLocal(t *testing.T) {
	require.Equal(t, "cron-worker:local", lockName(""))
	require.Equal(t, "cron-worker:prod", lockName("prod"))
}
