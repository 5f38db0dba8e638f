package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

const (
	defaultPendingTTL   = 72 * time.Hour
	orderExpiryBatch    = 100
	orderExpiryMaxBatch = 20
)

// OrderExpiryJobParams configure the stale pending order sweep.
type OrderExpiryJobParams struct {
	Logger     *logger.Logger
	Orders     pendingOrderCanceller
	PendingTTL time.Duration
}

type pendingOrderCanceller interface {
	CancelStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// NewOrderExpiryJob builds the job that cancels orders left PENDING past the TTL.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders pendingOrderCanceller
	ttl    time.Duration
	now    func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

// Run drains full batches until a short one comes back. A batch with failures
// stops the sweep so the same rows are not retried in a tight loop.
func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	for batch := 0; batch < orderExpiryMaxBatch; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cancelled, err := j.orders.CancelStalePending(ctx, cutoff, orderExpiryBatch)
		total += cancelled
		if err != nil {
			return fmt.Errorf("order expiry: cancelled %d before failing: %w", total, err)
		}
		if cancelled < orderExpiryBatch {
			break
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"orders_canceled": total,
	}), "order expiry sweep complete")
	return nil
}
