package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

const defaultOTPRetention = 7 * 24 * time.Hour

type OTPRetentionJobParams struct {
	Logger     *logger.Logger
	Repository otpPurger
	Retention  time.Duration
}

type otpPurger interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOTPRetentionJob deletes verification codes issued before now minus retention,
// whether or not they were used.
func NewOTPRetentionJob(params OTPRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOTPRetention
	}
	return &otpRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type otpRetentionJob struct {
	logg      *logger.Logger
	repo      otpPurger
	retention time.Duration
	now       func() time.Time
}

func (j *otpRetentionJob) Name() string { return "otp-retention" }

func (j *otpRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("otp retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "otp retention cleanup complete")
	return nil
}
