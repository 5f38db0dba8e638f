package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

type fakeOTPPurger struct {
	cutoff time.Time
	err    error
}

func (f *fakeOTPPurger) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestOTPRetentionJobCutoff(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		retention time.Duration
		want      time.Time
	}{
		{name: "configured", retention: 48 * time.Hour, want: now.Add(-48 * time.Hour)},
		{name: "default", retention: 0, want: now.Add(-defaultOTPRetention)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeOTPPurger{}
			job, err := NewOTPRetentionJob(OTPRetentionJobParams{Logger: logger.Nop(), Repository: repo, Retention: tc.retention})
			if err != nil {
				t.Fatalf("NewOTPRetentionJob: %v", err)
			}
			job.(*otpRetentionJob).now = func() time.Time { return now }
			if err := job.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !repo.cutoff.Equal(tc.want) {
				t.Fatalf("expected cutoff %s, got %s", tc.want, repo.cutoff)
			}
		})
	}
}

func TestOTPRetentionJobPropagatesError(t *testing.T) {
	job, err := NewOTPRetentionJob(OTPRetentionJobParams{Logger: logger.Nop(), Repository: &fakeOTPPurger{err: errors.New("boom")}})
	if err != nil {
		t.Fatalf("NewOTPRetentionJob: %v", err)
	}
	if job.Name() != "otp-retention" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
