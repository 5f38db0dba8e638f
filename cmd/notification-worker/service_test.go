package main

import (
	"context"
	"errors"
	"testing"

	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

type consumerFunc func(ctx context.Context) error

func (f consumerFunc) Run(ctx context.Context) error { return f(ctx) }

func ok(context.Context) error { return nil }

func TestRunStopsWhenDependencyIsDown(t *testing.T) {
	ran := false
	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		DB:     ok,
		Redis:  func(context.Context) error { return errors.New("connection refused") },
		PubSub: ok,
		Consumer: consumerFunc(func(context.Context) error {
			ran = true
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
	if ran {
		t.Fatalf("consumer must not start before dependencies are ready")
	}
}

func TestRunReturnsConsumerError(t *testing.T) {
	boom := errors.New("subscription deleted")
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		DB:       ok,
		Redis:    ok,
		PubSub:   ok,
		Consumer: consumerFunc(func(context.Context) error { return boom }),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop(), DB: ok, Redis: ok, PubSub: ok}); err == nil {
		t.Fatalf("expected error without consumer")
	}
}
