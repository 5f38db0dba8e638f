package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
)

type stubService struct {
	created  []payloads.OrderCreatedEvent
	changed  []payloads.OrderStatusChangedEvent
	reviewed []payloads.ReviewCreatedEvent
	err      error
}

func (s *stubService) OrderCreated(_ context.Context, event payloads.OrderCreatedEvent) error {
	s.created = append(s.created, event)
	return s.err
}

func (s *stubService) OrderStatusChanged(_ context.Context, event payloads.OrderStatusChangedEvent) error {
	s.changed = append(s.changed, event)
	return s.err
}

func (s *stubService) ReviewCreated(_ context.Context, event payloads.ReviewCreatedEvent) error {
	s.reviewed = append(s.reviewed, event)
	return s.err
}

type memoryGuard struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
	err     error
}

func (g *memoryGuard) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen == nil {
		g.seen = map[uuid.UUID]bool{}
	}
	already := g.seen[eventID]
	g.seen[eventID] = true
	return already, nil
}

func (g *memoryGuard) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	delete(g.seen, eventID)
	g.deleted = append(g.deleted, eventID)
	return nil
}

func newTestConsumer(svc Service, guard idempotencyGuard) *Consumer {
	return &Consumer{service: svc, idempotency: guard, logg: logger.Nop()}
}

func envelope(t *testing.T, eventID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: eventID, OccurredAt: time.Now(), Data: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestProcessDispatchesOnceForDuplicateDelivery(t *testing.T) {
	svc := &stubService{}
	consumer := newTestConsumer(svc, &memoryGuard{})
	eventID := uuid.NewString()
	data := envelope(t, eventID, payloads.OrderCreatedEvent{OrderID: uuid.New(), ShopID: uuid.New()})
	attrs := map[string]string{"event_type": "order_created"}

	for i := 0; i < 2; i++ {
		if result := consumer.process(context.Background(), "m1", attrs, data); result.nack {
			t.Fatalf("delivery %d nacked", i)
		}
	}
	if len(svc.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(svc.created))
	}
}

func TestProcessRoutesByEventType(t *testing.T) {
	svc := &stubService{}
	consumer := newTestConsumer(svc, &memoryGuard{})
	ctx := context.Background()

	consumer.process(ctx, "m1", map[string]string{"event_type": "order_status_changed"}, envelope(t, uuid.NewString(), payloads.OrderStatusChangedEvent{To: "ACCEPTED"}))
	consumer.process(ctx, "m2", map[string]string{"event_type": "review_created"}, envelope(t, uuid.NewString(), payloads.ReviewCreatedEvent{Rating: 5}))
	consumer.process(ctx, "m3", map[string]string{"event_type": "shop_upserted"}, envelope(t, uuid.NewString(), payloads.ShopUpsertedEvent{}))

	if len(svc.changed) != 1 || svc.changed[0].To != "ACCEPTED" {
		t.Fatalf("status change not routed: %+v", svc.changed)
	}
	if len(svc.reviewed) != 1 || svc.reviewed[0].Rating != 5 {
		t.Fatalf("review not routed: %+v", svc.reviewed)
	}
	if len(svc.created) != 0 {
		t.Fatalf("unexpected order notification")
	}
}

func TestProcessFailureClearsMarkerAndNacks(t *testing.T) {
	svc := &stubService{err: errors.New("smtp down")}
	guard := &memoryGuard{}
	consumer := newTestConsumer(svc, guard)
	eventID := uuid.New()

	result := consumer.process(context.Background(), "m1", map[string]string{"event_type": "review_created"}, envelope(t, eventID.String(), payloads.ReviewCreatedEvent{}))
	if !result.nack {
		t.Fatalf("expected nack on handler failure")
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != eventID {
		t.Fatalf("expected marker cleared, got %v", guard.deleted)
	}

	svc.err = nil
	if result := consumer.process(context.Background(), "m1", map[string]string{"event_type": "review_created"}, envelope(t, eventID.String(), payloads.ReviewCreatedEvent{})); result.nack {
		t.Fatalf("redelivery should succeed")
	}
	if len(svc.reviewed) != 2 {
		t.Fatalf("expected redelivery to reach the service, got %d calls", len(svc.reviewed))
	}
}

func TestProcessAcksMalformedAndNacksGuardErrors(t *testing.T) {
	svc := &stubService{}
	attrs := map[string]string{"event_type": "order_created"}

	consumer := newTestConsumer(svc, &memoryGuard{})
	if result := consumer.process(context.Background(), "m1", attrs, []byte("{not json")); result.nack {
		t.Fatalf("malformed envelope should be acked")
	}
	if result := consumer.process(context.Background(), "m2", attrs, envelope(t, "not-a-uuid", payloads.OrderCreatedEvent{})); result.nack {
		t.Fatalf("invalid event id should be acked")
	}

	consumer = newTestConsumer(svc, &memoryGuard{err: errors.New("redis down")})
	if result := consumer.process(context.Background(), "m3", attrs, envelope(t, uuid.NewString(), payloads.OrderCreatedEvent{})); !result.nack {
		t.Fatalf("guard failure should nack")
	}
	if len(svc.created) != 0 {
		t.Fatalf("service must not run without an idempotency decision")
	}
}
