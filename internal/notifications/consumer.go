package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
)

const consumerName = "notification-worker"

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer reads order and review events off the notification subscription.
type Consumer struct {
	service      Service
	subscription *pubsub.Subscriber
	idempotency  idempotencyGuard
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer.
func NewConsumer(service Service, subscription *pubsub.Subscriber, guard idempotencyGuard, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		service:      service,
		subscription: subscription,
		idempotency:  guard,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

var (
	ack  = processResult{}
	nack = processResult{nack: true}
)

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := enums.OutboxEventType(attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	handler := c.handlerFor(eventType)
	if handler == nil {
		c.logg.Debug(logCtx, "skipping event without notification")
		return ack
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return ack
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return ack
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return nack
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return ack
	}

	if err := handler(logCtx, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if delErr := c.idempotency.Delete(ctx, consumerName, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency marker", delErr)
		}
		return nack
	}
	return ack
}

type eventHandler func(ctx context.Context, data json.RawMessage) error

func (c *Consumer) handlerFor(eventType enums.OutboxEventType) eventHandler {
	switch eventType {
	case enums.EventOrderCreated:
		return func(ctx context.Context, data json.RawMessage) error {
			var event payloads.OrderCreatedEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("decode order_created: %w", err)
			}
			return c.service.OrderCreated(ctx, event)
		}
	case enums.EventOrderStatusChanged:
		return func(ctx context.Context, data json.RawMessage) error {
			var event payloads.OrderStatusChangedEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("decode order_status_changed: %w", err)
			}
			return c.service.OrderStatusChanged(ctx, event)
		}
	case enums.EventReviewCreated:
		return func(ctx context.Context, data json.RawMessage) error {
			var event payloads.ReviewCreatedEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("decode review_created: %w", err)
			}
			return c.service.ReviewCreated(ctx, event)
		}
	default:
		return nil
	}
}
