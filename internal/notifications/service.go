package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/mailer"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
)

// Service turns domain events into transactional email.
type Service interface {
	OrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error
	OrderStatusChanged(ctx context.Context, event payloads.OrderStatusChangedEvent) error
	ReviewCreated(ctx context.Context, event payloads.ReviewCreatedEvent) error
}

type service struct {
	repo   Repository
	mailer mailer.Mailer
	logg   *logger.Logger
}

// NewService wires the notification dependencies.
func NewService(repo Repository, m mailer.Mailer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if m == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, mailer: m, logg: logg}, nil
}

type recipient struct {
	email string
	name  string
}

func (s *service) OrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error {
	shop, to, ok, err := s.shopRecipient(ctx, event.ShopID)
	if err != nil || !ok {
		return err
	}
	units := 0
	for _, qty := range event.Items {
		units += qty
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", to.name)
	fmt.Fprintf(&body, "A new order was placed at %s.\n\n", shop)
	fmt.Fprintf(&body, "Order: %s\n", event.OrderID)
	fmt.Fprintf(&body, "Items: %d\n", units)
	fmt.Fprintf(&body, "Total: $%s\n", event.TotalAmount.StringFixed(2))
	if !event.PriceVerified {
		body.WriteString("\nThe total was submitted by the customer and could not be checked against your price list.\n")
	}
	body.WriteString("\nOpen your dashboard to accept or decline it.\n")

	return s.deliver(ctx, to, mailer.Message{
		Subject: fmt.Sprintf("New order at %s", shop),
		Body:    body.String(),
	})
}

func (s *service) OrderStatusChanged(ctx context.Context, event payloads.OrderStatusChangedEvent) error {
	to, ok, err := s.userRecipient(ctx, event.CustomerID)
	if err != nil || !ok {
		return err
	}
	shop := "the shop"
	if found, err := s.repo.FindShop(ctx, event.ShopID); err == nil {
		shop = found.Name
	} else if !db.IsNotFound(err) {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", to.name)
	fmt.Fprintf(&body, "Your order %s at %s is now %s.\n", event.OrderID, shop, statusLabel(event.To))
	switch {
	case event.To == enums.OrderStatusCancelled && event.Reason == "expired":
		body.WriteString("\nIt was cancelled automatically because the shop did not respond in time.\n")
	case event.To == enums.OrderStatusCompleted:
		body.WriteString("\nThanks for using CleanMatch. You can now leave a review for the shop.\n")
	}

	return s.deliver(ctx, to, mailer.Message{
		Subject: fmt.Sprintf("Your order is %s", statusLabel(event.To)),
		Body:    body.String(),
	})
}

func (s *service) ReviewCreated(ctx context.Context, event payloads.ReviewCreatedEvent) error {
	shop, to, ok, err := s.shopRecipient(ctx, event.ShopID)
	if err != nil || !ok {
		return err
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", to.name)
	fmt.Fprintf(&body, "%s received a new %d-star review.\n", shop, event.Rating)

	return s.deliver(ctx, to, mailer.Message{
		Subject: fmt.Sprintf("New %d-star review for %s", event.Rating, shop),
		Body:    body.String(),
	})
}

// shopRecipient prefers the shop's contact address and falls back to the owner's.
func (s *service) shopRecipient(ctx context.Context, shopID uuid.UUID) (string, recipient, bool, error) {
	shop, err := s.repo.FindShop(ctx, shopID)
	if err != nil {
		if db.IsNotFound(err) {
			s.logg.Warn(s.logg.WithField(ctx, "shop_id", shopID.String()), "notification.shop_missing")
			return "", recipient{}, false, nil
		}
		return "", recipient{}, false, err
	}
	to, ok, err := s.userRecipient(ctx, shop.OwnerID)
	if err != nil {
		return "", recipient{}, false, err
	}
	if contact := strings.TrimSpace(shop.Email); contact != "" {
		name := to.name
		if name == "" {
			name = shop.Name
		}
		return shop.Name, recipient{email: contact, name: name}, true, nil
	}
	return shop.Name, to, ok, nil
}

func (s *service) userRecipient(ctx context.Context, userID string) (recipient, bool, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			s.logg.Warn(s.logg.WithUserID(ctx, userID), "notification.user_missing")
			return recipient{}, false, nil
		}
		return recipient{}, false, err
	}
	return recipient{email: user.Email, name: user.Name}, true, nil
}

func (s *service) deliver(ctx context.Context, to recipient, msg mailer.Message) error {
	if isPlaceholder(to.email) {
		s.logg.Info(ctx, "notification.skipped_placeholder")
		return nil
	}
	msg.To = to.email
	if err := s.mailer.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send notification")
	}
	return nil
}

func isPlaceholder(email string) bool {
	return email == "" || strings.HasSuffix(strings.ToLower(email), "@"+provisioning.PlaceholderEmailDomain)
}

func statusLabel(status enums.OrderStatus) string {
	return strings.ToLower(string(status))
}
