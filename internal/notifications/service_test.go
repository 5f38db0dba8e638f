package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/dbtest"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/mailer"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
)

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestService(t *testing.T) (Service, *recordingMailer, *gorm.DB, models.Shop) {
	t.Helper()
	conn := dbtest.Open(t)
	mail := &recordingMailer{}
	svc, err := NewService(NewRepository(conn), mail, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, conn.Create(&models.User{ID: "owner", Email: "owner@example.com", Name: "Olive", Role: enums.RoleShopOwner}).Error)
	require.NoError(t, conn.Create(&models.User{ID: "cust", Email: "cust@example.com", Name: "Cam", Role: enums.RoleCustomer}).Error)
	shop := models.Shop{OwnerID: "owner", Name: "Suds", Address: "1 St"}
	require.NoError(t, conn.Create(&shop).Error)
	return svc, mail, conn, shop
}

func TestOrderCreatedEmailsShopOwner(t *testing.T) {
	svc, mail, _, shop := newTestService(t)

	err := svc.OrderCreated(context.Background(), payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		ShopID:        shop.ID,
		CustomerID:    "cust",
		TotalAmount:   decimal.RequireFromString("12.5"),
		PriceVerified: true,
		Items:         map[string]int{"a": 2, "b": 1},
	})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	require.Equal(t, "owner@example.com", mail.sent[0].To)
	require.Equal(t, "New order at Suds", mail.sent[0].Subject)
	require.Contains(t, mail.sent[0].Body, "Hi Olive,")
	require.Contains(t, mail.sent[0].Body, "Items: 3")
	require.Contains(t, mail.sent[0].Body, "Total: $12.50")
	require.NotContains(t, mail.sent[0].Body, "could not be checked")
}

func TestOrderCreatedPrefersShopContactEmail(t *testing.T) {
	svc, mail, conn, shop := newTestService(t)
	require.NoError(t, conn.Model(&models.Shop{}).Where("id = ?", shop.ID).Update("email", "desk@suds.example").Error)

	err := svc.OrderCreated(context.Background(), payloads.OrderCreatedEvent{OrderID: uuid.New(), ShopID: shop.ID})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	require.Equal(t, "desk@suds.example", mail.sent[0].To)
	require.Contains(t, mail.sent[0].Body, "could not be checked")
}

func TestStatusChangeEmailsCustomer(t *testing.T) {
	svc, mail, _, shop := newTestService(t)

	err := svc.OrderStatusChanged(context.Background(), payloads.OrderStatusChangedEvent{
		OrderID:    uuid.New(),
		ShopID:     shop.ID,
		CustomerID: "cust",
		From:       enums.OrderStatusPending,
		To:         enums.OrderStatusCancelled,
		Reason:     "expired",
	})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	require.Equal(t, "cust@example.com", mail.sent[0].To)
	require.Equal(t, "Your order is cancelled", mail.sent[0].Subject)
	require.Contains(t, mail.sent[0].Body, "at Suds is now cancelled")
	require.Contains(t, mail.sent[0].Body, "did not respond in time")
}

func TestReviewEmailsShop(t *testing.T) {
	svc, mail, _, shop := newTestService(t)

	err := svc.ReviewCreated(context.Background(), payloads.ReviewCreatedEvent{ReviewID: uuid.New(), ShopID: shop.ID, CustomerID: "cust", Rating: 4})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	require.Equal(t, "New 4-star review for Suds", mail.sent[0].Subject)
}

func TestPlaceholderAndMissingRecipientsAreSkipped(t *testing.T) {
	svc, mail, conn, shop := newTestService(t)
	require.NoError(t, conn.Create(&models.User{
		ID:    "ghost",
		Email: provisioning.PlaceholderEmail("ghost"),
		Name:  provisioning.DefaultCustomerName,
		Role:  enums.RoleCustomer,
	}).Error)

	ctx := context.Background()
	require.NoError(t, svc.OrderStatusChanged(ctx, payloads.OrderStatusChangedEvent{ShopID: shop.ID, CustomerID: "ghost", To: enums.OrderStatusAccepted}))
	require.NoError(t, svc.OrderStatusChanged(ctx, payloads.OrderStatusChangedEvent{ShopID: shop.ID, CustomerID: "nobody", To: enums.OrderStatusAccepted}))
	require.NoError(t, svc.OrderCreated(ctx, payloads.OrderCreatedEvent{ShopID: uuid.New()}))
	require.Empty(t, mail.sent)
}

func TestDeliveryFailureIsDependencyError(t *testing.T) {
	svc, mail, _, shop := newTestService(t)
	mail.err = errors.New("smtp down")

	err := svc.ReviewCreated(context.Background(), payloads.ReviewCreatedEvent{ShopID: shop.ID, Rating: 5})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}
