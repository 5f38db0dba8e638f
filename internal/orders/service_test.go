package orders

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/dbtest"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
)

type fixture struct {
	svc   *service
	conn  *gorm.DB
	shop  models.Shop
	shirt models.Service
	clock time.Time
}

func newFixture(t *testing.T, cfg config.OrdersConfig, requireIdentity bool) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	emitter := outbox.NewService(outbox.NewRepository(conn), logger.Nop())
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Tx:     client,
		Outbox: emitter,
		Policy: authz.NewPolicy(requireIdentity),
		Config: cfg,
	})
	require.NoError(t, err)

	f := &fixture{svc: svc.(*service), conn: conn, clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}

	require.NoError(t, conn.Create(&models.User{ID: "owner", Email: "owner@example.com", Name: "Owner", Role: enums.RoleShopOwner}).Error)
	f.shop = models.Shop{OwnerID: "owner", Name: "Suds", Address: "1 St"}
	require.NoError(t, conn.Create(&f.shop).Error)
	f.shirt = models.Service{ShopID: f.shop.ID, Name: "Shirt", Category: "General", Price: decimal.RequireFromString("2.50")}
	require.NoError(t, conn.Create(&f.shirt).Error)
	return f
}

func (f *fixture) create(t *testing.T, customerID string, total string, items map[string]int) *OrderDTO {
	t.Helper()
	order, err := f.svc.Create(context.Background(), authz.Actor{}, CreateOrderInput{
		CustomerID:  customerID,
		ShopID:      f.shop.ID.String(),
		TotalAmount: decimal.RequireFromString(total),
		Items:       items,
	})
	require.NoError(t, err)
	return order
}

func TestCreateRecomputesTotalFromCatalog(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)

	order := f.create(t, "c1", "1.00", map[string]int{f.shirt.ID.String(): 3})
	require.True(t, order.PriceVerified)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("7.50")))
	require.True(t, order.ClientTotal.Equal(decimal.RequireFromString("1.00")))
	require.Equal(t, enums.OrderStatusPending, order.Status)

	var customer models.User
	require.NoError(t, f.conn.First(&customer, "id = ?", "c1").Error)
	require.Equal(t, enums.RoleCustomer, customer.Role)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventOrderCreated).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, order.ID, events[0].AggregateID)
}

func TestCreateWithForeignItemsKeepsClientTotal(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	foreign := uuid.NewString()

	order := f.create(t, "c1", "42.00", map[string]int{foreign: 1})
	require.False(t, order.PriceVerified)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("42")))
	require.Equal(t, 1, order.Items[foreign])

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", order.ID).Error)
	require.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("42")))
}

func TestCreateRejectsForeignItemsWhenConfigured(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{RejectUnknownItems: true}, false)

	_, err := f.svc.Create(context.Background(), authz.Actor{}, CreateOrderInput{
		CustomerID:  "c1",
		ShopID:      f.shop.ID.String(),
		TotalAmount: decimal.NewFromInt(10),
		Items:       map[string]int{uuid.NewString(): 1},
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	var users int64
	require.NoError(t, f.conn.Model(&models.User{}).Where("id = ?", "c1").Count(&users).Error)
	require.Zero(t, users)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	ctx := context.Background()

	cases := []CreateOrderInput{
		{ShopID: f.shop.ID.String(), TotalAmount: decimal.NewFromInt(1)},
		{CustomerID: "c1", ShopID: "bad", TotalAmount: decimal.NewFromInt(1)},
		{CustomerID: "c1", ShopID: f.shop.ID.String(), TotalAmount: decimal.Zero},
		{CustomerID: "c1", ShopID: f.shop.ID.String(), TotalAmount: decimal.NewFromInt(1), Items: map[string]int{"x": 0}},
	}
	for i, input := range cases {
		_, err := f.svc.Create(ctx, authz.Actor{}, input)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "case %d: %v", i, err)
	}

	_, err := f.svc.Create(ctx, authz.Actor{}, CreateOrderInput{CustomerID: "c1", ShopID: uuid.NewString(), TotalAmount: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	ctx := context.Background()
	order := f.create(t, "c1", "5", nil)

	accepted, err := f.svc.UpdateStatus(ctx, authz.Actor{}, order.ID.String(), "accepted")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAccepted, accepted.Status)

	same, err := f.svc.UpdateStatus(ctx, authz.Actor{}, order.ID.String(), "ACCEPTED")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAccepted, same.Status)

	completed, err := f.svc.UpdateStatus(ctx, authz.Actor{}, order.ID.String(), "COMPLETED")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCompleted, completed.Status)

	_, err = f.svc.UpdateStatus(ctx, authz.Actor{}, order.ID.String(), "PENDING")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	var invalid *InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, enums.OrderStatusCompleted, invalid.From)
	require.Equal(t, map[string]any{"from": enums.OrderStatusCompleted, "to": enums.OrderStatusPending}, pkgerrors.As(err).Details())

	var changes int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderStatusChanged).Count(&changes).Error)
	require.EqualValues(t, 2, changes)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, authz.Actor{}, uuid.NewString(), "ACCEPTED")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	order := f.create(t, "c1", "5", nil)
	_, err = f.svc.UpdateStatus(ctx, authz.Actor{}, order.ID.String(), "SHIPPED")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateStatus(ctx, authz.Actor{}, "", "ACCEPTED")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGuardedUpdateDetectsConcurrentChange(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	ctx := context.Background()
	order := f.create(t, "c1", "5", nil)

	ok, err := f.svc.repo.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusAccepted, enums.OrderStatusCompleted, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.svc.repo.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusAccepted, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUpdateStatusAuthorization(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, true)
	ctx := context.Background()
	customer := authz.Actor{UserID: "c1", Role: enums.RoleCustomer, Authenticated: true}
	owner := authz.Actor{UserID: "owner", Role: enums.RoleShopOwner, Authenticated: true}

	order, err := f.svc.Create(ctx, customer, CreateOrderInput{CustomerID: "c1", ShopID: f.shop.ID.String(), TotalAmount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, customer, order.ID.String(), "ACCEPTED")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, owner, order.ID.String(), "ACCEPTED")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, customer, order.ID.String(), "CANCELLED")
	require.NoError(t, err)
}

func TestListPrecedenceAndLimit(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{ListLimit: 20}, false)
	ctx := context.Background()

	var last *OrderDTO
	for i := 0; i < 22; i++ {
		last = f.create(t, "c1", "5", map[string]int{f.shirt.ID.String(): 1})
	}
	f.create(t, "c2", "5", nil)

	byShop, err := f.svc.List(ctx, authz.Actor{}, ListFilter{ShopID: f.shop.ID.String(), CustomerID: "nobody"})
	require.NoError(t, err)
	require.Len(t, byShop, 20)
	require.Equal(t, "c2", byShop[0].CustomerID)
	require.Equal(t, last.ID, byShop[1].ID)
	require.NotNil(t, byShop[0].Customer)
	require.NotNil(t, byShop[0].Shop)
	require.Len(t, byShop[0].Shop.Services, 1)

	byCustomer, err := f.svc.List(ctx, authz.Actor{}, ListFilter{CustomerID: "c2"})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)

	limited, err := f.svc.List(ctx, authz.Actor{}, ListFilter{CustomerID: "c1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, limited, 5)

	_, err = f.svc.List(ctx, authz.Actor{}, ListFilter{})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	malformed, err := f.svc.List(ctx, authz.Actor{}, ListFilter{ShopID: "shop-1", CustomerID: "c1"})
	require.NoError(t, err)
	require.NotNil(t, malformed)
	require.Empty(t, malformed)
}

func TestCancelStalePending(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	ctx := context.Background()

	stale := f.create(t, "c1", "5", nil)
	accepted := f.create(t, "c1", "5", nil)
	_, err := f.svc.UpdateStatus(ctx, authz.Actor{}, accepted.ID.String(), "ACCEPTED")
	require.NoError(t, err)
	cutoff := f.clock.Add(time.Second)
	fresh := f.create(t, "c1", "5", nil)

	count, err := f.svc.CancelStalePending(ctx, cutoff, 100)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var rows []models.Order
	require.NoError(t, f.conn.Find(&rows).Error)
	statuses := map[uuid.UUID]enums.OrderStatus{}
	for _, row := range rows {
		statuses[row.ID] = row.Status
	}
	require.Equal(t, enums.OrderStatusCancelled, statuses[stale.ID])
	require.Equal(t, enums.OrderStatusAccepted, statuses[accepted.ID])
	require.Equal(t, enums.OrderStatusPending, statuses[fresh.ID])
}

func TestCancelStalePendingLogsShop(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{}, false)
	var buf bytes.Buffer
	f.svc.logg = logger.New(logger.Options{ServiceName: "orders-test", Output: &buf})

	stale := f.create(t, "c1", "5", nil)
	count, err := f.svc.CancelStalePending(context.Background(), f.clock.Add(time.Second), 10)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	out := buf.String()
	require.Contains(t, out, `"shop_id":"`+f.shop.ID.String()+`"`)
	require.Contains(t, out, `"order_id":"`+stale.ID.String()+`"`)
	require.Contains(t, out, "order.expired")
}
