package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
	"github.com/cleanmatch/cleanmatch-backend/pkg/types"
)

const (
	maxListLimit  = 20
	expiryReason  = "expired"
	systemActorID = "system"
)

// Service exposes the order lifecycle.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, orderID, status string) (*OrderDTO, error)
	List(ctx context.Context, actor authz.Actor, filter ListFilter) ([]OrderDTO, error)
	CancelStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Outbox outbox.Emitter
	Policy *authz.Policy
	Config config.OrdersConfig
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	policy *authz.Policy
	cfg    config.OrdersConfig
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Policy == nil {
		return nil, fmt.Errorf("authorization policy required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cfg := params.Config
	if cfg.ListLimit <= 0 || cfg.ListLimit > maxListLimit {
		cfg.ListLimit = maxListLimit
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		policy: params.Policy,
		cfg:    cfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*OrderDTO, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" || strings.TrimSpace(input.ShopID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	shopID, err := uuid.Parse(strings.TrimSpace(input.ShopID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shopId").WithDetails(map[string]string{"shopId": "must be a valid uuid"})
	}
	if !input.TotalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Total amount must be greater than zero").WithDetails(map[string]string{"totalAmount": "must be greater than 0"})
	}
	items := types.ItemQuantities{}
	for key, qty := range input.Items {
		if qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Item quantities must be at least 1").WithDetails(map[string]any{"item": key, "quantity": qty})
		}
		items[key] = qty
	}
	if err := s.policy.Authorize(actor, authz.ActionOrderCreate, authz.Resource{CustomerID: customerID}); err != nil {
		return nil, err
	}

	clientTotal := input.TotalAmount.Round(2)
	var created models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindShop(ctx, shopID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Shop not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
		}

		if _, err := provisioning.EnsureCustomer(ctx, tx, provisioning.CustomerInput{
			UserID: customerID,
			Email:  input.CustomerEmail,
			Name:   input.CustomerName,
		}); err != nil {
			return err
		}

		catalogRows, err := repo.CatalogForShop(ctx, shopID, itemIDs(items))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop catalog")
		}
		quote := PriceItems(items, catalogRows)

		total := clientTotal
		switch {
		case quote.Verified:
			total = quote.Total
			if !quote.Total.Equal(clientTotal) {
				logCtx := s.logg.WithFields(s.logg.WithShopID(ctx, shopID.String()), map[string]any{
					"customer_id":  customerID,
					"client_total": clientTotal.String(),
					"server_total": quote.Total.String(),
				})
				s.logg.Warn(logCtx, "order.client_total_mismatch")
			}
		case len(quote.Unresolved) > 0 && s.cfg.RejectUnknownItems:
			return pkgerrors.New(pkgerrors.CodeValidation, "Order references services that are not offered by this shop").
				WithDetails(map[string]any{"unresolvedItems": quote.Unresolved})
		}

		created = models.Order{
			CustomerID:    customerID,
			ShopID:        shopID,
			TotalAmount:   total,
			ClientTotal:   clientTotal,
			PriceVerified: quote.Verified,
			Items:         items,
			Status:        enums.OrderStatusPending,
			CreatedAt:     s.now().UTC(),
		}
		if err := repo.Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		return s.emit(ctx, tx, enums.EventOrderCreated, created.ID, actorRef(actor, customerID, enums.RoleCustomer), payloads.OrderCreatedEvent{
			OrderID:       created.ID,
			ShopID:        created.ShopID,
			CustomerID:    created.CustomerID,
			TotalAmount:   created.TotalAmount,
			PriceVerified: created.PriceVerified,
			Items:         map[string]int(created.Items),
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(&created), nil
}

func (s *service) UpdateStatus(ctx context.Context, actor authz.Actor, orderID, status string) (*OrderDTO, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	id, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid orderId").WithDetails(map[string]string{"orderId": "must be a valid uuid"})
	}
	target, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid status").WithDetails(map[string]string{"status": "must be one of [PENDING ACCEPTED COMPLETED CANCELLED]"})
	}

	var result *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		shop, err := repo.FindShop(ctx, order.ShopID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order shop")
		}
		if err := s.policy.Authorize(actor, authz.ActionOrderTransition, authz.Resource{
			CustomerID:   order.CustomerID,
			ShopOwnerID:  shop.OwnerID,
			TargetStatus: target,
		}); err != nil {
			return err
		}
		if order.Status == target {
			result = order
			return nil
		}
		if err := s.transition(ctx, tx, order, target, actorRef(actor, "", ""), ""); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) List(ctx context.Context, actor authz.Actor, filter ListFilter) ([]OrderDTO, error) {
	shopRaw := strings.TrimSpace(filter.ShopID)
	customerID := strings.TrimSpace(filter.CustomerID)
	if shopRaw == "" && customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Shop ID or Customer ID required")
	}

	limit := filter.Limit
	if limit <= 0 || limit > s.cfg.ListLimit {
		limit = s.cfg.ListLimit
	}
	query := listQuery{Limit: limit}
	resource := authz.Resource{}

	if shopRaw != "" {
		shopID, err := uuid.Parse(shopRaw)
		if err != nil {
			return []OrderDTO{}, nil
		}
		shop, err := s.repo.FindShop(ctx, shopID)
		if err != nil {
			if db.IsNotFound(err) {
				return []OrderDTO{}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
		}
		query.ShopID = &shopID
		resource.ShopOwnerID = shop.OwnerID
	} else {
		query.CustomerID = customerID
		resource.CustomerID = customerID
	}
	if err := s.policy.Authorize(actor, authz.ActionOrderList, resource); err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return FromModels(rows), nil
}

// CancelStalePending cancels PENDING orders created before cutoff. Each order is
// handled in its own transaction; failures are combined and the rest proceed.
func (s *service) CancelStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, candidate := range stale {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if order.Status != enums.OrderStatusPending {
				return nil
			}
			return s.transition(ctx, tx, order, enums.OrderStatusCancelled, &outbox.ActorRef{UserID: systemActorID}, expiryReason)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", candidate.ID, err))
			continue
		}
		s.logg.Info(s.logg.WithField(s.logg.WithShopID(ctx, candidate.ShopID.String()), "order_id", candidate.ID.String()), "order.expired")
		cancelled++
	}
	return cancelled, errs
}

// transition applies one lifecycle edge with a guarded write and queues the
// status change event. order is updated in place on success.
func (s *service) transition(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, actor *outbox.ActorRef, reason string) error {
	from := order.Status
	if err := CheckTransition(from, to); err != nil {
		return stateConflict(err, from, to)
	}
	at := s.now().UTC()
	ok, err := s.repo.WithTx(tx).UpdateStatusIfCurrent(ctx, order.ID, from, to, at)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Order status changed concurrently. Reload and try again.").
			WithDetails(map[string]any{"from": from, "to": to})
	}
	order.Status = to
	order.UpdatedAt = at

	return s.emit(ctx, tx, enums.EventOrderStatusChanged, order.ID, actor, payloads.OrderStatusChangedEvent{
		OrderID:    order.ID,
		ShopID:     order.ShopID,
		CustomerID: order.CustomerID,
		From:       from,
		To:         to,
		Reason:     reason,
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID uuid.UUID, actor *outbox.ActorRef, data any) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor,
		Data:          data,
		OccurredAt:    s.now().UTC(),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit "+string(eventType))
	}
	return nil
}

func stateConflict(err error, from, to enums.OrderStatus) error {
	var invalid *InvalidTransitionError
	if errors.As(err, &invalid) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, fmt.Sprintf("Cannot change order status from %s to %s", from, to)).
			WithDetails(map[string]any{"from": from, "to": to})
	}
	return err
}

// actorRef prefers the verified identity, falling back to the id the request
// claims to act for.
func actorRef(actor authz.Actor, fallbackID string, fallbackRole enums.UserRole) *outbox.ActorRef {
	if actor.Authenticated {
		return &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
	}
	if fallbackID == "" {
		return nil
	}
	return &outbox.ActorRef{UserID: fallbackID, Role: string(fallbackRole)}
}
