package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error)
	List(ctx context.Context, filter listQuery) ([]models.Order, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	CatalogForShop(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Service, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listQuery struct {
	ShopID     *uuid.UUID
	CustomerID string
	Limit      int
}
