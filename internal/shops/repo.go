package shops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

// Repository handles shop persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// UpsertByOwner inserts the shop or overwrites the profile of the owner's existing one.
func (r *Repository) UpsertByOwner(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "address", "phone", "email", "updated_at"}),
		}).
		Create(shop).Error
	if err != nil {
		return nil, err
	}
	return r.FindByOwner(ctx, shop.OwnerID)
}

func (r *Repository) FindByOwner(ctx context.Context, ownerID string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// List returns shops, optionally restricted to one owner, newest first.
func (r *Repository) List(ctx context.Context, ownerID string) ([]models.Shop, error) {
	q := r.db.WithContext(ctx).Model(&models.Shop{})
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var shops []models.Shop
	if err := q.Order("created_at DESC").Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

type reviewAggregate struct {
	ShopID      uuid.UUID
	ReviewCount int64
	RatingSum   int64
}

type serviceAggregate struct {
	ShopID       uuid.UUID
	ServiceCount int64
}

// ReviewAggregates returns review count and rating sum per shop.
func (r *Repository) ReviewAggregates(ctx context.Context, shopIDs []uuid.UUID) (map[uuid.UUID]reviewAggregate, error) {
	out := make(map[uuid.UUID]reviewAggregate, len(shopIDs))
	if len(shopIDs) == 0 {
		return out, nil
	}
	var rows []reviewAggregate
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("shop_id, COUNT(*) AS review_count, COALESCE(SUM(rating), 0) AS rating_sum").
		Where("shop_id IN ?", shopIDs).
		Group("shop_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ShopID] = row
	}
	return out, nil
}

// ServiceCounts returns the catalog size per shop.
func (r *Repository) ServiceCounts(ctx context.Context, shopIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(shopIDs))
	if len(shopIDs) == 0 {
		return out, nil
	}
	var rows []serviceAggregate
	if err := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Select("shop_id, COUNT(*) AS service_count").
		Where("shop_id IN ?", shopIDs).
		Group("shop_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ShopID] = row.ServiceCount
	}
	return out, nil
}
