package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(review).Error
}

func (r *Repository) ShopExists(ctx context.Context, shopID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", shopID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByShop returns the shop's reviews newest first with reviewer names.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	if err := r.db.WithContext(ctx).
		Preload("Customer", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
