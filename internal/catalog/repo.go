package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

// Repository handles catalog persistence.
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

func (r *Repository) Create(ctx context.Context, svc *models.Service) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

// ListByShop returns the shop's services, newest first.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.Service, error) {
	var rows []models.Service
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindShopIDByOwner resolves the owner's shop id.
func (r *Repository) FindShopIDByOwner(ctx context.Context, ownerID string) (uuid.UUID, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Select("id").Where("owner_id = ?", ownerID).First(&shop).Error; err != nil {
		return uuid.Nil, err
	}
	return shop.ID, nil
}
