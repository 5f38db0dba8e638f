package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

// Repository resolves the people an event should reach.
type Repository interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a read-only recipient lookup bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Select("id", "email", "name", "role").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).
		Select("id", "owner_id", "name", "email").
		Where("id = ?", id).
		First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}
