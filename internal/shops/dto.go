package shops

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

// ShopDTO is the transport shape for a shop profile.
type ShopDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ShopSummary is a listed shop with its read-time aggregates.
type ShopSummary struct {
	ShopDTO
	Rating       float64 `json:"rating"`
	ReviewCount  int64   `json:"reviewCount"`
	ServiceCount int64   `json:"serviceCount"`
}

// UpsertShopInput is the profile submitted during onboarding.
type UpsertShopInput struct {
	OwnerID     string
	Name        string
	Address     string
	Description string
	Phone       string
	Email       string
}

func FromModel(s *models.Shop) *ShopDTO {
	if s == nil {
		return nil
	}
	return &ShopDTO{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Description: s.Description,
		Address:     s.Address,
		Phone:       s.Phone,
		Email:       s.Email,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// averageRating is sum/count, or 0 for an unreviewed shop.
func averageRating(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
