package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

const DefaultCategory = "General"

// ServiceDTO is a catalog line as returned to clients.
type ServiceDTO struct {
	ID        uuid.UUID       `json:"id"`
	ShopID    uuid.UUID       `json:"shopId"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AddServiceInput adds a priced line to the owner's shop.
type AddServiceInput struct {
	OwnerID  string
	Name     string
	Category string
	Price    decimal.Decimal
}

// ListFilter selects a catalog by shop id or by the owner's id. ShopID wins.
type ListFilter struct {
	ShopID  string
	OwnerID string
}

func FromModel(s *models.Service) ServiceDTO {
	return ServiceDTO{
		ID:        s.ID,
		ShopID:    s.ShopID,
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		CreatedAt: s.CreatedAt,
	}
}

func FromModels(rows []models.Service) []ServiceDTO {
	out := make([]ServiceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
