package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

type CustomerRef struct {
	Name string `json:"name"`
}

// ReviewDTO is the transport shape for a review.
type ReviewDTO struct {
	ID         uuid.UUID    `json:"id"`
	CustomerID string       `json:"customerId"`
	ShopID     uuid.UUID    `json:"shopId"`
	Rating     int          `json:"rating"`
	Comment    *string      `json:"comment"`
	CreatedAt  time.Time    `json:"createdAt"`
	Customer   *CustomerRef `json:"customer,omitempty"`
}

type CreateReviewInput struct {
	CustomerID string
	ShopID     string
	Rating     int
	Comment    *string
}

func FromModel(r *models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		ShopID:     r.ShopID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
	if r.Customer != nil {
		dto.Customer = &CustomerRef{Name: r.Customer.Name}
	}
	return dto
}
