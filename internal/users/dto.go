package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// ShopRef is the minimal shop projection embedded in user responses.
type ShopRef struct {
	ID uuid.UUID `json:"id"`
}

// UserDTO is the transport shape for a user account.
type UserDTO struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        enums.UserRole `json:"role"`
	Phone       *string        `json:"phone"`
	Address     *string        `json:"address"`
	Age         *int           `json:"age"`
	Description *string        `json:"description"`
	DateOfBirth *string        `json:"dob"`
	HasShop     bool           `json:"hasShop"`
	Shop        *ShopRef       `json:"shop"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// UpsertUserInput carries a signup or profile save. Nil optional fields are left
// untouched on update.
type UpsertUserInput struct {
	ID          string
	Email       string
	Name        string
	Role        string
	Intent      string
	Phone       *string
	Address     *string
	Age         *int
	Description *string
	DateOfBirth *string
}

// IntentSignup marks an upsert that must not silently reuse an existing account.
const IntentSignup = "signup"

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Phone:       u.Phone,
		Address:     u.Address,
		Age:         u.Age,
		Description: u.Description,
		DateOfBirth: u.DateOfBirth,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.Shop != nil {
		dto.HasShop = true
		dto.Shop = &ShopRef{ID: u.Shop.ID}
	}
	return dto
}
