package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/internal/catalog"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	"github.com/cleanmatch/cleanmatch-backend/pkg/types"
)

// CustomerRef is the customer contact rendered on receipts.
type CustomerRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ShopRef is the shop and its catalog rendered on receipts.
type ShopRef struct {
	ID       uuid.UUID            `json:"id"`
	OwnerID  string               `json:"ownerId"`
	Name     string               `json:"name"`
	Address  string               `json:"address"`
	Phone    string               `json:"phone"`
	Email    string               `json:"email"`
	Services []catalog.ServiceDTO `json:"services"`
}

// OrderDTO is the transport shape for an order.
type OrderDTO struct {
	ID            uuid.UUID            `json:"id"`
	CustomerID    string               `json:"customerId"`
	ShopID        uuid.UUID            `json:"shopId"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	ClientTotal   decimal.Decimal      `json:"clientTotal"`
	PriceVerified bool                 `json:"priceVerified"`
	Items         types.ItemQuantities `json:"items"`
	Status        enums.OrderStatus    `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
	Customer      *CustomerRef         `json:"customer,omitempty"`
	Shop          *ShopRef             `json:"shop,omitempty"`
}

// CreateOrderInput is a customer's order submission. TotalAmount is the
// client's figure and is cross-checked against the catalog.
type CreateOrderInput struct {
	CustomerID    string
	CustomerEmail string
	CustomerName  string
	ShopID        string
	TotalAmount   decimal.Decimal
	Items         map[string]int
}

// ListFilter selects orders by shop or by customer. ShopID wins when both are set.
type ListFilter struct {
	ShopID     string
	CustomerID string
	Limit      int
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := o.Items
	if items == nil {
		items = types.ItemQuantities{}
	}
	dto := &OrderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		ShopID:        o.ShopID,
		TotalAmount:   o.TotalAmount,
		ClientTotal:   o.ClientTotal,
		PriceVerified: o.PriceVerified,
		Items:         items,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Customer != nil {
		dto.Customer = &CustomerRef{Name: o.Customer.Name, Email: o.Customer.Email}
	}
	if o.Shop != nil {
		dto.Shop = &ShopRef{
			ID:       o.Shop.ID,
			OwnerID:  o.Shop.OwnerID,
			Name:     o.Shop.Name,
			Address:  o.Shop.Address,
			Phone:    o.Shop.Phone,
			Email:    o.Shop.Email,
			Services: catalog.FromModels(o.Shop.Services),
		}
	}
	return dto
}

func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
