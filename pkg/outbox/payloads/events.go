package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// OrderCreatedEvent announces a newly placed order to the shop.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	ShopID        uuid.UUID       `json:"shop_id"`
	CustomerID    string          `json:"customer_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PriceVerified bool            `json:"price_verified"`
	Items         map[string]int  `json:"items"`
}

// OrderStatusChangedEvent is emitted for every accepted transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	ShopID     uuid.UUID         `json:"shop_id"`
	CustomerID string            `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Reason     string            `json:"reason,omitempty"`
}

// ReviewCreatedEvent tells the shop a customer left feedback.
type ReviewCreatedEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	ShopID     uuid.UUID `json:"shop_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
}

// ShopUpsertedEvent records a shop profile create or update.
type ShopUpsertedEvent struct {
	ShopID  uuid.UUID `json:"shop_id"`
	OwnerID string    `json:"owner_id"`
	Name    string    `json:"name"`
}
