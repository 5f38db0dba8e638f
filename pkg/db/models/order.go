package models

import (
	"time"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	"github.com/cleanmatch/cleanmatch-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a customer's request against a shop's catalog.
// TotalAmount is authoritative; ClientTotal keeps the submitted figure for audit.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID    string               `gorm:"column:customer_id;type:text;not null;index"`
	ShopID        uuid.UUID            `gorm:"column:shop_id;type:uuid;not null;index"`
	TotalAmount   decimal.Decimal      `gorm:"column:total_amount;type:numeric(10,2);not null"`
	ClientTotal   decimal.Decimal      `gorm:"column:client_total;type:numeric(10,2);not null"`
	PriceVerified bool                 `gorm:"column:price_verified;not null;default:false"`
	Items         types.ItemQuantities `gorm:"column:items;type:jsonb;not null"`
	Status        enums.OrderStatus    `gorm:"column:status;type:order_status;not null"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Customer *User `gorm:"foreignKey:CustomerID;references:ID"`
	Shop     *Shop `gorm:"foreignKey:ShopID;references:ID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Items == nil {
		o.Items = types.ItemQuantities{}
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}
