package models

import (
	"time"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// User mirrors an identity-provider account. ID is the provider's opaque uid.
type User struct {
	ID          string         `gorm:"column:id;type:text;primaryKey"`
	Email       string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name        string         `gorm:"column:name;not null"`
	Role        enums.UserRole `gorm:"column:role;type:user_role;not null"`
	Phone       *string        `gorm:"column:phone"`
	Address     *string        `gorm:"column:address"`
	Age         *int           `gorm:"column:age"`
	Description *string        `gorm:"column:description"`
	DateOfBirth *string        `gorm:"column:date_of_birth"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	Shop *Shop `gorm:"foreignKey:OwnerID;references:ID"`
}
