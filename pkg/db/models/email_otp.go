package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailOTP stores a keyed hash of an issued one-time code, never the code itself.
type EmailOTP struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;index:idx_email_otps_email_created,priority:1"`
	CodeHash  string    `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Verified  bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_email_otps_email_created,priority:2"`
}

func (EmailOTP) TableName() string { return "email_otps" }

func (o *EmailOTP) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
