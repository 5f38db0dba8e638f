package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
)

// Repository persists hashed one-time codes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CountIssuedSince counts codes issued for email at or after since.
func (r *Repository) CountIssuedSince(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EmailOTP{}).
		Where("email = ? AND created_at >= ?", email, since).
		Count(&count).Error
	return count, err
}

// SupersedeUnverified marks every outstanding code for email as used.
func (r *Repository) SupersedeUnverified(ctx context.Context, email string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EmailOTP{}).
		Where("email = ? AND verified = ?", email, false).
		Update("verified", true)
	return res.RowsAffected, res.Error
}

func (r *Repository) Create(ctx context.Context, row *models.EmailOTP) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FindLatestUnverified returns the newest unverified row for email with the given hash.
func (r *Repository) FindLatestUnverified(ctx context.Context, email, codeHash string) (*models.EmailOTP, error) {
	var row models.EmailOTP
	if err := r.db.WithContext(ctx).
		Where("email = ? AND code_hash = ? AND verified = ?", email, codeHash, false).
		Order("created_at DESC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkVerified flips verified on an unverified row. It reports false when the
// row was already consumed.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EmailOTP{}).
		Where("id = ? AND verified = ?", id, false).
		Update("verified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteCreatedBefore purges codes issued before cutoff.
func (r *Repository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.EmailOTP{})
	return res.RowsAffected, res.Error
}
