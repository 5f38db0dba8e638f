// Package provisioning creates the minimal user and shop rows other write paths
// depend on. Every function runs inside the caller's transaction.
package provisioning

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
)

const (
	PlaceholderEmailDomain = "users.cleanmatch.invalid"
	DefaultCustomerName    = "Customer"
	DefaultShopOwnerName   = "Shop Owner"
	DefaultShopName        = "My Laundry Shop"
	DefaultShopAddress     = "123 Main St"
)

// CustomerInput carries optional contact details used only when the row is created.
type CustomerInput struct {
	UserID string
	Email  string
	Name   string
}

// PlaceholderEmail returns the synthetic address stored for auto-provisioned users.
func PlaceholderEmail(userID string) string {
	return fmt.Sprintf("%s@%s", userID, PlaceholderEmailDomain)
}

// EnsureCustomer returns the user row for in.UserID, creating a CUSTOMER row when
// none exists. Existing rows are returned untouched.
func EnsureCustomer(ctx context.Context, tx *gorm.DB, in CustomerInput) (*models.User, error) {
	return ensureUser(ctx, tx, in, enums.RoleCustomer)
}

// EnsureShopOwner guarantees userID exists, holds the SHOP_OWNER role and owns a
// shop, creating a default shop when needed.
func EnsureShopOwner(ctx context.Context, tx *gorm.DB, userID string) (*models.Shop, error) {
	user, err := ensureUser(ctx, tx, CustomerInput{UserID: userID, Name: DefaultShopOwnerName}, enums.RoleShopOwner)
	if err != nil {
		return nil, err
	}
	if user.Role != enums.RoleShopOwner {
		if err := PromoteToShopOwner(ctx, tx, user.ID); err != nil {
			return nil, err
		}
	}

	shop := models.Shop{
		OwnerID: userID,
		Name:    DefaultShopName,
		Address: DefaultShopAddress,
	}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner_id"}}, DoNothing: true}).
		Create(&shop).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision default shop")
	}

	var existing models.Shop
	if err := tx.WithContext(ctx).Where("owner_id = ?", userID).First(&existing).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provisioned shop")
	}
	return &existing, nil
}

// PromoteToShopOwner sets the user's role to SHOP_OWNER.
func PromoteToShopOwner(ctx context.Context, tx *gorm.DB, userID string) error {
	res := tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", enums.RoleShopOwner)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "promote user role")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func ensureUser(ctx context.Context, tx *gorm.DB, in CustomerInput, role enums.UserRole) (*models.User, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		email = PlaceholderEmail(userID)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultCustomerName
	}

	user := models.User{ID: userID, Email: email, Name: name, Role: role}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user).Error
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already belongs to another account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision user")
	}

	var existing models.User
	if err := tx.WithContext(ctx).Where("id = ?", userID).First(&existing).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provisioned user")
	}
	return &existing, nil
}
