package users

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes user account operations.
type Service interface {
	Upsert(ctx context.Context, actor authz.Actor, input UpsertUserInput) (*UserDTO, error)
	Get(ctx context.Context, actor authz.Actor, id string) (*UserDTO, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	policy *authz.Policy
}

func NewService(repo *Repository, tx txRunner, policy *authz.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if policy == nil {
		return nil, fmt.Errorf("authorization policy required")
	}
	return &service{repo: repo, tx: tx, policy: policy}, nil
}

func (s *service) Upsert(ctx context.Context, actor authz.Actor, input UpsertUserInput) (*UserDTO, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.ID == "" || input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email").WithDetails(map[string]string{"email": "must be a valid email"})
	}
	if err := s.policy.Authorize(actor, authz.ActionUserUpsert, authz.Resource{UserID: input.ID}); err != nil {
		return nil, err
	}

	var userID string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByIDForUpdate(ctx, input.ID)
		if err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if db.IsNotFound(err) {
			existing = nil
		}

		byEmail, err := repo.FindByEmail(ctx, input.Email)
		if err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user by email")
		}
		if db.IsNotFound(err) {
			byEmail = nil
		}

		requested := enums.NormalizeRole(input.Role)
		if strings.EqualFold(strings.TrimSpace(input.Intent), IntentSignup) {
			if match := firstNonNil(existing, byEmail); match != nil {
				return accountExists(match.Role, requested)
			}
		}
		if byEmail != nil && byEmail.ID != input.ID {
			return pkgerrors.New(pkgerrors.CodeConflict, "Email is already associated with another account")
		}

		if existing == nil {
			name := input.Name
			if name == "" {
				name = strings.SplitN(input.Email, "@", 2)[0]
			}
			user := &models.User{
				ID:          input.ID,
				Email:       input.Email,
				Name:        name,
				Role:        requested,
				Phone:       input.Phone,
				Address:     input.Address,
				Age:         input.Age,
				Description: input.Description,
				DateOfBirth: input.DateOfBirth,
			}
			if err := repo.Create(ctx, user); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Email is already associated with another account")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
			}
			userID = user.ID
			return nil
		}

		if err := repo.Update(ctx, existing.ID, updatesFor(input)); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Email is already associated with another account")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
		userID = existing.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, id string) (*UserDTO, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "User ID required")
	}
	if err := s.policy.Authorize(actor, authz.ActionUserRead, authz.Resource{UserID: id}); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func updatesFor(input UpsertUserInput) map[string]any {
	updates := map[string]any{"email": input.Email}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if strings.TrimSpace(input.Role) != "" {
		updates["role"] = enums.NormalizeRole(input.Role)
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Age != nil {
		updates["age"] = *input.Age
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.DateOfBirth != nil {
		updates["date_of_birth"] = *input.DateOfBirth
	}
	return updates
}

func accountExists(existing, requested enums.UserRole) error {
	message := "An account with this email already exists. Please sign in instead."
	if existing != requested {
		message = fmt.Sprintf("An account with this email already exists as a %s. Please sign in instead.", roleLabel(existing))
	}
	return pkgerrors.New(pkgerrors.CodeAccountExists, message).WithDetails(map[string]any{
		"existingRole": existing,
	})
}

func roleLabel(role enums.UserRole) string {
	if role == enums.RoleShopOwner {
		return "shop owner"
	}
	return "customer"
}

func firstNonNil(users ...*models.User) *models.User {
	for _, u := range users {
		if u != nil {
			return u
		}
	}
	return nil
}
