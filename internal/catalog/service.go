package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog operations.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]ServiceDTO, error)
	Add(ctx context.Context, actor authz.Actor, input AddServiceInput) (*ServiceDTO, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	policy *authz.Policy
	now    func() time.Time
}

func NewService(repo *Repository, tx txRunner, policy *authz.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if policy == nil {
		return nil, fmt.Errorf("authorization policy required")
	}
	return &service{repo: repo, tx: tx, policy: policy, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ServiceDTO, error) {
	shopRaw := strings.TrimSpace(filter.ShopID)
	ownerID := strings.TrimSpace(filter.OwnerID)

	var shopID uuid.UUID
	switch {
	case shopRaw != "":
		parsed, err := uuid.Parse(shopRaw)
		if err != nil {
			// no shop can carry a malformed id
			return []ServiceDTO{}, nil
		}
		shopID = parsed
	case ownerID != "":
		id, err := s.repo.FindShopIDByOwner(ctx, ownerID)
		if err != nil {
			if db.IsNotFound(err) {
				return []ServiceDTO{}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve owner shop")
		}
		shopID = id
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing uid or shopId")
	}

	rows, err := s.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return FromModels(rows), nil
}

// Add attaches a service to the owner's shop, provisioning the owner and a
// default shop first when either is missing.
func (s *service) Add(ctx context.Context, actor authz.Actor, input AddServiceInput) (*ServiceDTO, error) {
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	input.Name = strings.TrimSpace(input.Name)
	if input.OwnerID == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Price must be zero or greater").WithDetails(map[string]string{"price": "must be greater than or equal to 0"})
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = DefaultCategory
	}
	if err := s.policy.Authorize(actor, authz.ActionCatalogAdd, authz.Resource{ShopOwnerID: input.OwnerID}); err != nil {
		return nil, err
	}

	var created models.Service
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shop, err := provisioning.EnsureShopOwner(ctx, tx, input.OwnerID)
		if err != nil {
			return err
		}
		created = models.Service{
			ShopID:    shop.ID,
			Name:      input.Name,
			Category:  category,
			Price:     input.Price.Round(2),
			CreatedAt: s.now().UTC(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(&created)
	return &dto, nil
}
