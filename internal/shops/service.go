package shops

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
)

const ownerMissingMessage = "User account not found. Please log out and sign up again."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes shop operations.
type Service interface {
	CreateOrUpdate(ctx context.Context, actor authz.Actor, input UpsertShopInput) (*ShopDTO, error)
	List(ctx context.Context, ownerID string) ([]ShopSummary, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
	policy *authz.Policy
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter, policy *authz.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shops repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if policy == nil {
		return nil, fmt.Errorf("authorization policy required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, policy: policy}, nil
}

// CreateOrUpdate upserts the owner's single shop and promotes the owner to
// SHOP_OWNER in the same transaction.
func (s *service) CreateOrUpdate(ctx context.Context, actor authz.Actor, input UpsertShopInput) (*ShopDTO, error) {
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	if input.OwnerID == "" || input.Name == "" || input.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	if err := s.policy.Authorize(actor, authz.ActionShopUpsert, authz.Resource{ShopOwnerID: input.OwnerID}); err != nil {
		return nil, err
	}

	var result *models.Shop
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.WithContext(ctx).Select("id", "role").First(&owner, "id = ?", input.OwnerID).Error; err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, ownerMissingMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop owner")
		}

		shop, err := s.repo.WithTx(tx).UpsertByOwner(ctx, &models.Shop{
			OwnerID:     input.OwnerID,
			Name:        input.Name,
			Description: strings.TrimSpace(input.Description),
			Address:     input.Address,
			Phone:       strings.TrimSpace(input.Phone),
			Email:       strings.TrimSpace(input.Email),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert shop")
		}

		if owner.Role != enums.RoleShopOwner {
			if err := provisioning.PromoteToShopOwner(ctx, tx, owner.ID); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShopUpserted,
			AggregateType: enums.AggregateShop,
			AggregateID:   shop.ID,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID, Role: string(enums.RoleShopOwner)},
			Data: payloads.ShopUpsertedEvent{
				ShopID:  shop.ID,
				OwnerID: shop.OwnerID,
				Name:    shop.Name,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit shop_upserted")
		}
		result = shop
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) List(ctx context.Context, ownerID string) ([]ShopSummary, error) {
	shops, err := s.repo.List(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}

	ids := make([]uuid.UUID, 0, len(shops))
	for _, shop := range shops {
		ids = append(ids, shop.ID)
	}
	reviews, err := s.repo.ReviewAggregates(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}
	services, err := s.repo.ServiceCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count services")
	}

	out := make([]ShopSummary, 0, len(shops))
	for i := range shops {
		agg := reviews[shops[i].ID]
		out = append(out, ShopSummary{
			ShopDTO:      *FromModel(&shops[i]),
			Rating:       averageRating(agg.RatingSum, agg.ReviewCount),
			ReviewCount:  agg.ReviewCount,
			ServiceCount: services[shops[i].ID],
		})
	}
	return out, nil
}
