package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes review capture.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateReviewInput) (*ReviewDTO, error)
	List(ctx context.Context, shopID string) ([]ReviewDTO, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
	policy *authz.Policy
	now    func() time.Time
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter, policy *authz.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
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
	return &service{repo: repo, tx: tx, outbox: emitter, policy: policy, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateReviewInput) (*ReviewDTO, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" || strings.TrimSpace(input.ShopID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing fields")
	}
	if input.Rating < MinRating || input.Rating > MaxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be 1-5").WithDetails(map[string]string{"rating": "must be between 1 and 5"})
	}
	shopID, err := uuid.Parse(strings.TrimSpace(input.ShopID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shopId").WithDetails(map[string]string{"shopId": "must be a valid uuid"})
	}
	if err := s.policy.Authorize(actor, authz.ActionReviewCreate, authz.Resource{CustomerID: customerID}); err != nil {
		return nil, err
	}

	var created models.Review
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ShopExists(ctx, shopID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Shop not found")
		}
		if _, err := provisioning.EnsureCustomer(ctx, tx, provisioning.CustomerInput{UserID: customerID}); err != nil {
			return err
		}

		var comment *string
		if input.Comment != nil {
			if trimmed := strings.TrimSpace(*input.Comment); trimmed != "" {
				comment = &trimmed
			}
		}
		created = models.Review{
			CustomerID: customerID,
			ShopID:     shopID,
			Rating:     input.Rating,
			Comment:    comment,
			CreatedAt:  s.now().UTC(),
		}
		if err := repo.Create(ctx, &created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: customerID, Role: string(enums.RoleCustomer)},
			Data: payloads.ReviewCreatedEvent{
				ReviewID:   created.ID,
				ShopID:     created.ShopID,
				CustomerID: created.CustomerID,
				Rating:     created.Rating,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit review_created")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(&created)
	return &dto, nil
}

func (s *service) List(ctx context.Context, shopID string) ([]ReviewDTO, error) {
	raw := strings.TrimSpace(shopID)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Shop ID required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return []ReviewDTO{}, nil
	}
	rows, err := s.repo.ListByShop(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}
