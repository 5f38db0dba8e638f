package authz

import (
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
)

type Action string

const (
	ActionUserUpsert      Action = "user.upsert"
	ActionUserRead        Action = "user.read"
	ActionShopUpsert      Action = "shop.upsert"
	ActionCatalogAdd      Action = "catalog.add"
	ActionOrderCreate     Action = "order.create"
	ActionOrderList       Action = "order.list"
	ActionOrderTransition Action = "order.transition"
	ActionReviewCreate    Action = "review.create"
)

// Resource names the parties an action touches. Only the fields relevant to the
// action need to be set.
type Resource struct {
	UserID       string
	ShopOwnerID  string
	CustomerID   string
	TargetStatus enums.OrderStatus
}

// Policy is the single allow/deny decision point consulted by every handler.
type Policy struct {
	requireIdentity bool
}

func NewPolicy(requireIdentity bool) *Policy {
	return &Policy{requireIdentity: requireIdentity}
}

// RequiresIdentity reports whether anonymous callers are rejected.
func (p *Policy) RequiresIdentity() bool {
	return p != nil && p.requireIdentity
}

// Authorize returns nil when actor may perform action on res.
func (p *Policy) Authorize(actor Actor, action Action, res Resource) error {
	if actor.Anonymous() {
		if p.RequiresIdentity() {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		return nil
	}

	allowed := false
	switch action {
	case ActionUserUpsert, ActionUserRead:
		allowed = isParty(actor, res.UserID)
	case ActionShopUpsert, ActionCatalogAdd:
		allowed = isParty(actor, res.ShopOwnerID)
	case ActionOrderCreate, ActionReviewCreate:
		allowed = isParty(actor, res.CustomerID)
	case ActionOrderList:
		allowed = isParty(actor, res.CustomerID) || isParty(actor, res.ShopOwnerID)
	case ActionOrderTransition:
		switch res.TargetStatus {
		case enums.OrderStatusCancelled:
			allowed = isParty(actor, res.CustomerID) || isParty(actor, res.ShopOwnerID)
		default:
			allowed = isParty(actor, res.ShopOwnerID)
		}
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied").WithDetails(map[string]any{"action": string(action)})
	}
	return nil
}

func isParty(actor Actor, id string) bool {
	return id != "" && actor.UserID == id
}
