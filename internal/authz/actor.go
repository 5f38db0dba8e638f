package authz

import (
	"context"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// Actor is the caller identity resolved for a single request.
// The zero value is an anonymous caller.
type Actor struct {
	UserID        string
	Role          enums.UserRole
	Email         string
	Authenticated bool
}

// Anonymous reports whether no verified identity accompanied the request.
func (a Actor) Anonymous() bool {
	return !a.Authenticated
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the request actor, or an anonymous one.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok {
		return actor
	}
	return Actor{}
}
