// Package actorctx carries the resolved request actor on a context.Context so handlers receive it
// explicitly instead of reading ambient state.
package actorctx

import (
	"context"

	"github.com/geocoder89/orgdir/internal/policy"
)

type ctxKey struct{}

func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns the actor and whether an authenticated one is present.
func ActorFrom(ctx context.Context) (policy.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(policy.Actor)

	return a, ok && a.Authenticated()
}
