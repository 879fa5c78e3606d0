package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/stretchr/testify/require"
)

func TestActorRoundTrip(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	require.False(t, ok)

	ctx := WithActor(context.Background(), policy.Actor{})
	_, ok = ActorFrom(ctx)
	require.False(t, ok, "zero actor is anonymous")

	org := int64(3)
	ctx = WithActor(context.Background(), policy.Actor{UserID: 9, OrganizationID: &org, Roles: policy.NewRoleSet("Viewer")})
	a, ok := ActorFrom(ctx)
	require.True(t, ok)
	require.Equal(t, int64(9), a.UserID)
	require.True(t, policy.IsViewer(a))
}
