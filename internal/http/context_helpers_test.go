package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/session"
)

func TestGetSnapshotFromContext_DefaultsToAnonymous(t *testing.T) {
	snap := GetSnapshotFromContext(context.Background())
	assert.Equal(t, session.StateAnonymous, snap.State)
	assert.False(t, snap.SignedIn())
	assert.True(t, IsAnonymous(context.Background()))
	assert.Equal(t, domainauth.RoleNone, RoleFromContext(context.Background()))

	_, ok := GetSessionFromContext(context.Background())
	assert.False(t, ok)
}

func TestSetSessionInContext_NilSessionIsIgnored(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil, session.Snapshot{State: session.StateAuthenticated}))
}

func TestSetSessionInContext(t *testing.T) {
	sc := &session.Context{}
	id := &domainauth.Identity{ID: "u1", Email: "pro@example.com"}
	snap := session.Snapshot{State: session.StateAuthenticated, Identity: id, Role: domainauth.RolePro}

	ctx := SetSessionInContext(context.Background(), sc, snap)

	got, ok := GetSessionFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, sc, got)
	assert.Equal(t, snap, GetSnapshotFromContext(ctx))
	assert.False(t, IsAnonymous(ctx))
	assert.Equal(t, domainauth.RolePro, RoleFromContext(ctx))
}

func TestRoleFromContext_IgnoresRoleWithoutIdentity(t *testing.T) {
	// A role left over on a loading snapshot must not grant anything.
	snap := session.Snapshot{State: session.StateLoading, Role: domainauth.RoleAdmin, Loading: true}
	ctx := SetSessionInContext(context.Background(), &session.Context{}, snap)
	assert.Equal(t, domainauth.RoleNone, RoleFromContext(ctx))
	assert.True(t, IsAnonymous(ctx))
}
