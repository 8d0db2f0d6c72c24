package redis

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
	"github.com/boycepro/folio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthStateStore_SaveAndGet(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	store := NewAuthStateStore(client, AuthStateStoreOptions{TTL: time.Hour})
	ctx := context.Background()

	id := domainauth.Identity{
		ID:            "4c1f7a4e-6a0e-4b59-9d39-0b3f1d7c2a11",
		Email:         "reader@example.com",
		EmailVerified: true,
		SignedInAt:    testutil.TestTime(),
	}
	require.NoError(t, store.Save(ctx, "browser-1", id))

	got, err := store.Get(ctx, "browser-1")
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)
	assert.Equal(t, id.Email, got.Email)
	assert.True(t, got.EmailVerified)
	assert.True(t, got.SignedInAt.Equal(id.SignedInAt))

	assert.Equal(t, time.Hour, mr.TTL("authstate:browser-1"))
}

func TestAuthStateStore_GetMissingAndExpired(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	store := NewAuthStateStore(client, AuthStateStoreOptions{TTL: time.Minute})
	ctx := context.Background()

	_, err := store.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "browser-2", domainauth.Identity{ID: "u2", Email: "b@example.com"}))
	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "browser-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthStateStore_Delete(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAuthStateStore(client, AuthStateStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "browser-3", domainauth.Identity{ID: "u3"}))
	require.NoError(t, store.Delete(ctx, "browser-3"))
	require.NoError(t, store.Delete(ctx, ""))
	_, err := store.Get(ctx, "browser-3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthStateStore_SaveValidation(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAuthStateStore(client, AuthStateStoreOptions{})

	assert.Error(t, store.Save(context.Background(), "", domainauth.Identity{ID: "u"}))
	assert.Error(t, store.Save(context.Background(), "b", domainauth.Identity{}))
}

func TestLinkLedger_ConsumeOnce(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	ledger := NewLinkLedger(client)
	ctx := context.Background()

	first, err := ledger.Consume(ctx, "jti-1", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := ledger.Consume(ctx, "jti-1", 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	assert.True(t, mr.Exists("magiclink:used:jti-1"))

	_, err = ledger.Consume(ctx, "", time.Minute)
	assert.Error(t, err)
}
