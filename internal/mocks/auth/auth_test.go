package auth

import (
	"context"
	"testing"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockIdentityProvider_LinkRoundTrip(t *testing.T) {
	p := NewMockIdentityProvider()
	ctx := context.Background()

	require.NoError(t, p.SendSignInLink(ctx, ports.SendLinkInput{
		Email:       "reader@example.com",
		CallbackURL: "http://localhost:8080/auth/callback",
	}))
	link := p.LastLink()
	assert.True(t, p.IsSignInLink(link))
	assert.False(t, p.IsSignInLink("http://localhost:8080/auth/callback"))

	id, err := p.SignInWithLink(ctx, "reader@example.com", link)
	require.NoError(t, err)
	assert.Equal(t, "uid-reader@example.com", id.ID)
	assert.True(t, id.EmailVerified)

	_, err = p.SignInWithLink(ctx, "reader@example.com", link)
	assert.ErrorIs(t, err, domainauth.ErrLinkConsumed)
	assert.Equal(t, 2, p.Calls("signin"))
}

func TestMockIdentityProvider_Revoke(t *testing.T) {
	p := NewMockIdentityProvider()
	ctx := context.Background()
	id := domainauth.Identity{ID: "u1", Email: "a@example.com"}

	_, err := p.Refresh(ctx, id)
	require.NoError(t, err)
	require.NoError(t, p.Revoke(ctx, "u1"))
	_, err = p.Refresh(ctx, id)
	assert.ErrorIs(t, err, domainauth.ErrSessionRevoked)
}

func TestMemoryRoleStore_ProvisionKeepsExisting(t *testing.T) {
	s := NewMemoryRoleStore()
	ctx := context.Background()

	_, err := s.GetRole(ctx, "u1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, s.SetRole(ctx, "u1", "a@example.com", domainauth.RolePro))
	rec, err := s.ProvisionDefaultRole(ctx, "u1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RolePro, rec.Role)
	assert.Equal(t, 1, s.Count())
}

func TestMemoryContentStore_Versioning(t *testing.T) {
	s := NewMemoryContentStore()
	ctx := context.Background()

	sec, err := s.SaveSection(ctx, model.SaveSectionRequest{PageID: "home", Key: "hero", Content: "a"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, sec.Version)

	_, err = s.SaveSection(ctx, model.SaveSectionRequest{PageID: "home", Key: "hero", Content: "b"})
	assert.ErrorIs(t, err, domainauth.ErrVersionConflict)

	sec, err = s.SaveSection(ctx, model.SaveSectionRequest{PageID: "home", Key: "hero", Content: "b", ExpectedVersion: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, sec.Version)
}

func TestMemoryTicketStore(t *testing.T) {
	var s MemoryTicketStore
	_, ok := s.Load()
	assert.False(t, ok)
	s.Store(domainauth.PendingTicket{Email: "a@example.com"})
	tk, ok := s.Load()
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", tk.Email)
	s.Clear()
	_, ok = s.Load()
	assert.False(t, ok)
}
