package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
)

func TestIsSecureRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, isSecureRequest(req))

	req.Header.Set("X-Forwarded-Proto", "http, HTTPS")
	assert.True(t, isSecureRequest(req))

	tlsReq := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	assert.True(t, isSecureRequest(tlsReq))
}

func TestEnsureBrowserID(t *testing.T) {
	cfg := CookieConfig{Domain: "example.com"}

	t.Run("issues id when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		id := cfg.ensureBrowserID(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(id)
		require.NoError(t, err)
		ck := findCookie(rec.Result().Cookies(), BrowserCookieName)
		require.NotNil(t, ck)
		assert.Equal(t, id, ck.Value)
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, "example.com", ck.Domain)
		assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	})

	t.Run("keeps valid id", func(t *testing.T) {
		existing := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: existing})
		rec := httptest.NewRecorder()

		assert.Equal(t, existing, cfg.ensureBrowserID(rec, req))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: "not-a-uuid"})
		rec := httptest.NewRecorder()

		id := cfg.ensureBrowserID(rec, req)
		assert.NotEqual(t, "not-a-uuid", id)
		assert.NotNil(t, findCookie(rec.Result().Cookies(), BrowserCookieName))
	})
}

func TestCookieTicketStore_RoundTripsThroughCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	store := newCookieTicketStore(rec, httptest.NewRequest(http.MethodPost, "/auth/link", nil), CookieConfig{})
	_, ok := store.Load()
	require.False(t, ok)

	store.Store(domainauth.PendingTicket{Email: "reader@example.com"})
	ck := findCookie(rec.Result().Cookies(), TicketCookieName)
	require.NotNil(t, ck)

	// The next request from the same browser carries the cookie.
	next := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	next.AddCookie(ck)
	loaded := newCookieTicketStore(httptest.NewRecorder(), next, CookieConfig{})
	got, ok := loaded.Load()
	require.True(t, ok)
	assert.Equal(t, "reader@example.com", got.Email)
}

func TestCookieTicketStore_Clear(t *testing.T) {
	t.Run("expires present cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
		req.AddCookie(&http.Cookie{Name: TicketCookieName, Value: "%%garbage"})
		rec := httptest.NewRecorder()
		store := newCookieTicketStore(rec, req, CookieConfig{})

		_, ok := store.Load()
		assert.False(t, ok)
		store.Clear()

		ck := findCookie(rec.Result().Cookies(), TicketCookieName)
		require.NotNil(t, ck)
		assert.Equal(t, -1, ck.MaxAge)
	})

	t.Run("no cookie no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newCookieTicketStore(rec, httptest.NewRequest(http.MethodGet, "/", nil), CookieConfig{}).Clear()
		assert.Empty(t, rec.Result().Cookies())
	})
}
