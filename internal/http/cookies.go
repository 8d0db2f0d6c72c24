package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
)

// Cookie names.
const (
	BrowserCookieName = "sid"
	TicketCookieName  = "emailForSignIn"
)

const (
	browserCookieMaxAge = 400 * 24 * time.Hour
	ticketCookieMaxAge  = time.Hour
)

// CookieConfig holds attributes shared by every cookie the server sets.
type CookieConfig struct {
	Domain string
}

// isSecureRequest reports whether the request arrived over TLS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func (c CookieConfig) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes used when it was set.
func (c CookieConfig) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// ensureBrowserID returns the browser's sid, issuing a new one when the
// cookie is missing or malformed.
func (c CookieConfig) ensureBrowserID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(BrowserCookieName); err == nil {
		if id, parseErr := uuid.Parse(ck.Value); parseErr == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	c.set(w, r, BrowserCookieName, id, browserCookieMaxAge)
	return id
}

// rotateBrowserID issues a fresh sid. Any sid cookie already queued on this
// response is replaced so the browser sees exactly one.
func (c CookieConfig) rotateBrowserID(w http.ResponseWriter, r *http.Request) string {
	dropSetCookie(w.Header(), BrowserCookieName)
	id := uuid.NewString()
	c.set(w, r, BrowserCookieName, id, browserCookieMaxAge)
	return id
}

func dropSetCookie(h http.Header, name string) {
	prefix := name + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
}

var _ ports.TicketStore = (*cookieTicketStore)(nil)

// cookieTicketStore keeps the pending sign-in ticket in a browser cookie so
// a link opened in the same browser completes without asking for the email.
type cookieTicketStore struct {
	w       http.ResponseWriter
	r       *http.Request
	cookies CookieConfig

	ticket  domainauth.PendingTicket
	ok      bool
	present bool
}

func newCookieTicketStore(w http.ResponseWriter, r *http.Request, cookies CookieConfig) *cookieTicketStore {
	s := &cookieTicketStore{w: w, r: r, cookies: cookies}
	ck, err := r.Cookie(TicketCookieName)
	if err != nil {
		return s
	}
	s.present = true
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return s
	}
	var t domainauth.PendingTicket
	if json.Unmarshal(raw, &t) == nil && t.Email != "" {
		s.ticket, s.ok = t, true
	}
	return s
}

func (s *cookieTicketStore) Load() (domainauth.PendingTicket, bool) {
	return s.ticket, s.ok
}

func (s *cookieTicketStore) Store(t domainauth.PendingTicket) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	s.ticket, s.ok, s.present = t, true, true
	s.cookies.set(s.w, s.r, TicketCookieName, base64.RawURLEncoding.EncodeToString(raw), ticketCookieMaxAge)
}

func (s *cookieTicketStore) Clear() {
	if !s.present {
		return
	}
	s.ticket, s.ok, s.present = domainauth.PendingTicket{}, false, false
	s.cookies.clear(s.w, s.r, TicketCookieName)
}
