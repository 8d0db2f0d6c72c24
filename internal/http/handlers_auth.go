package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/http/ui/viewmodel"
	"github.com/boycepro/folio/internal/session"
)

const (
	redirectCookieName   = "post_signin_redirect"
	redirectCookieMaxAge = time.Hour
)

// DevLinkSource exposes links captured by the development sender.
type DevLinkSource interface {
	Latest(email string) (string, bool)
}

// AuthHandlers provides HTTP handlers for the magic-link sign-in flow.
type AuthHandlers struct {
	UI      *UIHandlers
	Cookies CookieConfig
	// DevLinks is set only in development mode.
	DevLinks DevLinkSource
	// SettleTimeout bounds the wait for the role lookup after sign-in.
	SettleTimeout time.Duration
	Logger        *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) settleTimeout() time.Duration {
	if h.SettleTimeout > 0 {
		return h.SettleTimeout
	}
	return 2 * session.DefaultReadyTimeout
}

// requestSession returns the request's session or writes a 500.
func (h *AuthHandlers) requestSession(w http.ResponseWriter, r *http.Request) (*session.Context, bool) {
	sc, ok := GetSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "session_unavailable",
			Err:     errors.New("session middleware not installed"),
		})
	}
	return sc, ok
}

// SignInForm renders the email form.
// GET /auth?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SignInForm(w http.ResponseWriter, r *http.Request) {
	redirect := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if GetSnapshotFromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	h.UI.render(w, http.StatusOK, viewmodel.SignInPage{
		Layout:      buildLayout(r, PageMeta{PageTitle: "Sign in", CurrentPage: PageSignIn}),
		RedirectURI: redirect,
	})
}

type linkRequest struct {
	Email       string `json:"email"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// RequestLink sends a sign-in link to the submitted email.
// POST /auth/link.
func (h *AuthHandlers) RequestLink(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.requestSession(w, r)
	if !ok {
		return
	}

	var in linkRequest
	jsonBody := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if jsonBody {
		if !DecodeJSON(w, r, &in) {
			return
		}
	} else {
		in.Email = r.PostFormValue("email")
		in.RedirectURI = r.PostFormValue("redirect_uri")
	}
	in.RedirectURI = safeRedirectPath(in.RedirectURI)

	err := sc.SignIn(r.Context(), in.Email)
	if jsonBody || wantsJSON(r) {
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		h.Cookies.set(w, r, redirectCookieName, in.RedirectURI, redirectCookieMaxAge)
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
		return
	}

	page := viewmodel.SignInPage{
		Layout:      buildLayout(r, PageMeta{PageTitle: "Sign in", CurrentPage: PageSignIn}),
		Email:       in.Email,
		RedirectURI: in.RedirectURI,
	}
	status := http.StatusOK
	switch {
	case err == nil:
		h.Cookies.set(w, r, redirectCookieName, in.RedirectURI, redirectCookieMaxAge)
		page.Sent = true
		if h.DevLinks != nil {
			if email, normErr := domainauth.NormalizeEmail(in.Email); normErr == nil {
				page.DevLink, _ = h.DevLinks.Latest(email)
			}
		}
	case domainauth.IsInvalidEmail(err):
		status = http.StatusBadRequest
		page.Error = "Please enter a valid email address."
	default:
		h.logger().WarnContext(r.Context(), "sign-in link request failed", "error", err)
		status = http.StatusBadGateway
		page.Error = "We could not send the sign-in link. Please try again."
	}
	h.UI.render(w, status, page)
}

// Callback completes sign-in from the emailed link. When the link was opened
// in a different browser the email is asked for before the link is redeemed.
// GET /auth/callback?mode=signIn&oobCode=<code>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	h.completeSignIn(w, r, requestURL(r), "")
}

// CallbackSubmit completes sign-in with a re-entered email.
// POST /auth/callback.
func (h *AuthHandlers) CallbackSubmit(w http.ResponseWriter, r *http.Request) {
	h.completeSignIn(w, r, r.PostFormValue("link"), r.PostFormValue("email"))
}

func (h *AuthHandlers) completeSignIn(w http.ResponseWriter, r *http.Request, link, email string) {
	sc, ok := h.requestSession(w, r)
	if !ok {
		return
	}

	_, err := sc.CompleteSignIn(r.Context(), link, func() string { return email })
	if err == nil {
		snap := settled(r.Context(), sc, h.settleTimeout())
		redirect := h.postSignInRedirect(w, r)
		h.logger().InfoContext(r.Context(), "signed in", "identity_id", identityID(snap), "role", snap.Role.String())
		if wantsJSON(r) {
			WriteJSON(w, http.StatusOK, statusPayload(snap))
			return
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}

	if wantsJSON(r) {
		WriteServiceError(w, err)
		return
	}
	page := viewmodel.CallbackPage{
		Layout: buildLayout(r, PageMeta{PageTitle: "Finish signing in", CurrentPage: PageCallback}),
		Link:   link,
	}
	status := http.StatusBadRequest
	switch {
	case domainauth.IsMissingEmail(err):
		status = http.StatusOK
		page.NeedEmail = true
	case domainauth.IsInvalidEmail(err):
		page.NeedEmail = true
		page.Error = "Please enter a valid email address."
	case errors.Is(err, domainauth.ErrEmailMismatch):
		page.NeedEmail = true
		page.Error = "That email does not match the sign-in link."
	default:
		page.Error = callbackErrorMessage(err)
		if page.Error == "" {
			h.logger().WarnContext(r.Context(), "sign-in completion failed", "error", err)
			status = http.StatusBadGateway
			page.Error = "Sign-in failed. Please request a new link."
		}
	}
	h.UI.render(w, status, page)
}

func callbackErrorMessage(err error) string {
	switch {
	case errors.Is(err, domainauth.ErrNotSignInLink), errors.Is(err, domainauth.ErrLinkInvalid):
		return "This sign-in link is not valid."
	case errors.Is(err, domainauth.ErrLinkExpired):
		return "This sign-in link has expired."
	case errors.Is(err, domainauth.ErrLinkConsumed):
		return "This sign-in link was already used."
	default:
		return ""
	}
}

// Logout signs the browser out. Local state is cleared even when the provider fails.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.requestSession(w, r)
	if !ok {
		return
	}
	if err := sc.SignOut(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "sign out failed", "error", err)
	}
	if wantsJSON(r) || IsHTMX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out", "redirect_to": "/"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Status returns the current authentication state.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, statusPayload(GetSnapshotFromContext(r.Context())))
}

// DevLatest returns the last link captured for an inbox in development mode.
// GET /auth/dev/latest?email=<email>.
func (h *AuthHandlers) DevLatest(w http.ResponseWriter, r *http.Request) {
	email, err := domainauth.NormalizeEmail(r.URL.Query().Get("email"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	link, ok := h.DevLinks.Latest(email)
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("no link sent to this address")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"email": email, "link": link})
}

func statusPayload(snap session.Snapshot) map[string]any {
	out := map[string]any{
		"authenticated": snap.SignedIn(),
		"state":         snap.State.String(),
		"loading":       snap.Loading,
	}
	if snap.TimedOut {
		out["timed_out"] = true
	}
	if snap.SignedIn() {
		out["user"] = map[string]any{
			"id":    snap.Identity.ID,
			"email": snap.Identity.Email,
			"role":  snap.Role.String(),
		}
		out["can_edit"] = snap.CanEdit()
	}
	return out
}

func identityID(snap session.Snapshot) string {
	if snap.Identity == nil {
		return ""
	}
	return snap.Identity.ID
}

// requestURL rebuilds the absolute URL the browser opened.
func requestURL(r *http.Request) string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	if isSecureRequest(r) {
		u.Scheme = "https"
	}
	return u.String()
}

// postSignInRedirect returns the stored destination and clears the cookie.
func (h *AuthHandlers) postSignInRedirect(w http.ResponseWriter, r *http.Request) string {
	ck, err := r.Cookie(redirectCookieName)
	if err != nil {
		return "/"
	}
	h.Cookies.clear(w, r, redirectCookieName)
	return safeRedirectPath(ck.Value)
}
