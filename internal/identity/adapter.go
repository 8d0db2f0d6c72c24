// Package identity wraps the shared identity provider for one browser session.
// An Adapter starts Uninitialized, restores the browser's persisted sign-in on
// Init and then reports identity changes to its listeners in order.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
)

// State is the adapter lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// Listener receives the current identity, or nil when nobody is signed in.
type Listener func(id *domainauth.Identity)

// EmailPrompt asks the user to re-enter the email a link was sent to.
// An empty result means the user declined.
type EmailPrompt func() string

// Outcome labels reported to an Observer.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidEmail  = "invalid_email"
	OutcomeProviderError = "provider_error"
	OutcomeMissingEmail  = "missing_email"
)

// Observer is notified of sign-in outcomes, typically to record metrics.
type Observer interface {
	LinkRequested(outcome string)
	SignInCompleted(outcome string)
}

type nopObserver struct{}

func (nopObserver) LinkRequested(string)   {}
func (nopObserver) SignInCompleted(string) {}

// Options configures an Adapter.
type Options struct {
	Provider  ports.IdentityProvider
	States    ports.AuthStateStore
	Tickets   ports.TicketStore
	BrowserID string
	// RotateBrowserID issues a fresh browser id, and the caller re-sends its
	// cookie. It runs after a successful sign-in and on sign-out so that an
	// id known before the change never carries the new auth state.
	RotateBrowserID func() string
	CallbackURL     string
	Observer        Observer
	Logger          *slog.Logger
}

type subscription struct {
	id     int
	fn     Listener
	active bool
}

// Adapter is the per-browser client of the identity provider.
type Adapter struct {
	provider    ports.IdentityProvider
	states      ports.AuthStateStore
	tickets     ports.TicketStore
	callbackURL string
	rotate      func() string
	observer    Observer
	logger      *slog.Logger

	// emitMu serializes listener delivery so notifications arrive in order.
	emitMu sync.Mutex

	mu        sync.Mutex
	browserID string
	state     State
	current   *domainauth.Identity
	subs      []*subscription
	nextSub   int
}

// New validates opts and returns an Uninitialized adapter.
func New(opts Options) (*Adapter, error) {
	if opts.Provider == nil || opts.States == nil || opts.Tickets == nil {
		return nil, errors.New("identity: provider, state store and ticket store are required")
	}
	if opts.BrowserID == "" {
		return nil, errors.New("identity: browser id is required")
	}
	if opts.CallbackURL == "" {
		return nil, errors.New("identity: callback url is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Adapter{
		provider:    opts.Provider,
		states:      opts.States,
		tickets:     opts.Tickets,
		browserID:   opts.BrowserID,
		callbackURL: opts.CallbackURL,
		rotate:      opts.RotateBrowserID,
		observer:    observer,
		logger:      logger.With("component", "identity"),
	}, nil
}

// State reports the lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// BrowserID returns the id the auth state is currently stored under.
func (a *Adapter) BrowserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.browserID
}

// rotateBrowserID swaps in a fresh id and returns the previous one.
func (a *Adapter) rotateBrowserID() (prev, next string) {
	a.mu.Lock()
	prev = a.browserID
	a.mu.Unlock()
	if a.rotate == nil {
		return prev, prev
	}
	next = a.rotate()
	if next == "" {
		return prev, prev
	}
	a.mu.Lock()
	a.browserID = next
	a.mu.Unlock()
	return prev, next
}

// Current returns the signed-in identity, or nil.
func (a *Adapter) Current() *domainauth.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneIdentity(a.current)
}

// Init restores the browser's persisted sign-in, re-validates it with the
// provider, becomes Ready and notifies every listener. Later calls are no-ops.
func (a *Adapter) Init(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateReady {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	restored, err := a.restore(ctx)

	a.mu.Lock()
	if a.state == StateReady {
		// a sign-in or sign-out completed while restoring; it wins
		a.mu.Unlock()
		return nil
	}
	a.state = StateReady
	a.current = restored
	a.mu.Unlock()

	a.emit(restored)
	return err
}

func (a *Adapter) restore(ctx context.Context) (*domainauth.Identity, error) {
	browserID := a.BrowserID()
	stored, err := a.states.Get(ctx, browserID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load auth state: %w", err)
	}
	fresh, err := a.provider.Refresh(ctx, stored)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionRevoked) || errors.Is(err, domainauth.ErrUnknownUser) {
			a.logger.InfoContext(ctx, "persisted sign-in no longer valid", "identity_id", stored.ID, "reason", err)
			if delErr := a.states.Delete(ctx, browserID); delErr != nil {
				a.logger.WarnContext(ctx, "failed to clear auth state", "error", delErr)
			}
			return nil, nil
		}
		return nil, &domainauth.ProviderError{Op: "refresh identity", Cause: err}
	}
	return &fresh, nil
}

// OnIdentityChange registers fn. When the adapter is already Ready, fn
// immediately receives the current identity. The returned func unsubscribes
// and may be called more than once.
func (a *Adapter) OnIdentityChange(fn Listener) func() {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	a.nextSub++
	sub := &subscription{id: a.nextSub, fn: fn, active: true}
	a.subs = append(a.subs, sub)
	ready := a.state == StateReady
	current := cloneIdentity(a.current)
	a.mu.Unlock()

	if ready {
		fn(current)
	}
	return func() { a.unsubscribe(sub.id) }
}

func (a *Adapter) unsubscribe(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.subs {
		if s.id == id {
			s.active = false
			a.subs = append(a.subs[:i], a.subs[i+1:]...)
			return
		}
	}
}

func (a *Adapter) emit(id *domainauth.Identity) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	if a.state != StateReady {
		a.mu.Unlock()
		return
	}
	subs := append([]*subscription(nil), a.subs...)
	a.mu.Unlock()

	for _, s := range subs {
		a.mu.Lock()
		active := s.active
		a.mu.Unlock()
		if active {
			s.fn(cloneIdentity(id))
		}
	}
}

// RequestSignIn asks the provider to email a one-time link to email and
// records the pending ticket. Invalid addresses fail before any network call.
func (a *Adapter) RequestSignIn(ctx context.Context, email string) error {
	normalized, err := domainauth.NormalizeEmail(email)
	if err != nil {
		a.observer.LinkRequested(OutcomeInvalidEmail)
		return err
	}
	if err := a.provider.SendSignInLink(ctx, ports.SendLinkInput{
		Email:       normalized,
		CallbackURL: a.callbackURL,
	}); err != nil {
		a.observer.LinkRequested(OutcomeProviderError)
		return &domainauth.ProviderError{Op: "send sign-in link", Cause: err}
	}
	a.tickets.Store(domainauth.PendingTicket{Email: normalized})
	a.observer.LinkRequested(OutcomeOK)
	return nil
}

// IsSignInLink reports whether link is a sign-in link. It has no side effects.
func (a *Adapter) IsSignInLink(link string) bool {
	return a.provider.IsSignInLink(link)
}

// CompleteSignIn redeems link. The email comes from the pending ticket, or
// from prompt when the link is opened in a browser without one.
func (a *Adapter) CompleteSignIn(ctx context.Context, link string, prompt EmailPrompt) (domainauth.Identity, error) {
	if !a.provider.IsSignInLink(link) {
		a.observer.SignInCompleted(OutcomeProviderError)
		return domainauth.Identity{}, &domainauth.ProviderError{Op: "complete sign-in", Cause: domainauth.ErrNotSignInLink}
	}

	email := ""
	if t, ok := a.tickets.Load(); ok {
		email = t.Email
	}
	if email == "" && prompt != nil {
		email = prompt()
	}
	if email == "" {
		a.observer.SignInCompleted(OutcomeMissingEmail)
		return domainauth.Identity{}, &domainauth.MissingEmailError{}
	}
	normalized, err := domainauth.NormalizeEmail(email)
	if err != nil {
		a.observer.SignInCompleted(OutcomeInvalidEmail)
		return domainauth.Identity{}, err
	}

	id, err := a.provider.SignInWithLink(ctx, normalized, link)
	if err != nil {
		a.observer.SignInCompleted(OutcomeProviderError)
		return domainauth.Identity{}, &domainauth.ProviderError{Op: "complete sign-in", Cause: err}
	}

	a.tickets.Clear()
	prev, next := a.rotateBrowserID()
	if prev != next {
		if err := a.states.Delete(ctx, prev); err != nil {
			a.logger.WarnContext(ctx, "failed to clear pre-sign-in auth state", "error", err)
		}
	}
	if err := a.states.Save(ctx, next, id); err != nil {
		a.logger.WarnContext(ctx, "failed to persist auth state", "identity_id", id.ID, "error", err)
	}
	a.setCurrent(&id)
	a.observer.SignInCompleted(OutcomeOK)
	return id, nil
}

// SignOut revokes the current sign-in with the provider and always clears
// local state. A provider failure is returned for logging only.
func (a *Adapter) SignOut(ctx context.Context) error {
	current := a.Current()

	var revokeErr error
	if current != nil {
		if err := a.provider.Revoke(ctx, current.ID); err != nil {
			revokeErr = &domainauth.ProviderError{Op: "sign out", Cause: err}
		}
	}
	if err := a.states.Delete(ctx, a.BrowserID()); err != nil {
		a.logger.WarnContext(ctx, "failed to clear auth state", "error", err)
	}
	a.rotateBrowserID()
	a.setCurrent(nil)
	return revokeErr
}

func (a *Adapter) setCurrent(id *domainauth.Identity) {
	a.mu.Lock()
	a.current = cloneIdentity(id)
	a.state = StateReady
	a.mu.Unlock()
	a.emit(id)
}

func cloneIdentity(id *domainauth.Identity) *domainauth.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
