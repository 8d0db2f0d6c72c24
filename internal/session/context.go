// Package session holds the authentication context of one UI session: who is
// signed in, their resolved role and whether either is still loading.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/identity"
	"github.com/boycepro/folio/internal/ports"
)

// DefaultReadyTimeout bounds how long a session waits for its first identity
// notification before treating the user as anonymous.
const DefaultReadyTimeout = 2 * time.Second

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// ErrAlreadyStarted is returned by Start on a session that was started before.
var ErrAlreadyStarted = errors.New("session: already started")

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State    State
	Identity *domainauth.Identity
	Role     domainauth.Role
	Loading  bool
	// TimedOut is set when no identity notification arrived in time.
	TimedOut bool
}

// SignedIn reports whether the snapshot carries an identity with a resolved role.
func (s Snapshot) SignedIn() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// CanEdit reports whether inline editing is enabled for this session.
func (s Snapshot) CanEdit() bool {
	return s.SignedIn() && domainauth.CanEditContent(s.Role)
}

// IdentitySource is the per-browser identity adapter the session listens to.
type IdentitySource interface {
	Init(ctx context.Context) error
	OnIdentityChange(fn identity.Listener) func()
	RequestSignIn(ctx context.Context, email string) error
	CompleteSignIn(ctx context.Context, link string, prompt identity.EmailPrompt) (domainauth.Identity, error)
	SignOut(ctx context.Context) error
}

// DegradedRecorder counts role lookups that fell back to the free role.
type DegradedRecorder interface {
	RoleLookupDegraded(err error)
}

// Options configures a Context.
type Options struct {
	Identity     IdentitySource
	Roles        ports.RoleResolver
	ReadyTimeout time.Duration
	Degraded     DegradedRecorder
	Logger       *slog.Logger
}

// Context tracks identity and role for one UI session. Role lookups are
// tagged with a generation so a stale result never overwrites a newer one.
type Context struct {
	source       IdentitySource
	roles        ports.RoleResolver
	readyTimeout time.Duration
	degraded     DegradedRecorder
	logger       *slog.Logger

	mu       sync.Mutex
	state    State
	identity *domainauth.Identity
	role     domainauth.Role
	loading  bool
	timedOut bool
	notified bool
	closed   bool
	gen      uint64
	changed  chan struct{}

	runCtx context.Context
	cancel context.CancelFunc
	unsub  func()
	timer  *time.Timer
	wg     sync.WaitGroup
}

// New returns an unstarted session context.
func New(opts Options) (*Context, error) {
	if opts.Identity == nil || opts.Roles == nil {
		return nil, errors.New("session: identity source and role resolver are required")
	}
	timeout := opts.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		source:       opts.Identity,
		roles:        opts.Roles,
		readyTimeout: timeout,
		degraded:     opts.Degraded,
		logger:       logger.With("component", "session"),
		changed:      make(chan struct{}),
	}, nil
}

// Start subscribes to identity changes, initializes the identity source in
// the background and arms the ready timeout. ctx bounds background work.
func (c *Context) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized || c.closed {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateLoading
	c.loading = true
	c.runCtx, c.cancel = context.WithCancel(ctx)
	c.broadcastLocked()
	c.mu.Unlock()

	unsub := c.source.OnIdentityChange(c.onIdentity)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return nil
	}
	c.unsub = unsub
	if !c.notified {
		c.timer = time.AfterFunc(c.readyTimeout, c.onReadyTimeout)
	}
	runCtx := c.runCtx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if err := c.source.Init(runCtx); err != nil && runCtx.Err() == nil {
			c.logger.WarnContext(runCtx, "identity init failed", "error", err)
		}
	}()
	return nil
}

// Close stops listening, cancels in-flight role lookups and waits for them.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	unsub := c.unsub
	cancel := c.cancel
	c.broadcastLocked()
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Snapshot returns the current view.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	var id *domainauth.Identity
	if c.identity != nil {
		cp := *c.identity
		id = &cp
	}
	return Snapshot{
		State:    c.state,
		Identity: id,
		Role:     c.role,
		Loading:  c.loading,
		TimedOut: c.timedOut,
	}
}

// Wait blocks until the session has settled into Authenticated or Anonymous,
// or ctx is done. The latest snapshot is always returned.
func (c *Context) Wait(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		snap := c.snapshotLocked()
		ch := c.changed
		settled := (!c.loading && c.state != StateUninitialized) || c.closed
		c.mu.Unlock()
		if settled {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
}

// SignIn requests a sign-in link for email.
func (c *Context) SignIn(ctx context.Context, email string) error {
	return c.source.RequestSignIn(ctx, email)
}

// CompleteSignIn redeems a sign-in link. The session updates through the
// identity notification that follows, not from the return value.
func (c *Context) CompleteSignIn(ctx context.Context, link string, prompt identity.EmailPrompt) (domainauth.Identity, error) {
	return c.source.CompleteSignIn(ctx, link, prompt)
}

// SignOut ends the sign-in. Local state is cleared even when the provider fails.
func (c *Context) SignOut(ctx context.Context) error {
	return c.source.SignOut(ctx)
}

func (c *Context) onIdentity(id *domainauth.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.notified = true
	c.timedOut = false
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++

	if id == nil {
		c.state = StateAnonymous
		c.identity = nil
		c.role = domainauth.RoleNone
		c.loading = false
		c.broadcastLocked()
		return
	}

	cp := *id
	c.state = StateLoading
	c.identity = &cp
	c.role = domainauth.RoleNone
	c.loading = true
	c.broadcastLocked()

	gen := c.gen
	runCtx := c.runCtx
	if runCtx == nil {
		runCtx = context.Background()
	}
	c.wg.Add(1)
	go c.resolveRole(runCtx, gen, cp)
}

func (c *Context) resolveRole(ctx context.Context, gen uint64, id domainauth.Identity) {
	defer c.wg.Done()
	role, err := c.roles.Resolve(ctx, id)
	if err != nil && ctx.Err() != nil {
		// the request ended; the store did not fail
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	if err != nil {
		degraded := &domainauth.RoleLookupDegraded{IdentityID: id.ID, Cause: err}
		c.logger.WarnContext(ctx, "role lookup degraded to free", "identity_id", id.ID, "error", degraded)
		if c.degraded != nil {
			c.degraded.RoleLookupDegraded(err)
		}
		role = domainauth.RoleFree
	}
	if !role.Valid() || role == domainauth.RoleNone {
		role = domainauth.RoleFree
	}
	c.state = StateAuthenticated
	c.role = role
	c.loading = false
	c.broadcastLocked()
}

func (c *Context) onReadyTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.notified {
		return
	}
	c.logger.Warn("no identity notification before ready timeout, treating as anonymous", "timeout", c.readyTimeout)
	c.state = StateAnonymous
	c.identity = nil
	c.role = domainauth.RoleNone
	c.loading = false
	c.timedOut = true
	c.broadcastLocked()
}

func (c *Context) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
