package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/identity"
	mockauth "github.com/boycepro/folio/internal/mocks/auth"
)

// fakeSource lets a test push identity notifications directly.
type fakeSource struct {
	mu        sync.Mutex
	listeners []identity.Listener
	initFunc  func(ctx context.Context) error
}

func (f *fakeSource) Init(ctx context.Context) error {
	if f.initFunc != nil {
		return f.initFunc(ctx)
	}
	return nil
}

func (f *fakeSource) OnIdentityChange(fn identity.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeSource) emit(id *domainauth.Identity) {
	f.mu.Lock()
	ls := append([]identity.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range ls {
		fn(id)
	}
}

func (f *fakeSource) RequestSignIn(context.Context, string) error { return nil }

func (f *fakeSource) CompleteSignIn(context.Context, string, identity.EmailPrompt) (domainauth.Identity, error) {
	return domainauth.Identity{}, nil
}

func (f *fakeSource) SignOut(context.Context) error { return nil }

type resolverFunc func(ctx context.Context, id domainauth.Identity) (domainauth.Role, error)

func (f resolverFunc) Resolve(ctx context.Context, id domainauth.Identity) (domainauth.Role, error) {
	return f(ctx, id)
}

type degradedCounter struct{ n atomic.Int32 }

func (d *degradedCounter) RoleLookupDegraded(error) { d.n.Add(1) }

func fixedRole(r domainauth.Role) resolverFunc {
	return func(context.Context, domainauth.Identity) (domainauth.Role, error) { return r, nil }
}

func waitSettled(t *testing.T, c *Context) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := c.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func newStarted(t *testing.T, src IdentitySource, roles resolverFunc, opts ...func(*Options)) *Context {
	t.Helper()
	o := Options{Identity: src, Roles: roles}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := New(o)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestStart_Twice(t *testing.T) {
	c := newStarted(t, &fakeSource{}, fixedRole(domainauth.RoleFree))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
}

func TestSnapshot_BeforeStart(t *testing.T) {
	c, err := New(Options{Identity: &fakeSource{}, Roles: fixedRole(domainauth.RoleFree)})
	require.NoError(t, err)
	snap := c.Snapshot()
	assert.Equal(t, StateUninitialized, snap.State)
	assert.False(t, snap.CanEdit())
}

func TestAnonymousVisitor(t *testing.T) {
	adapter := newAdapter(t, mockauth.NewMockIdentityProvider(), mockauth.NewMemoryAuthStateStore())
	c := newStarted(t, adapter, fixedRole(domainauth.RoleAdmin))

	snap := waitSettled(t, c)
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Nil(t, snap.Identity)
	assert.Equal(t, domainauth.RoleNone, snap.Role)
	assert.False(t, snap.Loading)
	assert.False(t, snap.TimedOut)
}

func TestRestoredIdentityResolvesRole(t *testing.T) {
	states := mockauth.NewMemoryAuthStateStore()
	require.NoError(t, states.Save(context.Background(), "browser-1",
		domainauth.Identity{ID: "uid-1", Email: "admin@x.io"}))
	adapter := newAdapter(t, mockauth.NewMockIdentityProvider(), states)

	c := newStarted(t, adapter, fixedRole(domainauth.RoleAdmin))
	snap := waitSettled(t, c)
	assert.Equal(t, StateAuthenticated, snap.State)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "admin@x.io", snap.Identity.Email)
	assert.Equal(t, domainauth.RoleAdmin, snap.Role)
	assert.True(t, snap.CanEdit())
}

func TestSignInFlowUpdatesThroughNotification(t *testing.T) {
	provider := mockauth.NewMockIdentityProvider()
	adapter := newAdapter(t, provider, mockauth.NewMemoryAuthStateStore())
	c := newStarted(t, adapter, fixedRole(domainauth.RolePro))
	require.Equal(t, StateAnonymous, waitSettled(t, c).State)

	ctx := context.Background()
	require.NoError(t, c.SignIn(ctx, "reader@x.io"))
	_, err := c.CompleteSignIn(ctx, provider.LastLink(), nil)
	require.NoError(t, err)

	snap := waitSettled(t, c)
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, domainauth.RolePro, snap.Role)
	assert.False(t, snap.CanEdit())

	require.NoError(t, c.SignOut(ctx))
	snap = waitSettled(t, c)
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Equal(t, domainauth.RoleNone, snap.Role)
}

func TestRoleLookupFailureDegradesToFree(t *testing.T) {
	src := &fakeSource{}
	counter := &degradedCounter{}
	c := newStarted(t, src, func(context.Context, domainauth.Identity) (domainauth.Role, error) {
		return domainauth.RoleNone, errors.New("database unavailable")
	}, func(o *Options) { o.Degraded = counter })

	src.emit(&domainauth.Identity{ID: "uid-1", Email: "a@x.io"})
	snap := waitSettled(t, c)
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, domainauth.RoleFree, snap.Role)
	assert.Equal(t, int32(1), counter.n.Load())
}

func TestCanceledLookupIsNotDegraded(t *testing.T) {
	src := &fakeSource{}
	counter := &degradedCounter{}
	started := make(chan struct{})
	c, err := New(Options{
		Identity: src,
		Roles: resolverFunc(func(ctx context.Context, _ domainauth.Identity) (domainauth.Role, error) {
			close(started)
			<-ctx.Done()
			return domainauth.RoleNone, ctx.Err()
		}),
		Degraded: counter,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	t.Cleanup(c.Close)

	src.emit(&domainauth.Identity{ID: "uid-1", Email: "a@x.io"})
	<-started
	cancel()

	assert.Never(t, func() bool {
		return counter.n.Load() > 0 || c.Snapshot().State == StateAuthenticated
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestLoadingUntilRoleResolved(t *testing.T) {
	src := &fakeSource{}
	release := make(chan struct{})
	c := newStarted(t, src, func(ctx context.Context, _ domainauth.Identity) (domainauth.Role, error) {
		select {
		case <-release:
			return domainauth.RoleAdmin, nil
		case <-ctx.Done():
			return domainauth.RoleNone, ctx.Err()
		}
	})

	src.emit(&domainauth.Identity{ID: "uid-1", Email: "a@x.io"})
	snap := c.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.True(t, snap.Loading)
	assert.False(t, snap.CanEdit(), "no editing while the role is unknown")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, snap.Loading)

	close(release)
	snap = waitSettled(t, c)
	assert.Equal(t, domainauth.RoleAdmin, snap.Role)
}

func TestStaleRoleResultIsDiscarded(t *testing.T) {
	src := &fakeSource{}
	releaseA := make(chan struct{})
	c := newStarted(t, src, func(ctx context.Context, id domainauth.Identity) (domainauth.Role, error) {
		if id.ID == "a" {
			<-releaseA
			return domainauth.RoleAdmin, nil
		}
		return domainauth.RolePro, nil
	})

	src.emit(&domainauth.Identity{ID: "a", Email: "a@x.io"})
	src.emit(&domainauth.Identity{ID: "b", Email: "b@x.io"})
	snap := waitSettled(t, c)
	require.Equal(t, "b", snap.Identity.ID)
	assert.Equal(t, domainauth.RolePro, snap.Role)

	close(releaseA)
	assert.Never(t, func() bool {
		s := c.Snapshot()
		return s.Role == domainauth.RoleAdmin || s.Identity == nil || s.Identity.ID != "b"
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestSignOutDuringLookupStaysAnonymous(t *testing.T) {
	src := &fakeSource{}
	release := make(chan struct{})
	c := newStarted(t, src, func(context.Context, domainauth.Identity) (domainauth.Role, error) {
		<-release
		return domainauth.RoleAdmin, nil
	})

	src.emit(&domainauth.Identity{ID: "a", Email: "a@x.io"})
	src.emit(nil)
	close(release)
	assert.Never(t, func() bool {
		return c.Snapshot().State != StateAnonymous
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestReadyTimeoutForcesAnonymous(t *testing.T) {
	src := &fakeSource{initFunc: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	c := newStarted(t, src, fixedRole(domainauth.RolePro), func(o *Options) {
		o.ReadyTimeout = 30 * time.Millisecond
	})

	snap := waitSettled(t, c)
	assert.Equal(t, StateAnonymous, snap.State)
	assert.True(t, snap.TimedOut)

	// a late notification still signs the user in
	src.emit(&domainauth.Identity{ID: "late", Email: "late@x.io"})
	snap = waitSettled(t, c)
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.TimedOut)
}

func TestCloseIgnoresLaterNotifications(t *testing.T) {
	src := &fakeSource{}
	c := newStarted(t, src, fixedRole(domainauth.RoleAdmin))
	src.emit(nil)
	waitSettled(t, c)

	c.Close()
	c.Close()
	src.emit(&domainauth.Identity{ID: "a", Email: "a@x.io"})
	assert.Equal(t, StateAnonymous, c.Snapshot().State)
}

func newAdapter(t *testing.T, provider *mockauth.MockIdentityProvider, states *mockauth.MemoryAuthStateStore) *identity.Adapter {
	t.Helper()
	a, err := identity.New(identity.Options{
		Provider:    provider,
		States:      states,
		Tickets:     &mockauth.MemoryTicketStore{},
		BrowserID:   "browser-1",
		CallbackURL: "https://folio.test/auth/callback",
	})
	require.NoError(t, err)
	return a
}
