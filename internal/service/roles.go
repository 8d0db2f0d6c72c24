package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
)

const defaultRoleLookupTimeout = 5 * time.Second

// RoleServiceOptions groups dependencies for RoleService.
type RoleServiceOptions struct {
	Store  ports.RoleStore
	Logger *slog.Logger
	// LookupTimeout bounds one shared lookup. Defaults to 5s.
	LookupTimeout time.Duration
}

// RoleService resolves the effective role of an identity, provisioning a
// free record on first sight. Concurrent lookups for one identity share a
// single store round trip.
type RoleService struct {
	store   ports.RoleStore
	logger  *slog.Logger
	timeout time.Duration
	group   singleflight.Group
}

// NewRoleService constructs a new RoleService.
func NewRoleService(opts RoleServiceOptions) *RoleService {
	if opts.Store == nil {
		panic("service: RoleServiceOptions.Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = defaultRoleLookupTimeout
	}
	return &RoleService{store: opts.Store, logger: logger, timeout: timeout}
}

var _ ports.RoleResolver = (*RoleService)(nil)

// Resolve returns the stored role for id, creating a free record when none exists.
func (s *RoleService) Resolve(ctx context.Context, id domainauth.Identity) (domainauth.Role, error) {
	if id.ID == "" {
		return domainauth.RoleNone, errors.New("identity ID is required")
	}

	ch := s.group.DoChan(id.ID, func() (any, error) {
		// The shared call must not die with whichever request started it.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.lookup(lookupCtx, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domainauth.RoleNone, res.Err
		}
		return res.Val.(domainauth.Role), nil
	case <-ctx.Done():
		return domainauth.RoleNone, ctx.Err()
	}
}

func (s *RoleService) lookup(ctx context.Context, id domainauth.Identity) (domainauth.Role, error) {
	rec, err := s.store.GetRole(ctx, id.ID)
	if err == nil {
		return effectiveRole(rec.Role), nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return domainauth.RoleNone, fmt.Errorf("get role: %w", err)
	}

	rec, err = s.store.ProvisionDefaultRole(ctx, id.ID, id.Email)
	if err != nil {
		return domainauth.RoleNone, fmt.Errorf("provision default role: %w", err)
	}
	s.logger.InfoContext(ctx, "provisioned role record", "identity_id", id.ID, "role", rec.Role.String())
	return effectiveRole(rec.Role), nil
}

// effectiveRole maps an unset stored role to free; signed-in users always hold one.
func effectiveRole(r domainauth.Role) domainauth.Role {
	if r == domainauth.RoleNone || !r.Valid() {
		return domainauth.RoleFree
	}
	return r
}
