package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
)

const adminConcurrency = 4

// AdminServiceOptions groups dependencies for AdminService.
type AdminServiceOptions struct {
	Identities ports.IdentityAdmin
	Roles      ports.RoleStore
	Logger     *slog.Logger
}

// AdminService assigns roles to existing accounts.
type AdminService struct {
	identities ports.IdentityAdmin
	roles      ports.RoleStore
	logger     *slog.Logger
}

// NewAdminService constructs a new AdminService.
func NewAdminService(opts AdminServiceOptions) *AdminService {
	if opts.Identities == nil || opts.Roles == nil {
		panic("service: AdminServiceOptions.Identities and Roles are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{identities: opts.Identities, roles: opts.Roles, logger: logger}
}

// AssignmentStatus is the outcome of one role assignment.
type AssignmentStatus string

const (
	AssignmentApplied     AssignmentStatus = "applied"
	AssignmentUnknownUser AssignmentStatus = "unknown_user"
	AssignmentFailed      AssignmentStatus = "failed"
)

// RoleAssignment reports what happened to one email.
type RoleAssignment struct {
	Email      string
	IdentityID string
	Role       domainauth.Role
	Status     AssignmentStatus
	Err        error
}

// PromoteAdmins grants the admin role to every email.
func (s *AdminService) PromoteAdmins(ctx context.Context, emails []string) ([]RoleAssignment, error) {
	return s.SetRoles(ctx, domainauth.RoleAdmin, emails)
}

// SetRoles assigns role to every email. All addresses are validated before any
// change is made; an invalid one aborts the batch with an InvalidEmailError.
// Unknown accounts and per-user failures are reported in the results, not as an error.
func (s *AdminService) SetRoles(ctx context.Context, role domainauth.Role, emails []string) ([]RoleAssignment, error) {
	if role == domainauth.RoleNone || !role.Valid() {
		return nil, fmt.Errorf("cannot assign role %q", role.String())
	}
	normalized, err := normalizeEmails(emails)
	if err != nil {
		return nil, err
	}

	results := make([]RoleAssignment, len(normalized))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(adminConcurrency)
	for i, email := range normalized {
		g.Go(func() error {
			results[i] = s.assign(gctx, email, role)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *AdminService) assign(ctx context.Context, email string, role domainauth.Role) RoleAssignment {
	res := RoleAssignment{Email: email, Role: role}

	id, err := s.identities.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainauth.ErrUnknownUser) || errors.Is(err, ports.ErrNotFound) {
			s.logger.WarnContext(ctx, "no account for email, skipping", "email", email)
			res.Status = AssignmentUnknownUser
			return res
		}
		return s.failed(ctx, res, fmt.Errorf("look up account: %w", err))
	}
	res.IdentityID = id.ID

	if err := s.identities.SetCustomClaims(ctx, id.ID, map[string]any{"role": role.String()}); err != nil {
		return s.failed(ctx, res, fmt.Errorf("set custom claims: %w", err))
	}
	if err := s.roles.SetRole(ctx, id.ID, email, role); err != nil {
		return s.failed(ctx, res, fmt.Errorf("set role record: %w", err))
	}

	s.logger.InfoContext(ctx, "role assigned", "email", email, "identity_id", id.ID, "role", role.String())
	res.Status = AssignmentApplied
	return res
}

func (s *AdminService) failed(ctx context.Context, res RoleAssignment, err error) RoleAssignment {
	s.logger.ErrorContext(ctx, "role assignment failed", "email", res.Email, "error", err)
	res.Status = AssignmentFailed
	res.Err = err
	return res
}

// normalizeEmails validates and de-duplicates emails, keeping first-seen order.
func normalizeEmails(emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, errors.New("at least one email is required")
	}
	var (
		out     []string
		invalid []error
		seen    = make(map[string]struct{}, len(emails))
	)
	for _, raw := range emails {
		email, err := domainauth.NormalizeEmail(raw)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	if len(invalid) > 0 {
		return nil, errors.Join(invalid...)
	}
	return out, nil
}

// CountAssignments tallies results by status.
func CountAssignments(results []RoleAssignment) map[AssignmentStatus]int {
	counts := make(map[AssignmentStatus]int, 3)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
