package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boycepro/folio/internal/data/pgxutil"
	domainauth "github.com/boycepro/folio/internal/domain/auth"
	apperrors "github.com/boycepro/folio/internal/errors"
	"github.com/jackc/pgx/v5"
)

// RoleRepo stores one role record per identity in user_roles.
type RoleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRoleRepo creates a new RoleRepo with the given database connection.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const roleColumns = `id, email, role, created_at, updated_at`

type roleRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r roleRow) record() (domainauth.RoleRecord, error) {
	role, err := domainauth.ParseRole(r.Role)
	if err != nil {
		return domainauth.RoleRecord{}, fmt.Errorf("role record %s: %w", r.ID, err)
	}
	return domainauth.RoleRecord{
		ID:        r.ID,
		Email:     r.Email,
		Role:      role,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func queryRole(ctx context.Context, conn *pgx.Conn, id string) (roleRow, error) {
	rows, err := conn.Query(ctx, `SELECT `+roleColumns+` FROM user_roles WHERE id = $1`, id)
	if err != nil {
		return roleRow{}, err
	}
	defer rows.Close()
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[roleRow])
}

// GetRole returns the stored record for id, or ErrRoleNotFound.
func (r *RoleRepo) GetRole(ctx context.Context, id string) (domainauth.RoleRecord, error) {
	if strings.TrimSpace(id) == "" {
		return domainauth.RoleRecord{}, ErrIDRequired
	}
	var row roleRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		row, e = queryRole(ctx, conn, id)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.RoleRecord{}, ErrRoleNotFound
		}
		return domainauth.RoleRecord{}, fmt.Errorf("get role: %w", apperrors.MapDBError(err))
	}
	return row.record()
}

// ProvisionDefaultRole inserts a free record unless one already exists, then
// returns whatever is stored. Concurrent callers all observe the same record
// and an existing role is never overwritten.
func (r *RoleRepo) ProvisionDefaultRole(ctx context.Context, id, email string) (domainauth.RoleRecord, error) {
	if strings.TrimSpace(id) == "" {
		return domainauth.RoleRecord{}, ErrIDRequired
	}
	now := r.timeProvider.Now().UTC()
	var row roleRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, `
			INSERT INTO user_roles (id, email, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (id) DO NOTHING
		`, id, email, domainauth.RoleFree.String(), now); err != nil {
			return err
		}
		var e error
		row, e = queryRole(ctx, conn, id)
		return e
	})
	if err != nil {
		return domainauth.RoleRecord{}, fmt.Errorf("provision role: %w", apperrors.MapDBError(err))
	}
	return row.record()
}

// SetRole creates or overwrites the record for id.
func (r *RoleRepo) SetRole(ctx context.Context, id, email string, role domainauth.Role) error {
	if strings.TrimSpace(id) == "" {
		return ErrIDRequired
	}
	if role == domainauth.RoleNone || !role.Valid() {
		return fmt.Errorf("set role: invalid role %q", role)
	}
	now := r.timeProvider.Now().UTC()
	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, `
			INSERT INTO user_roles (id, email, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (id) DO UPDATE
			SET email = EXCLUDED.email, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
		`, id, email, role.String(), now); err != nil {
			return fmt.Errorf("set role: %w", apperrors.MapDBError(err))
		}
		return nil
	})
}
