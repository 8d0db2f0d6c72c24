package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boycepro/folio/internal/data/pgxutil"
	apperrors "github.com/boycepro/folio/internal/errors"
	"github.com/boycepro/folio/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdentityRepo stores provider-side accounts for the magic-link provider.
type IdentityRepo struct {
	DB *sql.DB
}

// NewIdentityRepo creates a new IdentityRepo with the given database connection.
func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{DB: db}
}

const identityColumns = `id::text AS id, email, claims, tokens_valid_after, created_at, last_sign_in_at`

func (r *IdentityRepo) queryOne(ctx context.Context, query string, args ...any) (ports.IdentityRecord, error) {
	var out ports.IdentityRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[ports.IdentityRecord])
		return e
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.IdentityRecord{}, ErrIdentityNotFound
	}
	return out, err
}

// RecordSignIn upserts the account for email and stamps its last sign-in.
func (r *IdentityRepo) RecordSignIn(ctx context.Context, email string, at time.Time) (ports.IdentityRecord, error) {
	if strings.TrimSpace(email) == "" {
		return ports.IdentityRecord{}, errors.New("email is required")
	}
	rec, err := r.queryOne(ctx, `
		INSERT INTO identities (email, last_sign_in_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET last_sign_in_at = EXCLUDED.last_sign_in_at
		RETURNING `+identityColumns, email, at.UTC())
	if err != nil {
		return ports.IdentityRecord{}, fmt.Errorf("record sign-in: %w", err)
	}
	return rec, nil
}

// GetByID returns the account with id, or ErrIdentityNotFound.
func (r *IdentityRepo) GetByID(ctx context.Context, id string) (ports.IdentityRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ports.IdentityRecord{}, ErrIdentityNotFound
	}
	rec, err := r.queryOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1::uuid`, id)
	if err != nil && !errors.Is(err, ErrIdentityNotFound) {
		return rec, fmt.Errorf("get identity: %w", apperrors.MapDBError(err))
	}
	return rec, err
}

// GetByEmail returns the account registered for email, or ErrIdentityNotFound.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (ports.IdentityRecord, error) {
	rec, err := r.queryOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
	if err != nil && !errors.Is(err, ErrIdentityNotFound) {
		return rec, fmt.Errorf("get identity by email: %w", apperrors.MapDBError(err))
	}
	return rec, err
}

// SetClaims replaces the custom claims of an account.
func (r *IdentityRepo) SetClaims(ctx context.Context, id string, claims map[string]any) error {
	if claims == nil {
		claims = map[string]any{}
	}
	return r.execOne(ctx, `UPDATE identities SET claims = $2::jsonb WHERE id = $1::uuid`, id, claims)
}

// RevokeTokens invalidates every sign-in issued before at.
func (r *IdentityRepo) RevokeTokens(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `UPDATE identities SET tokens_valid_after = $2 WHERE id = $1::uuid`, id, at.UTC())
}

func (r *IdentityRepo) execOne(ctx context.Context, query, id string, arg any) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrIdentityNotFound
	}
	var affected int64
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, query, id, arg)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	}); err != nil {
		return fmt.Errorf("update identity: %w", apperrors.MapDBError(err))
	}
	if affected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}
