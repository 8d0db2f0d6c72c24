package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boycepro/folio/internal/data/pgxutil"
	"github.com/boycepro/folio/internal/domain/model"
	apperrors "github.com/boycepro/folio/internal/errors"
	"github.com/jackc/pgx/v5"
)

// ContentRepo stores inline-editable page sections.
type ContentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContentRepo creates a new ContentRepo with the given database connection.
func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const sectionColumns = `page_id, section_key, content, rich_text, version, updated_by, updated_at`

// GetPage returns every stored section of pageID. Unknown pages yield an empty page.
func (r *ContentRepo) GetPage(ctx context.Context, pageID string) (model.Page, error) {
	page := model.Page{ID: pageID, Sections: map[string]model.Section{}}
	var rowsOut []model.Section
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+sectionColumns+` FROM content_sections WHERE page_id = $1 ORDER BY section_key`, pageID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Section])
		return err
	}); err != nil {
		return page, fmt.Errorf("get page: %w", apperrors.MapDBError(err))
	}
	for _, s := range rowsOut {
		page.Sections[s.Key] = s
	}
	return page, nil
}

// GetSection returns one section, or ErrSectionNotFound.
func (r *ContentRepo) GetSection(ctx context.Context, pageID, key string) (model.Section, error) {
	var out model.Section
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+sectionColumns+` FROM content_sections WHERE page_id = $1 AND section_key = $2`, pageID, key)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Section])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Section{}, ErrSectionNotFound
		}
		return model.Section{}, fmt.Errorf("get section: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// SaveSection writes req with an optimistic version check. ExpectedVersion 0
// inserts a new section; any other value updates the section only while its
// stored version still matches. A lost race returns ErrVersionMismatch.
func (r *ContentRepo) SaveSection(ctx context.Context, req model.SaveSectionRequest) (model.Section, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return model.Section{}, err
	}
	now := r.timeProvider.Now().UTC()

	var (
		query string
		args  []any
	)
	if req.ExpectedVersion == 0 {
		query = `
			INSERT INTO content_sections (page_id, section_key, content, rich_text, version, updated_by, updated_at)
			VALUES ($1, $2, $3, $4, 1, $5, $6)
			ON CONFLICT (page_id, section_key) DO NOTHING
			RETURNING ` + sectionColumns
		args = []any{req.PageID, req.Key, req.Content, req.RichText, req.UpdatedBy, now}
	} else {
		query = `
			UPDATE content_sections
			SET content = $3, rich_text = $4, version = version + 1, updated_by = $5, updated_at = $6
			WHERE page_id = $1 AND section_key = $2 AND version = $7
			RETURNING ` + sectionColumns
		args = []any{req.PageID, req.Key, req.Content, req.RichText, req.UpdatedBy, now, req.ExpectedVersion}
	}

	var out model.Section
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Section])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Section{}, ErrVersionMismatch
		}
		return model.Section{}, fmt.Errorf("save section: %w", apperrors.MapDBError(err))
	}
	return out, nil
}
