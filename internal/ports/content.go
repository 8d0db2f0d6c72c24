package ports

import (
	"context"

	"github.com/boycepro/folio/internal/domain/model"
)

// ContentStore persists inline-editable page sections.
type ContentStore interface {
	GetPage(ctx context.Context, pageID string) (model.Page, error)
	GetSection(ctx context.Context, pageID, key string) (model.Section, error)
	// SaveSection writes req when the stored version equals req.ExpectedVersion.
	SaveSection(ctx context.Context, req model.SaveSectionRequest) (model.Section, error)
}

// GuideCatalog lists published articles. Get wraps ErrNotFound for unknown slugs.
type GuideCatalog interface {
	// List returns articles of kind, newest first. An empty kind lists all.
	List(ctx context.Context, kind string) ([]model.Guide, error)
	Get(ctx context.Context, kind, slug string) (model.Guide, error)
}
