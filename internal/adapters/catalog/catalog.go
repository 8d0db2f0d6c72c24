// Package catalog serves the published guides and posts compiled into the binary.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/ports"
)

//go:embed catalog.json
var embedded []byte

// Catalog is a read-only, in-memory ports.GuideCatalog.
type Catalog struct {
	items  []model.Guide
	bySlug map[string]model.Guide
}

var _ ports.GuideCatalog = (*Catalog)(nil)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Parse builds a catalog from a JSON array of articles.
func Parse(data []byte) (*Catalog, error) {
	var items []model.Guide
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(items)
}

// New validates items and indexes them by kind and slug.
func New(items []model.Guide) (*Catalog, error) {
	c := &Catalog{bySlug: make(map[string]model.Guide, len(items))}
	for _, g := range items {
		if !model.ValidContentKey(g.Slug) {
			return nil, fmt.Errorf("invalid slug %q", g.Slug)
		}
		if g.Kind != model.KindGuide && g.Kind != model.KindPost {
			return nil, fmt.Errorf("%s: invalid kind %q", g.Slug, g.Kind)
		}
		tier, err := domainauth.ParseTier(string(g.Tier))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Slug, err)
		}
		g.Tier = tier
		key := g.Kind + "/" + g.Slug
		if _, dup := c.bySlug[key]; dup {
			return nil, fmt.Errorf("duplicate %s %q", g.Kind, g.Slug)
		}
		c.bySlug[key] = g
		c.items = append(c.items, g)
	}
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].PublishedAt.After(c.items[j].PublishedAt)
	})
	return c, nil
}

func (c *Catalog) List(_ context.Context, kind string) ([]model.Guide, error) {
	out := make([]model.Guide, 0, len(c.items))
	for _, g := range c.items {
		if kind == "" || g.Kind == kind {
			out = append(out, g)
		}
	}
	return out, nil
}

func (c *Catalog) Get(_ context.Context, kind, slug string) (model.Guide, error) {
	g, ok := c.bySlug[kind+"/"+strings.ToLower(slug)]
	if !ok {
		return model.Guide{}, fmt.Errorf("%s %q: %w", kind, slug, ports.ErrNotFound)
	}
	return g, nil
}
