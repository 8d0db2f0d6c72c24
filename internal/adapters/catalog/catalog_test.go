package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/ports"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	guides, err := c.List(context.Background(), model.KindGuide)
	require.NoError(t, err)
	require.Len(t, guides, 2)
	assert.Equal(t, "nextjs-firebase-auth", guides[0].Slug, "newest first")
	assert.Equal(t, domainauth.TierFree, guides[0].Tier)
	assert.Equal(t, domainauth.TierPro, guides[1].Tier)

	all, err := c.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGet(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	g, err := c.Get(context.Background(), model.KindPost, "Shipping-Solo")
	require.NoError(t, err)
	assert.Equal(t, "Shipping Solo", g.Title)

	_, err = c.Get(context.Background(), model.KindGuide, "shipping-solo")
	assert.ErrorIs(t, err, ports.ErrNotFound, "slugs are scoped by kind")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{`},
		{"bad slug", `[{"slug":"Bad Slug","kind":"guide","tier":"free"}]`},
		{"bad kind", `[{"slug":"a","kind":"page","tier":"free"}]`},
		{"bad tier", `[{"slug":"a","kind":"guide","tier":"gold"}]`},
		{"duplicate", `[{"slug":"a","kind":"guide","tier":"free"},{"slug":"a","kind":"guide","tier":"pro"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_NormalizesTier(t *testing.T) {
	c, err := Parse([]byte(`[{"slug":"a","kind":"post","tier":"PRO"}]`))
	require.NoError(t, err)
	g, err := c.Get(context.Background(), model.KindPost, "a")
	require.NoError(t, err)
	assert.Equal(t, domainauth.TierPro, g.Tier)
}
