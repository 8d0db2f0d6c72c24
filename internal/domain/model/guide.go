//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
)

// Article kinds.
const (
	KindGuide = "guide"
	KindPost  = "post"
)

// Guide is a published long-form article, either a guide or a blog post.
// Body is trusted, pre-rendered HTML.
type Guide struct {
	Slug        string          `json:"slug"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Tier        domainauth.Tier `json:"tier"`
	Tags        []string        `json:"tags,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
	ReadTime    string          `json:"read_time,omitempty"`
	Body        string          `json:"body,omitempty"`
	// Preview is shown to visitors who cannot access the tier.
	Preview string `json:"preview,omitempty"`
}
