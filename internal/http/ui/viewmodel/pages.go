package viewmodel

import (
	"html/template"
	"time"
)

// ArticleCard summarizes a guide or post in listings.
type ArticleCard struct {
	Slug        string
	Kind        string
	Href        string
	Title       string
	Summary     string
	Tier        string
	Tags        []string
	PublishedAt time.Time
	ReadTime    string
	// Locked is set when the viewer cannot read the full article.
	Locked bool
}

// EditableSection is one inline-editable block. Content is already safe HTML
// (sanitized rich text, or escaped plain text).
type EditableSection struct {
	PageID    string
	Key       string
	Content   template.HTML
	Raw       string
	RichText  bool
	Version   int64
	Editable  bool
	UpdatedBy string
	UpdatedAt time.Time
}

// HomePage is the landing page.
type HomePage struct {
	Layout
	Intro  EditableSection
	Guides []ArticleCard
	Posts  []ArticleCard
}

// ListPage lists guides or posts.
type ListPage struct {
	Layout
	Heading string
	Intro   EditableSection
	Items   []ArticleCard
}

// ArticlePage shows one article behind its tier gate.
type ArticlePage struct {
	Layout
	Article ArticleCard
	// Note is an editorial note shown above the body; admins can edit it inline.
	Note EditableSection
	Gate template.HTML
}

// SignInPage is the email form that requests a sign-in link.
type SignInPage struct {
	Layout
	Email       string
	RedirectURI string
	Sent        bool
	Error       string
	// DevLink is the link just sent, shown only in development mode.
	DevLink string
}

// CallbackPage asks for the email when a link is opened in another browser,
// or reports why a link could not be used.
type CallbackPage struct {
	Layout
	Link      string
	NeedEmail bool
	Error     string
}

// AdminPage lists editable sections for administrators.
type AdminPage struct {
	Layout
	PageIDs  []string
	Sections []EditableSection
}

// GatePage wraps a gate decision rendered outside an article.
type GatePage struct {
	Layout
	Gate template.HTML
}

// ErrorPage reports a failed request.
type ErrorPage struct {
	Layout
	Status  int
	Message string
}
