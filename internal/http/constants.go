package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageHome     = "home"
	PageGuides   = "guides"
	PageBlog     = "blog"
	PageArticle  = "article"
	PageSignIn   = "signin"
	PageCallback = "callback"
	PageAdmin    = "admin"
	PageGate     = "gate"
	PageError    = "error"
)

// Content page ids whose sections can be edited inline.
const (
	ContentPageHome   = "home"
	ContentPageGuides = "guides"
	ContentPageBlog   = "blog"

	SectionIntro = "intro"
	SectionNote  = "note"
)

// articleContentPage is the content page id holding an article's editable sections.
func articleContentPage(kind, slug string) string {
	return kind + "-" + slug
}

// EditablePages lists the content page ids shown on the admin page.
var EditablePages = []string{ContentPageHome, ContentPageGuides, ContentPageBlog} //nolint:gochecknoglobals // read-only

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:     "home-content",
	PageGuides:   "list-content",
	PageBlog:     "list-content",
	PageArticle:  "article-content",
	PageSignIn:   "signin-content",
	PageCallback: "callback-content",
	PageAdmin:    "admin-content",
	PageGate:     "gate-content",
	PageError:    "error-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to error-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "error-content"
}
