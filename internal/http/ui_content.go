package httpx

import (
	"errors"
	"html/template"
	"net/http"
	"sort"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/gate"
	"github.com/boycepro/folio/internal/http/ui/viewmodel"
	"github.com/boycepro/folio/internal/ports"
)

const homeListLimit = 3

func articleHref(g model.Guide) string {
	if g.Kind == model.KindPost {
		return "/blog/" + g.Slug
	}
	return "/guides/" + g.Slug
}

func articleCards(items []model.Guide, role domainauth.Role, limit int) []viewmodel.ArticleCard {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	cards := make([]viewmodel.ArticleCard, 0, len(items))
	for _, g := range items {
		cards = append(cards, articleCard(g, role))
	}
	return cards
}

func articleCard(g model.Guide, role domainauth.Role) viewmodel.ArticleCard {
	return viewmodel.ArticleCard{
		Slug:        g.Slug,
		Kind:        g.Kind,
		Href:        articleHref(g),
		Title:       g.Title,
		Summary:     g.Summary,
		Tier:        string(g.Tier),
		Tags:        g.Tags,
		PublishedAt: g.PublishedAt,
		ReadTime:    g.ReadTime,
		Locked:      !domainauth.CanAccessTier(role, g.Tier),
	}
}

// Home renders the landing page.
// GET /{$}.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	role := RoleFromContext(r.Context())
	guides, err := h.Catalog.List(r.Context(), model.KindGuide)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "list guides failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load articles.")
		return
	}
	posts, err := h.Catalog.List(r.Context(), model.KindPost)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "list posts failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load articles.")
		return
	}
	h.render(w, http.StatusOK, viewmodel.HomePage{
		Layout: buildLayout(r, PageMeta{CurrentPage: PageHome}),
		Intro:  h.editableSection(r, ContentPageHome, SectionIntro),
		Guides: articleCards(guides, role, homeListLimit),
		Posts:  articleCards(posts, role, homeListLimit),
	})
}

// Guides lists guides.
// GET /guides.
func (h *UIHandlers) Guides(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, listView{kind: model.KindGuide, page: PageGuides, contentPage: ContentPageGuides, heading: "Guides"})
}

// Blog lists posts.
// GET /blog.
func (h *UIHandlers) Blog(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, listView{kind: model.KindPost, page: PageBlog, contentPage: ContentPageBlog, heading: "Blog"})
}

type listView struct {
	kind        string
	page        string
	contentPage string
	heading     string
}

func (h *UIHandlers) list(w http.ResponseWriter, r *http.Request, view listView) {
	items, err := h.Catalog.List(r.Context(), view.kind)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "list articles failed", "kind", view.kind, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load articles.")
		return
	}
	role := RoleFromContext(r.Context())
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]any{"items": articleCards(items, role, 0)})
		return
	}
	h.render(w, http.StatusOK, viewmodel.ListPage{
		Layout:  buildLayout(r, PageMeta{PageTitle: view.heading, CurrentPage: view.page}),
		Heading: view.heading,
		Intro:   h.editableSection(r, view.contentPage, SectionIntro),
		Items:   articleCards(items, role, 0),
	})
}

// Guide renders one guide behind its tier gate.
// GET /guides/{slug}.
func (h *UIHandlers) Guide(w http.ResponseWriter, r *http.Request) {
	h.article(w, r, model.KindGuide)
}

// Post renders one blog post behind its tier gate.
// GET /blog/{slug}.
func (h *UIHandlers) Post(w http.ResponseWriter, r *http.Request) {
	h.article(w, r, model.KindPost)
}

func (h *UIHandlers) article(w http.ResponseWriter, r *http.Request, kind string) {
	g, err := h.Catalog.Get(r.Context(), kind, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		h.logger().ErrorContext(r.Context(), "get article failed", "kind", kind, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load the article.")
		return
	}

	snap := GetSnapshotFromContext(r.Context())
	view := gate.Evaluate(gate.TierGate{Tier: g.Tier}, snap, gate.Content{
		// #nosec G203 - catalog articles are trusted, pre-rendered HTML
		Body: template.HTML(g.Body),
		// #nosec G203 - as above
		Preview: template.HTML(g.Preview),
	})

	if !IsBrowserRequest(r) {
		writeArticleJSON(w, g, view)
		return
	}

	markup, err := h.Gates.HTML(view)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "render gate failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not render the article.")
		return
	}
	h.render(w, http.StatusOK, viewmodel.ArticlePage{
		Layout:  buildLayout(r, PageMeta{PageTitle: g.Title, CurrentPage: PageArticle}),
		Article: articleCard(g, snap.Role),
		Note:    h.editableSection(r, articleContentPage(g.Kind, g.Slug), SectionNote),
		Gate:    markup,
	})
}

// writeArticleJSON exposes the gate decision to script clients. The body is
// only included when access was granted.
func writeArticleJSON(w http.ResponseWriter, g model.Guide, view gate.View) {
	out := map[string]any{
		"slug":     g.Slug,
		"kind":     g.Kind,
		"title":    g.Title,
		"tier":     g.Tier,
		"decision": view.Decision.String(),
	}
	switch {
	case view.Granted():
		out["body"] = g.Body
	case view.Loading():
	default:
		out["preview"] = g.Preview
		out["prompt"] = view.Prompt
	}
	WriteJSON(w, http.StatusOK, out)
}

// Admin lists the editable sections of every content page.
// GET /admin, behind RequireRole(RoleAdmin).
func (h *UIHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	var sections []viewmodel.EditableSection
	for _, pageID := range EditablePages {
		page, err := h.Content.GetPage(r.Context(), pageID)
		if err != nil {
			h.logger().ErrorContext(r.Context(), "load page content failed", "page_id", pageID, "error", err)
			h.renderError(w, r, http.StatusInternalServerError, "Could not load content.")
			return
		}
		if _, ok := page.Sections[SectionIntro]; !ok {
			page.Sections[SectionIntro] = model.Section{PageID: pageID, Key: SectionIntro}
		}
		keys := make([]string, 0, len(page.Sections))
		for k := range page.Sections {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sections = append(sections, sectionView(page.Sections[k], true))
		}
	}
	h.render(w, http.StatusOK, viewmodel.AdminPage{
		Layout:   buildLayout(r, PageMeta{PageTitle: "Admin", CurrentPage: PageAdmin}),
		PageIDs:  EditablePages,
		Sections: sections,
	})
}

// RoleDenied renders the role guard prompt for a session below the required
// role, or a spinner that reloads while the session is still loading.
func (h *UIHandlers) RoleDenied(required domainauth.Role) http.Handler {
	guard := gate.RoleGuard{Required: required}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := gate.Evaluate(guard, GetSnapshotFromContext(r.Context()), gate.Content{})
		markup, err := h.Gates.HTML(view)
		if err != nil {
			h.logger().ErrorContext(r.Context(), "render gate failed", "error", err)
			h.renderError(w, r, http.StatusForbidden, "You do not have access to this page.")
			return
		}
		status := http.StatusForbidden
		if view.Loading() {
			status = http.StatusOK
			w.Header().Set("Refresh", "1")
		}
		h.render(w, status, viewmodel.GatePage{
			Layout: buildLayout(r, PageMeta{PageTitle: view.Prompt.Title, CurrentPage: PageGate}),
			Gate:   markup,
		})
	})
}
