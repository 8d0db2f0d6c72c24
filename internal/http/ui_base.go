package httpx

import (
	"context"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/gate"
	"github.com/boycepro/folio/internal/http/ui/viewmodel"
	"github.com/boycepro/folio/internal/ports"
	"github.com/boycepro/folio/internal/service"
)

// SiteTitle is shown in every page title.
const SiteTitle = "Folio"

// ContentService is the inline-editing surface used by pages and the API.
type ContentService interface {
	GetPage(ctx context.Context, pageID string) (model.Page, error)
	SaveSection(ctx context.Context, actor service.Actor, req model.SaveSectionRequest) (model.Section, error)
}

var _ ContentService = (*service.ContentService)(nil)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T       *TemplateRenderer
	Gates   *gate.Renderer
	Catalog ports.GuideCatalog
	Content ContentService
	Logger  *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageMeta describes page titles and navigation state.
type PageMeta struct {
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	snap := GetSnapshotFromContext(r.Context())
	layout := viewmodel.Layout{
		Title:       SiteTitle,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		AuthLoading: snap.Loading,
	}
	if snap.SignedIn() {
		layout.IsAuthenticated = true
		layout.CanEdit = snap.CanEdit()
		layout.IsPro = domainauth.HasRoleAccess(snap.Role, domainauth.RolePro)
		layout.User = &viewmodel.User{Email: snap.Identity.Email, Role: snap.Role.String()}
	}
	return layout
}

// render writes a full page and logs template failures.
func (h *UIHandlers) render(w http.ResponseWriter, status int, data any) {
	if err := h.T.RenderFull(w, status, data); err != nil {
		h.logger().Error("page render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError shows an error page to browsers and a JSON error to everyone else.
func (h *UIHandlers) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if !IsBrowserRequest(r) {
		code, errCode := status, strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
		WriteJSON(w, code, map[string]string{"error": errCode, "message": message})
		return
	}
	h.render(w, status, viewmodel.ErrorPage{
		Layout:  buildLayout(r, PageMeta{PageTitle: http.StatusText(status), CurrentPage: PageError}),
		Status:  status,
		Message: message,
	})
}

// NotFound renders the 404 page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// editableSection loads one section for display. Load failures render the
// section empty so the rest of the page still works.
func (h *UIHandlers) editableSection(r *http.Request, pageID, key string) viewmodel.EditableSection {
	snap := GetSnapshotFromContext(r.Context())
	vm := viewmodel.EditableSection{PageID: pageID, Key: key, Editable: snap.CanEdit()}
	if h.Content == nil {
		return vm
	}
	page, err := h.Content.GetPage(r.Context(), pageID)
	if err != nil {
		h.logger().WarnContext(r.Context(), "load page content failed", "page_id", pageID, "error", err)
		return vm
	}
	if sec, ok := page.Sections[key]; ok {
		return sectionView(sec, vm.Editable)
	}
	return vm
}

func sectionView(sec model.Section, editable bool) viewmodel.EditableSection {
	vm := viewmodel.EditableSection{
		PageID:    sec.PageID,
		Key:       sec.Key,
		Raw:       sec.Content,
		RichText:  sec.RichText,
		Version:   sec.Version,
		Editable:  editable,
		UpdatedBy: sec.UpdatedBy,
		UpdatedAt: sec.UpdatedAt,
	}
	if sec.RichText {
		// #nosec G203 - rich text is sanitized before it is stored
		vm.Content = template.HTML(sec.Content)
	} else {
		// #nosec G203 - escaped plain text
		vm.Content = template.HTML(html.EscapeString(sec.Content))
	}
	if !editable {
		vm.UpdatedBy = ""
	}
	return vm
}
