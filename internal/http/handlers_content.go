package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/service"
)

// ContentHandlers serves the inline-editing API.
type ContentHandlers struct {
	Svc    ContentService
	Logger *slog.Logger
}

func (h *ContentHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// GetPage returns the stored sections of a page.
// GET /api/pages/{pageID}.
func (h *ContentHandlers) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.Svc.GetPage(r.Context(), r.PathValue("pageID"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// SaveSection stores an inline edit. Failed saves answer with the last stored
// content so the editor can revert.
// PUT /api/pages/{pageID}/sections/{sectionKey}.
func (h *ContentHandlers) SaveSection(w http.ResponseWriter, r *http.Request) {
	var req model.SaveSectionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.PageID = r.PathValue("pageID")
	req.Key = r.PathValue("sectionKey")

	snap := GetSnapshotFromContext(r.Context())
	actor := service.Actor{Role: snap.Role}
	if snap.SignedIn() {
		actor.ID, actor.Email = snap.Identity.ID, snap.Identity.Email
	} else {
		actor.Role = domainauth.RoleNone
	}

	saved, err := h.Svc.SaveSection(r.Context(), actor, req)
	if err == nil {
		WriteJSON(w, http.StatusOK, saved)
		return
	}

	var pe *domainauth.PersistenceError
	if errors.As(err, &pe) {
		code, errCode := http.StatusInternalServerError, "save_failed"
		message := "the section could not be saved"
		if errors.Is(err, domainauth.ErrVersionConflict) {
			code, errCode = http.StatusConflict, "version_conflict"
			message = "the section was changed by someone else, reload to continue"
		}
		WriteJSON(w, code, map[string]any{
			"error":    errCode,
			"message":  message,
			"previous": pe.Previous,
			"version":  pe.PreviousVersion,
		})
		return
	}
	h.writeErr(w, r, err)
}

func (h *ContentHandlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if code, _ := classifyError(err); code >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "content request failed", "path", r.URL.Path, "error", err)
	}
	WriteServiceError(w, err)
}
