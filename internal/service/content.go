package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	apperrors "github.com/boycepro/folio/internal/errors"
	"github.com/boycepro/folio/internal/ports"
)

// Save outcomes reported to a SaveObserver.
const (
	SaveOK        = "ok"
	SaveForbidden = "forbidden"
	SaveInvalid   = "invalid"
	SaveConflict  = "conflict"
	SaveFailed    = "failed"
)

// SaveObserver is notified of every inline save attempt.
type SaveObserver interface {
	SectionSaved(outcome string)
}

// Actor is the signed-in user performing an edit.
type Actor struct {
	ID    string
	Email string
	Role  domainauth.Role
}

// ContentServiceOptions groups dependencies for ContentService.
type ContentServiceOptions struct {
	Store    ports.ContentStore
	Observer SaveObserver // Optional
	Logger   *slog.Logger
}

// ContentService serves page sections and applies inline edits by admins.
type ContentService struct {
	store    ports.ContentStore
	observer SaveObserver
	logger   *slog.Logger
	policy   *bluemonday.Policy
}

// NewContentService constructs a new ContentService.
func NewContentService(opts ContentServiceOptions) *ContentService {
	if opts.Store == nil {
		panic("service: ContentServiceOptions.Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		store:    opts.Store,
		observer: opts.Observer,
		logger:   logger,
		policy:   bluemonday.UGCPolicy(),
	}
}

// GetPage returns the stored sections of pageID. A page with no saved
// sections is returned empty.
func (s *ContentService) GetPage(ctx context.Context, pageID string) (model.Page, error) {
	if !model.ValidContentKey(pageID) {
		return model.Page{}, apperrors.ValidationField("page_id", "invalid page id")
	}
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return model.Page{ID: pageID, Sections: map[string]model.Section{}}, nil
		}
		return model.Page{}, fmt.Errorf("get page: %w", err)
	}
	if page.Sections == nil {
		page.Sections = map[string]model.Section{}
	}
	return page, nil
}

// SaveSection writes an inline edit. Only admins may edit. Rich text is
// sanitized before storage. A failed write returns a *domainauth.PersistenceError
// carrying the last stored content; a stale version additionally matches
// domainauth.ErrVersionConflict.
func (s *ContentService) SaveSection(ctx context.Context, actor Actor, req model.SaveSectionRequest) (model.Section, error) {
	if !domainauth.CanEditContent(actor.Role) {
		s.observe(SaveForbidden)
		return model.Section{}, domainauth.ErrForbidden
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.observe(SaveInvalid)
		return model.Section{}, apperrors.Validation(err.Error())
	}
	if req.RichText {
		req.Content = s.policy.Sanitize(req.Content)
	}
	req.UpdatedBy = actor.Email

	saved, err := s.store.SaveSection(ctx, req)
	if err == nil {
		s.observe(SaveOK)
		s.logger.InfoContext(ctx, "section saved",
			"page_id", saved.PageID, "section_key", saved.Key, "version", saved.Version, "actor", actor.ID)
		return saved, nil
	}

	if errors.Is(err, domainauth.ErrVersionConflict) {
		s.observe(SaveConflict)
	} else {
		s.observe(SaveFailed)
		s.logger.ErrorContext(ctx, "section save failed",
			"page_id", req.PageID, "section_key", req.Key, "error", err)
	}
	prev := s.storedSection(ctx, req.PageID, req.Key)
	return model.Section{}, &domainauth.PersistenceError{
		PageID:          req.PageID,
		SectionKey:      req.Key,
		Previous:        prev.Content,
		PreviousVersion: prev.Version,
		Cause:           err,
	}
}

// storedSection returns the section as stored, or the zero Section.
func (s *ContentService) storedSection(ctx context.Context, pageID, key string) model.Section {
	sec, err := s.store.GetSection(ctx, pageID, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.WarnContext(ctx, "could not load previous section content", "page_id", pageID, "section_key", key, "error", err)
		}
		return model.Section{}
	}
	return sec
}

func (s *ContentService) observe(outcome string) {
	if s.observer != nil {
		s.observer.SectionSaved(outcome)
	}
}
