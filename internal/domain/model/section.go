//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const maxSectionContentLen = 64 * 1024

var contentKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Section is one editable block of page text, addressed by page id and section key.
// Version starts at 1 and increments on every save.
type Section struct {
	PageID    string    `json:"page_id"    db:"page_id"`
	Key       string    `json:"section_key" db:"section_key"`
	Content   string    `json:"content"    db:"content"`
	RichText  bool      `json:"rich_text"  db:"rich_text"`
	Version   int64     `json:"version"    db:"version"`
	UpdatedBy string    `json:"updated_by" db:"updated_by"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Page groups the stored sections of one page by key.
type Page struct {
	ID       string             `json:"id"`
	Sections map[string]Section `json:"sections"`
}

// SaveSectionRequest carries an inline edit.
// ExpectedVersion is the version the editor started from; 0 means the section must not exist yet.
type SaveSectionRequest struct {
	PageID          string `json:"-"`
	Key             string `json:"-"`
	Content         string `json:"content"`
	RichText        bool   `json:"rich_text"`
	ExpectedVersion int64  `json:"version"`
	UpdatedBy       string `json:"-"`
}

// Normalize trims identifiers.
func (r *SaveSectionRequest) Normalize() {
	r.PageID = strings.ToLower(strings.TrimSpace(r.PageID))
	r.Key = strings.ToLower(strings.TrimSpace(r.Key))
}

// Validate checks identifiers and content bounds.
func (r *SaveSectionRequest) Validate() error {
	if !ValidContentKey(r.PageID) {
		return errors.New("page_id must be 1-64 chars of a-z, 0-9, '-' or '_'")
	}
	if !ValidContentKey(r.Key) {
		return errors.New("section_key must be 1-64 chars of a-z, 0-9, '-' or '_'")
	}
	if !utf8.ValidString(r.Content) {
		return errors.New("content must be valid UTF-8")
	}
	if len(r.Content) > maxSectionContentLen {
		return errors.New("content exceeds 64KiB")
	}
	if r.ExpectedVersion < 0 {
		return errors.New("version must be >= 0")
	}
	return nil
}

// ValidContentKey reports whether s is usable as a page id or section key.
func ValidContentKey(s string) bool { return contentKeyPattern.MatchString(s) }
