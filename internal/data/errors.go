package data

import (
	"errors"
	"fmt"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
)

// Shared sentinel errors for data-layer repositories.
var (
	ErrRoleNotFound     = fmt.Errorf("role record %w", ports.ErrNotFound)
	ErrIdentityNotFound = fmt.Errorf("identity %w", ports.ErrNotFound)
	ErrSectionNotFound  = fmt.Errorf("content section %w", ports.ErrNotFound)
	ErrVersionMismatch  = fmt.Errorf("content section: %w", domainauth.ErrVersionConflict)
	ErrIDRequired       = errors.New("id is required")
)
