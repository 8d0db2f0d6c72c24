package auth

import (
	"errors"
	"fmt"
)

// Provider failure causes. They are wrapped by ProviderError.
var (
	ErrNotSignInLink  = errors.New("url is not a sign-in link")
	ErrLinkExpired    = errors.New("sign-in link expired")
	ErrLinkConsumed   = errors.New("sign-in link already used")
	ErrLinkInvalid    = errors.New("sign-in link invalid")
	ErrEmailMismatch  = errors.New("email does not match sign-in link")
	ErrUnknownUser    = errors.New("no identity for email")
	ErrSessionRevoked = errors.New("sign-in revoked")
)

// Errors for content editing.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrVersionConflict = errors.New("content version conflict")
)

// InvalidEmailError is returned before any network call when an email fails syntax checks.
type InvalidEmailError struct {
	Email string
	Cause error
}

func (e *InvalidEmailError) Error() string {
	return fmt.Sprintf("invalid email address %q", e.Email)
}

func (e *InvalidEmailError) Unwrap() error { return e.Cause }

// ProviderError reports a failure of the identity provider: send failures,
// expired, reused or malformed links and revocation failures.
type ProviderError struct {
	Op    string
	Cause error
}

func (e *ProviderError) Error() string {
	if e.Cause == nil {
		return "identity provider: " + e.Op
	}
	return fmt.Sprintf("identity provider: %s: %v", e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// MissingEmailError is returned when a sign-in link is completed without a
// pending ticket and the user declined to re-enter the address.
type MissingEmailError struct{}

func (*MissingEmailError) Error() string { return "email required to complete sign-in" }

// RoleLookupDegraded records that a role could not be read or provisioned and
// the session fell back to RoleFree. It is logged and counted, never surfaced.
type RoleLookupDegraded struct {
	IdentityID string
	Cause      error
}

func (e *RoleLookupDegraded) Error() string {
	return fmt.Sprintf("role lookup degraded for %s: %v", e.IdentityID, e.Cause)
}

func (e *RoleLookupDegraded) Unwrap() error { return e.Cause }

// PersistenceError reports that an inline content edit could not be written.
// Previous and PreviousVersion hold the last stored section so callers can
// revert; PreviousVersion is 0 when nothing is stored yet.
type PersistenceError struct {
	PageID          string
	SectionKey      string
	Previous        string
	PreviousVersion int64
	Cause           error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save section %s/%s: %v", e.PageID, e.SectionKey, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// IsProviderError reports whether err is or wraps a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsInvalidEmail reports whether err is or wraps an InvalidEmailError.
func IsInvalidEmail(err error) bool {
	var ie *InvalidEmailError
	return errors.As(err, &ie)
}

// IsMissingEmail reports whether err is or wraps a MissingEmailError.
func IsMissingEmail(err error) bool {
	var me *MissingEmailError
	return errors.As(err, &me)
}
