package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	apperrors "github.com/boycepro/folio/internal/errors"
	"github.com/boycepro/folio/internal/ports"
)

// maxJSONBody caps request bodies decoded by DecodeJSON.
const maxJSONBody = 128 << 10

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteServiceError maps a service error to its status and writes it.
// Internal failures are reported without their cause.
func WriteServiceError(w http.ResponseWriter, err error) {
	code, errCode := classifyError(err)
	if code == http.StatusInternalServerError {
		err = errors.New("internal error")
	} else if msg := apperrors.UserMessage(err, ""); msg != "" {
		err = errors.New(msg)
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: err})
}

// classifyError returns the HTTP status and error code for err.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domainauth.ErrForbidden):
		return http.StatusForbidden, string(apperrors.ErrCodeForbidden)
	case errors.Is(err, domainauth.ErrVersionConflict):
		return http.StatusConflict, string(apperrors.ErrCodeConflict)
	case domainauth.IsInvalidEmail(err), domainauth.IsMissingEmail(err):
		return http.StatusBadRequest, string(apperrors.ErrCodeValidation)
	case errors.Is(err, domainauth.ErrNotSignInLink), errors.Is(err, domainauth.ErrLinkInvalid),
		errors.Is(err, domainauth.ErrLinkExpired), errors.Is(err, domainauth.ErrLinkConsumed),
		errors.Is(err, domainauth.ErrEmailMismatch):
		return http.StatusBadRequest, "invalid_link"
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, string(apperrors.ErrCodeNotFound)
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, string(apperrors.ErrCodeNotFound)
	case apperrors.ErrCodeConflict:
		return http.StatusConflict, string(apperrors.ErrCodeConflict)
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, string(apperrors.ErrCodeValidation)
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(apperrors.ErrCodeUnauthorized)
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, string(apperrors.ErrCodeForbidden)
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests, string(apperrors.ErrCodeRateLimited)
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, string(apperrors.ErrCodeTimeout)
	}
	if domainauth.IsProviderError(err) {
		return http.StatusBadGateway, "provider_error"
	}
	return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
}
