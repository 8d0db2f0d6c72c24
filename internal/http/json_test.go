package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	apperrors "github.com/boycepro/folio/internal/errors"
	"github.com/boycepro/folio/internal/ports"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"forbidden", fmt.Errorf("save: %w", domainauth.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"version conflict", domainauth.ErrVersionConflict, http.StatusConflict, "conflict"},
		{"invalid email", &domainauth.InvalidEmailError{Email: "nope"}, http.StatusBadRequest, "validation"},
		{"missing email", &domainauth.MissingEmailError{}, http.StatusBadRequest, "validation"},
		{"consumed link", &domainauth.ProviderError{Op: "complete sign-in", Cause: domainauth.ErrLinkConsumed}, http.StatusBadRequest, "invalid_link"},
		{"not a link", &domainauth.ProviderError{Op: "complete sign-in", Cause: domainauth.ErrNotSignInLink}, http.StatusBadRequest, "invalid_link"},
		{"not found", fmt.Errorf("get: %w", ports.ErrNotFound), http.StatusNotFound, "not_found"},
		{"app validation", apperrors.Validation("bad key"), http.StatusBadRequest, "validation"},
		{"app rate limited", &apperrors.AppError{Code: apperrors.ErrCodeRateLimited, Message: "slow down"}, http.StatusTooManyRequests, "rate_limited"},
		{"provider outage", &domainauth.ProviderError{Op: "send sign-in link", Cause: errors.New("smtp: 421")}, http.StatusBadGateway, "provider_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, errCode := classifyError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, errCode)
		})
	}
}

func TestWriteServiceError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body["error"])
	assert.Equal(t, "internal error", body["message"])
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Content string `json:"content"`
	}

	rec := httptest.NewRecorder()
	ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"content":"hi"}`)), &dst)
	require.True(t, ok)
	assert.Equal(t, "hi", dst.Content)

	rec = httptest.NewRecorder()
	ok = DecodeJSON(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"content":"hi","extra":1}`)), &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}
