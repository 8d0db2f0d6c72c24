package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "resource not found", NotFound("resource not found").Error())

	err := Wrap(errors.New("underlying error"), ErrCodeInternal, "failed to process")
	assert.Equal(t, "failed to process: underlying error", err.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrapf(cause, ErrCodeInternal, "save %s", "hero")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save hero", err.Message)
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
}

func TestCodeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  ErrorCode
	}{
		{"not found", NotFoundf("page %s", "home"), IsNotFound, ErrCodeNotFound},
		{"conflict", Conflict("stale"), IsConflict, ErrCodeConflict},
		{"validation", ValidationField("email", "bad"), IsValidation, ErrCodeValidation},
		{"forbidden", Forbidden("admins only"), IsForbidden, ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := errors.Join(errors.New("context"), tt.err)
			assert.True(t, tt.check(wrapped))
			assert.Equal(t, tt.code, GetCode(wrapped))
		})
	}

	assert.Equal(t, "email", GetField(ValidationField("email", "bad")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, "", GetField(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Too many requests", UserMessage(RateLimited("Too many requests"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New("boom"), "fallback"))
}
