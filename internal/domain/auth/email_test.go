package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Reader@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", got)

	got, err = NormalizeEmail("hans@bücher.example")
	require.NoError(t, err)
	assert.Equal(t, "hans@xn--bcher-kva.example", got)
}

func TestNormalizeEmail_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-an-email", "a@b", "a b@example.com", "@example.com", "a@@example.com"} {
		_, err := NormalizeEmail(in)
		var invalid *InvalidEmailError
		require.True(t, errors.As(err, &invalid), "input %q", in)
		assert.Equal(t, in, invalid.Email)
		assert.False(t, ValidEmail(in))
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := ErrLinkConsumed
	err := error(&ProviderError{Op: "complete sign-in", Cause: cause})
	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, ErrLinkConsumed)
	assert.Contains(t, err.Error(), "already used")

	assert.True(t, IsMissingEmail(&MissingEmailError{}))
	assert.True(t, IsInvalidEmail(&InvalidEmailError{Email: "x"}))

	degraded := &RoleLookupDegraded{IdentityID: "u1", Cause: errors.New("store down")}
	assert.Contains(t, degraded.Error(), "u1")

	pe := &PersistenceError{PageID: "home", SectionKey: "hero", Previous: "old", Cause: ErrVersionConflict}
	assert.ErrorIs(t, pe, ErrVersionConflict)
}
