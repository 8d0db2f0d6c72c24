package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{
		"":      RoleNone,
		"none":  RoleNone,
		"free":  RoleFree,
		" Pro ": RolePro,
		"ADMIN": RoleAdmin,
	} {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("owner")
	assert.Error(t, err)
}

func TestRole_TextEncodingInStruct(t *testing.T) {
	type payload struct {
		Role Role `json:"role"`
	}
	b, err := json.Marshal(payload{Role: RolePro})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"pro"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &p))
	assert.Equal(t, RoleAdmin, p.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &p))
	_, err = Role(9).MarshalText()
	assert.Error(t, err)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("PRO")
	require.NoError(t, err)
	assert.Equal(t, TierPro, tier)

	_, err = ParseTier("platinum")
	assert.Error(t, err)
}
