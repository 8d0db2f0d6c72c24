// Package auth holds the role/tier access model and the identity types shared
// by the sign-in flow. It is pure and free of adapter concerns.
package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is a member of the closed, totally ordered role set.
// The zero value is RoleNone (anonymous / no record).
type Role uint8

const (
	RoleNone Role = iota
	RoleFree
	RolePro
	RoleAdmin
)

var roleNames = [...]string{
	RoleNone:  "",
	RoleFree:  "free",
	RolePro:   "pro",
	RoleAdmin: "admin",
}

// String returns the persisted form of the role ("" for RoleNone).
func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool { return r <= RoleAdmin }

// ParseRole converts the persisted form into a Role.
// Matching is case-insensitive; the empty string and "none" map to RoleNone.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoleNone, nil
	case "free":
		return RoleFree, nil
	case "pro":
		return RolePro, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleNone, fmt.Errorf("invalid role: %q (valid options: free, pro, admin)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role: %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	v, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Tier labels a piece of content.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ParseTier converts a content label into a Tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierPro:
		return TierPro, nil
	default:
		return "", fmt.Errorf("invalid tier: %q (valid options: free, pro)", s)
	}
}

// Identity is the authenticated principal vouched for by the identity provider.
// The application treats it as immutable.
type Identity struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	SignedInAt    time.Time `json:"signed_in_at"`
}

// RoleRecord is the persisted role for one identity, keyed by Identity.ID.
type RoleRecord struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingTicket remembers which email a sign-in link was requested for,
// scoped to the requesting browser.
type PendingTicket struct {
	Email string `json:"email"`
}
