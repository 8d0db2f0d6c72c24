package auth

// RoleLevel maps a role onto its position in the total order.
// Unknown values rank with RoleNone.
func RoleLevel(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RolePro:
		return 2
	case RoleFree:
		return 1
	default:
		return 0
	}
}

// HasRoleAccess reports whether user meets or exceeds required.
// A required RoleNone is always satisfied.
func HasRoleAccess(user, required Role) bool {
	return RoleLevel(user) >= RoleLevel(required)
}

// CanAccessTier reports whether a holder of role may view content of the given tier.
// Free content is open to everyone including anonymous visitors; pro content
// requires pro or admin. Unknown tiers are closed.
func CanAccessTier(role Role, tier Tier) bool {
	switch tier {
	case TierFree:
		return true
	case TierPro:
		return role == RolePro || role == RoleAdmin
	default:
		return false
	}
}

// CanEditContent reports whether role may perform inline edits.
func CanEditContent(role Role) bool { return role == RoleAdmin }
