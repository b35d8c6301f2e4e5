package users

import "strings"

type Role string

const (
	RoleFree    Role = "free"
	RolePremium Role = "premium"
)

// IsPremiumStatus reports whether a Stripe subscription status grants
// premium access.
func IsPremiumStatus(status string) bool {
	switch strings.TrimSpace(status) {
	case "active", "trialing":
		return true
	default:
		return false
	}
}

// RoleForStatus is the only way a role is ever derived.
func RoleForStatus(status string) Role {
	if IsPremiumStatus(status) {
		return RolePremium
	}
	return RoleFree
}
