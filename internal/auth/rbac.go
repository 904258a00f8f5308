package auth

import "strings"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// NormalizeRole maps a stored role name onto a known role. Unknown values
// yield the empty role, which grants nothing.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleSuperAdmin), "superadmin":
		return RoleSuperAdmin
	default:
		return ""
	}
}

func HasRole(role string, allowed ...Role) bool {
	current := NormalizeRole(role)
	if current == "" {
		return false
	}
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role may manage site content.
func IsAdmin(role string) bool {
	return HasRole(role, RoleAdmin, RoleSuperAdmin)
}
