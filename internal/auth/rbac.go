package auth

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleOrganiser Role = "organiser"
	RoleAdmin     Role = "admin"
)

// NormalizeRole maps arbitrary input onto a known role, defaulting to user.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleOrganiser):
		return RoleOrganiser
	default:
		return RoleUser
	}
}

func HasRole(role string, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	current := NormalizeRole(role)
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
