package domain

// Role constants define the allowed account roles.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRoles returns the set of valid roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleModerator, RoleAdmin}
}

// IsValidRole checks whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// CanModerate reports whether role may delete content it does not own.
func CanModerate(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}
