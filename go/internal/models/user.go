package models

// User is the session identity supplied by the identity provider or by a
// guest join. Role is optional ("admin" for dashboard observers).
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Token string `json:"token,omitempty"`
}

const (
	// RoleAdmin marks a monitoring identity that observes rooms without joining the roster
	RoleAdmin = "admin"
	RoleHost  = "host"
	RoleGuest = "guest"
)

// IsAdmin reports whether the user observes rooms as an administrator
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
