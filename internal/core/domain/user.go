package domain

import "strconv"

// Role is a role name as defined by the backend's users-permissions plugin.
//
// Comparisons are exact string matches against the backend literals. The
// values below MUST be confirmed against the backend's role list before
// deployment; the server logs a warning at startup when RoleSuperAdmin is
// not among the roles the backend reports.
type Role string

const (
	RoleSuperAdmin    Role = "Super Admin"
	RoleMember        Role = "Member"
	RoleAuthenticated Role = "Authenticated"
)

// IsAdmin reports whether r is the administrator role.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin
}

// User is a backend user profile.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Caller is the identity resolved from a bearer credential for a single
// gateway operation.
type Caller struct {
	ID     int64
	Name   string
	Role   Role
	Bearer string
}

// IsAdmin reports whether the caller holds the administrator role.
func (c Caller) IsAdmin() bool {
	return c.Role.IsAdmin()
}

// Session is what the browser carries between requests, embedded in a
// signed token.
type Session struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Bearer string `json:"-"`
	Role   Role   `json:"role"`
}

// Subject returns the session identity as a string.
func (s *Session) Subject() string {
	return strconv.FormatInt(s.UserID, 10)
}

// IsAdmin reports whether the session belongs to the administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role.IsAdmin()
}
