package sessionkit

import (
	"strings"
	"time"
)

// Role names used by the MiraiWorks backend. The backend owns the role
// vocabulary; these constants exist so guard configuration does not have
// to repeat string literals.
const (
	RoleCandidate    = "candidate"
	RoleRecruiter    = "recruiter"
	RoleEmployer     = "employer"
	RoleCompanyAdmin = "company_admin"
	RoleSystemAdmin  = "system_admin"
)

// RoleAssignment references a role granted to a user. Assignments are
// ordered; the first entry is the user's primary role.
type RoleAssignment struct {
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"granted_at,omitempty"`
}

// User is the cached copy of the backend's user record. The backend owns
// the record; the client only ever replaces it wholesale (login, profile
// fetch, UpdateUser).
type User struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Phone     string           `json:"phone,omitempty"`
	Roles     []RoleAssignment `json:"roles"`
}

// DisplayName returns the user's full name, falling back to the email
// address when no name fields are set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// HasRole reports whether any of the user's role assignments references
// the given role name.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given
// roles. An empty list never matches.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// Credentials is the input for [Manager.Login].
type Credentials struct {
	Email    string
	Password string
}

// RegisterRequest is the input for [Manager.Register]. Email, Password,
// FirstName, LastName, CompanyName, and CompanyDomain are required by the
// backend; Phone and Industry are optional.
type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone,omitempty"`
	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain"`
	Industry      string `json:"industry,omitempty"`
}

// LoginResult is returned by [Backend.Login], [Backend.Register], and
// [Backend.VerifyTwoFactor]. Either the token fields are populated, or
// TwoFactorRequired is set and TwoFactorToken identifies the pending
// challenge for [Manager.VerifyTwoFactor].
type LoginResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds

	TwoFactorRequired bool
	TwoFactorToken    string
}

// RefreshResult is returned by [Backend.Refresh]. RefreshToken is empty
// when the backend did not rotate the refresh token.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}
