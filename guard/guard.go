// Package guard makes access decisions for protected routes from a
// session snapshot and a role allowlist. It never mutates session state
// and never talks to the backend; everything it needs is in the
// snapshot it is handed.
package guard

import (
	"github.com/miraiworks/sessionkit"
)

// State is the outcome of evaluating a session against a route.
type State uint8

const (
	// StateLoading means the session is still resolving and no decision
	// can be made yet. Callers must hold rendering, not redirect.
	StateLoading State = iota
	// StateUnauthenticated means there is no authenticated user and the
	// caller should be sent to the login route.
	StateUnauthenticated
	// StateAuthorized means the user is authenticated and holds a
	// permitted role.
	StateAuthorized
	// StateUnauthorized means the user is authenticated but holds none
	// of the permitted roles. No redirect: bouncing an authenticated
	// user to login would loop.
	StateUnauthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthorized:
		return "authorized"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Decision is the result of one evaluation. RedirectTo is set only in
// the unauthenticated state.
type Decision struct {
	State      State
	RedirectTo string
}

// Guard evaluates sessions against per-route role requirements.
type Guard struct {
	loginPath string
}

// New creates a Guard that redirects unauthenticated requests to
// loginPath. An empty loginPath defaults to "/login".
func New(loginPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{loginPath: loginPath}
}

// Evaluate decides access for one request. An empty allowedRoles slice
// requires authentication only. currentPath makes the redirect
// idempotent: a request already on the login route is never redirected
// to it again.
func (g *Guard) Evaluate(session sessionkit.Session, allowedRoles []string, currentPath string) Decision {
	if session.IsLoading {
		return Decision{State: StateLoading}
	}

	if !session.IsAuthenticated || session.User == nil {
		d := Decision{State: StateUnauthenticated}
		if currentPath != g.loginPath {
			d.RedirectTo = g.loginPath
		}
		return d
	}

	if len(allowedRoles) == 0 || session.User.HasAnyRole(allowedRoles...) {
		return Decision{State: StateAuthorized}
	}

	return Decision{State: StateUnauthorized}
}
