package guard

import (
	"context"
	"net/http"

	"github.com/miraiworks/sessionkit"
)

// SessionSource provides the session snapshot the middleware evaluates.
// *sessionkit.Manager satisfies it.
type SessionSource interface {
	Snapshot() sessionkit.Session
}

type contextKey uint8

const userContextKey contextKey = iota

// UserFromContext returns the authenticated user injected by Protect,
// or nil when the request did not pass through the middleware.
func UserFromContext(ctx context.Context) *sessionkit.User {
	user, _ := ctx.Value(userContextKey).(*sessionkit.User)
	return user
}

// Protect wraps a handler with an access check against src. Requests
// are handled per decision state:
//
//   - loading: 503 with Retry-After, the session is not resolved yet
//   - unauthenticated: 302 to the guard's login path
//   - unauthorized: 403
//   - authorized: the user is placed in the request context and the
//     wrapped handler runs
func (g *Guard) Protect(src SessionSource, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := src.Snapshot()
			decision := g.Evaluate(session, allowedRoles, r.URL.Path)

			switch decision.State {
			case StateLoading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)
			case StateUnauthenticated:
				if decision.RedirectTo == "" {
					http.Error(w, "authentication required", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
			case StateUnauthorized:
				http.Error(w, "forbidden", http.StatusForbidden)
			case StateAuthorized:
				ctx := context.WithValue(r.Context(), userContextKey, session.User)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
