package sessionkit

import "time"

// Session is the client's current authentication state. Exactly one
// Session value is live per Manager; consumers receive copies via
// [Manager.Snapshot] or [Manager.Subscribe].
//
// Invariants, maintained by the reducer:
//
//   - IsAuthenticated holds iff both User and AccessToken are present.
//   - Error is cleared on every successful transition.
//
// ExpiresAt is advisory only: when the session is reconstructed from
// stored tokens the real expiry is unknown, and the reducer never acts on
// it.
type Session struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	ExpiresAt       time.Time

	// Revision increases by one per applied action, so subscribers can
	// order snapshots without comparing contents.
	Revision uint64
}

type actionKind uint8

const (
	actionStart actionKind = iota
	actionSuccess
	actionError
	actionLogout
	actionClearError
	actionUpdateUser
	actionSetLoading
)

type action struct {
	kind      actionKind
	user      *User
	access    string
	refresh   string
	expiresAt time.Time
	message   string
	loading   bool
}

func startAction() action {
	return action{kind: actionStart}
}

func successAction(user *User, access, refresh string, expiresAt time.Time) action {
	return action{kind: actionSuccess, user: user, access: access, refresh: refresh, expiresAt: expiresAt}
}

func errorAction(message string) action {
	return action{kind: actionError, message: message}
}

func logoutAction() action {
	return action{kind: actionLogout}
}

func clearErrorAction() action {
	return action{kind: actionClearError}
}

func updateUserAction(user *User) action {
	return action{kind: actionUpdateUser, user: user}
}

func setLoadingAction(loading bool) action {
	return action{kind: actionSetLoading, loading: loading}
}

// reduce is the session state machine: a pure, total transition function.
// Every action is defined for every state and no transition is rejected.
// It performs no I/O; the Manager owns all side effects and all locking.
func reduce(s Session, a action) Session {
	next := s
	next.Revision = s.Revision + 1

	switch a.kind {
	case actionStart:
		next.IsLoading = true
		next.Error = ""
	case actionSuccess:
		next.User = a.user
		next.AccessToken = a.access
		next.RefreshToken = a.refresh
		next.ExpiresAt = a.expiresAt
		next.IsAuthenticated = a.user != nil && a.access != ""
		next.IsLoading = false
		next.Error = ""
	case actionError:
		next.User = nil
		next.AccessToken = ""
		next.RefreshToken = ""
		next.ExpiresAt = time.Time{}
		next.IsAuthenticated = false
		next.IsLoading = false
		next.Error = a.message
	case actionLogout:
		next = Session{Revision: next.Revision}
	case actionClearError:
		next.Error = ""
	case actionUpdateUser:
		next.User = a.user
		next.IsAuthenticated = a.user != nil && next.AccessToken != ""
	case actionSetLoading:
		next.IsLoading = a.loading
	}

	return next
}
