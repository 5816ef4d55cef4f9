package sessionkit

import (
	"context"
	"time"

	"github.com/miraiworks/sessionkit/tokenstore"
)

const (
	loginFallbackMessage     = "Login failed. Please check your credentials."
	registerFallbackMessage  = "Registration failed. Please try again."
	twoFactorFallbackMessage = "Verification failed. Please try again."
	refreshFallbackMessage   = "Your session has expired. Please sign in again."
)

// Initialize reconstructs the session from persisted tokens. It runs once
// at application start, while the session is still in its initial loading
// state.
//
// With both tokens stored it fetches the profile; when that fails it
// attempts exactly one refresh and, on success, re-fetches the profile
// with the fresh access token. Any remaining failure clears the token
// store and leaves the session anonymous. With no tokens stored the
// session simply leaves the loading state.
//
// An anonymous outcome is not an error; Initialize only fails when the
// manager is closed.
func (m *Manager) Initialize(ctx context.Context) error {
	gen, err := m.begin()
	if err != nil {
		return err
	}

	stored, err := m.tokens.Read(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("token store read failed; starting anonymous")
		m.dispatchIf(gen, setLoadingAction(false))
		return nil
	}
	if !stored.Present() {
		m.dispatchIf(gen, setLoadingAction(false))
		return nil
	}

	start := time.Now()
	user, meErr := m.backend.Me(ctx, stored.Access)
	m.observeBackend(start)
	if meErr == nil {
		// Expiry is unknown when restoring from a cached profile fetch;
		// record the advisory value only.
		m.dispatchIf(gen, successAction(user, stored.Access, stored.Refresh, m.advisoryExpiry(stored.Access, 0)))
		m.metricInc(MetricSessionRestored)
		m.emitAudit(ctx, auditEventRestore, true, user.ID, nil, nil)
		return nil
	}

	// Single fallback: the stored access token may merely be expired.
	res, refreshErr := m.backend.Refresh(ctx, stored.Refresh)
	if refreshErr == nil {
		next := rotatedTokens(stored, res)

		user, meErr = m.backend.Me(ctx, next.Access)
		if meErr == nil {
			if m.dispatchIf(gen, successAction(user, next.Access, next.Refresh, m.advisoryExpiry(next.Access, res.ExpiresIn))) {
				if saveErr := m.tokens.Save(ctx, next); saveErr != nil {
					m.logger.Warn().Err(saveErr).Msg("token persistence failed")
				}
			}
			m.metricInc(MetricSessionRestoreFallback)
			m.emitAudit(ctx, auditEventRestore, true, user.ID, nil, func() map[string]string {
				return map[string]string{"path": "refresh_fallback"}
			})
			return nil
		}
	}

	if clearErr := m.tokens.Clear(ctx); clearErr != nil {
		m.logger.Warn().Err(clearErr).Msg("token store clear failed")
	}
	m.dispatchIf(gen, logoutAction())
	m.metricInc(MetricSessionRestoreFailed)
	m.emitAudit(ctx, auditEventRestore, false, "", meErr, nil)
	return nil
}

// Login authenticates with email and password. On success the tokens are
// persisted and the session becomes authenticated; on failure the session
// carries the backend's message (or a generic fallback) and the error is
// returned so form-level code can react as well.
//
// When the backend requires a second factor, the returned result has
// TwoFactorRequired set, the session stays unauthenticated, and the flow
// completes through [Manager.VerifyTwoFactor].
func (m *Manager) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	gen, err := m.begin()
	if err != nil {
		return nil, err
	}
	m.dispatchIf(gen, startAction())

	start := time.Now()
	res, err := m.backend.Login(ctx, creds)
	m.observeBackend(start)
	if err != nil {
		m.dispatchIf(gen, errorAction(errorMessage(err, loginFallbackMessage)))
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLogin, false, "", err, func() map[string]string {
			return map[string]string{"email": creds.Email}
		})
		return nil, err
	}

	if res.TwoFactorRequired {
		m.mu.Lock()
		m.pendingTwoFactor = res.TwoFactorToken
		m.mu.Unlock()

		m.dispatchIf(gen, setLoadingAction(false))
		m.metricInc(MetricTwoFactorRequired)
		m.emitAudit(ctx, auditEventLogin, true, "", nil, func() map[string]string {
			return map[string]string{"email": creds.Email, "two_factor": "required"}
		})
		return res, nil
	}

	m.finishAuth(ctx, gen, res)
	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLogin, true, userID(res.User), nil, nil)
	return res, nil
}

// Register creates an account and, on success, authenticates exactly like
// Login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	gen, err := m.begin()
	if err != nil {
		return nil, err
	}
	m.dispatchIf(gen, startAction())

	start := time.Now()
	res, err := m.backend.Register(ctx, req)
	m.observeBackend(start)
	if err != nil {
		m.dispatchIf(gen, errorAction(errorMessage(err, registerFallbackMessage)))
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegister, false, "", err, func() map[string]string {
			return map[string]string{"email": req.Email}
		})
		return nil, err
	}

	m.finishAuth(ctx, gen, res)
	m.metricInc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegister, true, userID(res.User), nil, nil)
	return res, nil
}

// VerifyTwoFactor completes a login that stopped at the second-factor
// step. It fails locally with [ErrNoPendingTwoFactor] when no challenge
// is pending.
func (m *Manager) VerifyTwoFactor(ctx context.Context, code string) (*LoginResult, error) {
	m.mu.Lock()
	challenge := m.pendingTwoFactor
	m.mu.Unlock()
	if challenge == "" {
		return nil, ErrNoPendingTwoFactor
	}

	gen, err := m.begin()
	if err != nil {
		return nil, err
	}
	m.dispatchIf(gen, startAction())

	start := time.Now()
	res, err := m.backend.VerifyTwoFactor(ctx, challenge, code)
	m.observeBackend(start)
	if err != nil {
		m.dispatchIf(gen, errorAction(errorMessage(err, twoFactorFallbackMessage)))
		m.metricInc(MetricTwoFactorFailure)
		m.emitAudit(ctx, auditEventTwoFactor, false, "", err, nil)
		return nil, err
	}

	m.mu.Lock()
	m.pendingTwoFactor = ""
	m.mu.Unlock()

	m.finishAuth(ctx, gen, res)
	m.metricInc(MetricTwoFactorSuccess)
	m.emitAudit(ctx, auditEventTwoFactor, true, userID(res.User), nil, nil)
	return res, nil
}

// finishAuth transitions the session to authenticated and persists the
// token pair. A stale completion writes nothing; a persistence failure
// costs reload survival only, so it is logged instead of failing the
// login.
func (m *Manager) finishAuth(ctx context.Context, gen uint64, res *LoginResult) {
	next := tokenstore.Tokens{Access: res.AccessToken, Refresh: res.RefreshToken}
	if !m.dispatchIf(gen, successAction(res.User, next.Access, next.Refresh, m.advisoryExpiry(next.Access, res.ExpiresIn))) {
		return
	}
	if err := m.tokens.Save(ctx, next); err != nil {
		m.logger.Warn().Err(err).Msg("token persistence failed")
	}
}

func rotatedTokens(stored tokenstore.Tokens, res *RefreshResult) tokenstore.Tokens {
	next := tokenstore.Tokens{Access: res.AccessToken, Refresh: res.RefreshToken}
	if next.Refresh == "" {
		next.Refresh = stored.Refresh
	}
	return next
}

func userID(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
