package sessionkit

import (
	"context"
	"fmt"
	"time"
)

// RefreshAuth exchanges the stored refresh token for a fresh token pair.
// Concurrent callers coalesce into a single backend call and share its
// outcome.
//
// With no refresh token stored it fails fast with [ErrNoRefreshToken] and
// performs no network call. On backend failure the token store is
// cleared, the session is reset to anonymous, and the error is re-raised.
func (m *Manager) RefreshAuth(ctx context.Context) (*RefreshResult, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RefreshResult), nil
}

func (m *Manager) doRefresh(ctx context.Context) (*RefreshResult, error) {
	stored, err := m.tokens.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("token store read: %w", err)
	}
	if stored.Refresh == "" {
		return nil, ErrNoRefreshToken
	}

	gen, err := m.begin()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := m.backend.Refresh(ctx, stored.Refresh)
	m.observeBackend(start)
	if err != nil {
		if clearErr := m.tokens.Clear(ctx); clearErr != nil {
			m.logger.Warn().Err(clearErr).Msg("token store clear failed")
		}
		m.dispatchIf(gen, logoutAction())
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefresh, false, "", err, nil)
		return nil, err
	}

	next := rotatedTokens(stored, res)

	// The refresh response carries no user; keep the cached copy. When no
	// user is cached yet (refresh before Initialize resolved) the session
	// stays unauthenticated until a profile arrives.
	user := m.currentUser()
	if !m.dispatchIf(gen, successAction(user, next.Access, next.Refresh, m.advisoryExpiry(next.Access, res.ExpiresIn))) {
		// A stale completion must not write tokens either; the store
		// belongs to whatever invalidated this flight.
		return res, nil
	}

	if saveErr := m.tokens.Save(ctx, next); saveErr != nil {
		m.logger.Warn().Err(saveErr).Msg("token persistence failed")
	}
	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefresh, true, userID(user), nil, nil)
	return res, nil
}
