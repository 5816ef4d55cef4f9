package sessionkit

import "context"

// Logout clears the token store, resets the session to anonymous, and
// fires a best-effort backend logout on a detached goroutine. The state
// transition is synchronous; the network call is neither awaited nor
// surfaced. Any in-flight operation is invalidated.
func (m *Manager) Logout(ctx context.Context) error {
	gen, err := m.begin()
	if err != nil {
		return err
	}

	stored, readErr := m.tokens.Read(ctx)
	if clearErr := m.tokens.Clear(ctx); clearErr != nil {
		m.logger.Warn().Err(clearErr).Msg("token store clear failed")
	}

	if readErr == nil && stored.Access != "" {
		access := stored.Access
		go func() {
			dctx, cancel := context.WithTimeout(context.Background(), m.config.Session.LogoutTimeout)
			defer cancel()
			if err := m.backend.Logout(dctx, access); err != nil {
				m.logger.Debug().Err(err).Msg("best-effort logout call failed")
			}
		}()
	}

	m.mu.Lock()
	m.pendingTwoFactor = ""
	m.mu.Unlock()

	m.dispatchIf(gen, logoutAction())
	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	return nil
}

// UpdateUser replaces the cached user record. Synchronous, no network
// call, and no effect on in-flight operations.
func (m *Manager) UpdateUser(user *User) {
	m.dispatch(updateUserAction(user))
}

// ClearError clears the session error. Calling it with no error present
// is a no-op on every other field.
func (m *Manager) ClearError() {
	m.dispatch(clearErrorAction())
}

// ForgotPassword asks the backend to start a password reset for email.
// It does not touch the session.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrManagerClosed
	}

	err := m.backend.ForgotPassword(ctx, email)
	m.metricInc(MetricPasswordResetRequest)
	m.emitAudit(ctx, auditEventPasswordResetRequest, err == nil, "", err, func() map[string]string {
		return map[string]string{"email": email}
	})
	return err
}

// ResetPassword completes a password reset with the emailed token. It
// does not touch the session; the caller signs in afterwards.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, password string) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrManagerClosed
	}

	err := m.backend.ResetPassword(ctx, resetToken, password)
	m.metricInc(MetricPasswordResetConfirm)
	m.emitAudit(ctx, auditEventPasswordResetConfirm, err == nil, "", err, nil)
	return err
}
