package sessionkit

import (
	"context"
	"sync"
	"testing"

	"github.com/miraiworks/sessionkit/tokenstore"
)

// stubBackend is a programmable Backend. Unset hooks fail the calling
// operation so a test never silently exercises an endpoint it did not
// mean to.
type stubBackend struct {
	mu sync.Mutex

	loginCalls     int
	registerCalls  int
	meCalls        int
	refreshCalls   int
	twoFactorCalls int
	logoutCalls    int

	loginFn     func(ctx context.Context, creds Credentials) (*LoginResult, error)
	registerFn  func(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	meFn        func(ctx context.Context, accessToken string) (*User, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*RefreshResult, error)
	twoFactorFn func(ctx context.Context, challengeToken, code string) (*LoginResult, error)
	forgotFn    func(ctx context.Context, email string) error
	resetFn     func(ctx context.Context, resetToken, password string) error
	logoutFn    func(ctx context.Context, accessToken string) error
}

func (b *stubBackend) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	b.mu.Lock()
	b.loginCalls++
	fn := b.loginFn
	b.mu.Unlock()
	if fn == nil {
		return nil, NewAPIError(ErrBackendUnavailable, 500, "login not stubbed", nil)
	}
	return fn(ctx, creds)
}

func (b *stubBackend) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	b.mu.Lock()
	b.registerCalls++
	fn := b.registerFn
	b.mu.Unlock()
	if fn == nil {
		return nil, NewAPIError(ErrBackendUnavailable, 500, "register not stubbed", nil)
	}
	return fn(ctx, req)
}

func (b *stubBackend) Me(ctx context.Context, accessToken string) (*User, error) {
	b.mu.Lock()
	b.meCalls++
	fn := b.meFn
	b.mu.Unlock()
	if fn == nil {
		return nil, NewAPIError(ErrBackendUnavailable, 500, "me not stubbed", nil)
	}
	return fn(ctx, accessToken)
}

func (b *stubBackend) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	b.mu.Lock()
	b.refreshCalls++
	fn := b.refreshFn
	b.mu.Unlock()
	if fn == nil {
		return nil, NewAPIError(ErrBackendUnavailable, 500, "refresh not stubbed", nil)
	}
	return fn(ctx, refreshToken)
}

func (b *stubBackend) VerifyTwoFactor(ctx context.Context, challengeToken, code string) (*LoginResult, error) {
	b.mu.Lock()
	b.twoFactorCalls++
	fn := b.twoFactorFn
	b.mu.Unlock()
	if fn == nil {
		return nil, NewAPIError(ErrBackendUnavailable, 500, "verify not stubbed", nil)
	}
	return fn(ctx, challengeToken, code)
}

func (b *stubBackend) ForgotPassword(ctx context.Context, email string) error {
	b.mu.Lock()
	fn := b.forgotFn
	b.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, email)
}

func (b *stubBackend) ResetPassword(ctx context.Context, resetToken, password string) error {
	b.mu.Lock()
	fn := b.resetFn
	b.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, resetToken, password)
}

func (b *stubBackend) Logout(ctx context.Context, accessToken string) error {
	b.mu.Lock()
	b.logoutCalls++
	fn := b.logoutFn
	b.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, accessToken)
}

func (b *stubBackend) calls() (login, me, refresh int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.meCalls, b.refreshCalls
}

func testUser() *User {
	return &User{
		ID:        "user-1",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Cooper",
		Roles:     []RoleAssignment{{Role: RoleCandidate}},
	}
}

func okLogin(user *User) func(context.Context, Credentials) (*LoginResult, error) {
	return func(context.Context, Credentials) (*LoginResult, error) {
		return &LoginResult{
			User:         user,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    900,
		}, nil
	}
}

func newTestManager(t *testing.T, backend Backend, store tokenstore.Store) *Manager {
	t.Helper()

	b := New().WithBackend(backend)
	if store != nil {
		b.WithTokenStore(store)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func seedTokens(t *testing.T, store tokenstore.Store, access, refresh string) {
	t.Helper()
	if err := store.Save(context.Background(), tokenstore.Tokens{Access: access, Refresh: refresh}); err != nil {
		t.Fatalf("seed tokens failed: %v", err)
	}
}
