package sessionkit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/miraiworks/sessionkit/tokenstore"
)

func TestRefreshAuthWithoutTokenFailsFast(t *testing.T) {
	backend := &stubBackend{}
	m := newTestManager(t, backend, nil)

	_, err := m.RefreshAuth(context.Background())
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
	if _, _, refresh := backend.calls(); refresh != 0 {
		t.Fatalf("expected zero backend calls, got %d", refresh)
	}
}

func TestRefreshAuthRotatesAndPersists(t *testing.T) {
	user := testUser()
	backend := &stubBackend{
		loginFn: okLogin(user),
		refreshFn: func(_ context.Context, refreshToken string) (*RefreshResult, error) {
			if refreshToken != "refresh-1" {
				t.Errorf("Refresh got token %q", refreshToken)
			}
			return &RefreshResult{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 900}, nil
		},
	}
	store := tokenstore.NewMemory()
	m := newTestManager(t, backend, store)

	if _, err := m.Login(context.Background(), Credentials{Email: user.Email, Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := m.RefreshAuth(context.Background()); err != nil {
		t.Fatalf("RefreshAuth failed: %v", err)
	}

	s := m.Snapshot()
	if s.AccessToken != "access-2" || s.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated tokens in session, got %q/%q", s.AccessToken, s.RefreshToken)
	}
	// The cached user survives; refresh responses carry no profile.
	if !s.IsAuthenticated || s.User == nil || s.User.ID != user.ID {
		t.Fatalf("expected cached user kept, got %+v", s)
	}

	stored, _ := store.Read(context.Background())
	if stored.Access != "access-2" || stored.Refresh != "refresh-2" {
		t.Fatalf("expected rotated pair persisted, got %+v", stored)
	}
}

func TestRefreshAuthKeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	backend := &stubBackend{
		refreshFn: func(context.Context, string) (*RefreshResult, error) {
			return &RefreshResult{AccessToken: "access-2", ExpiresIn: 900}, nil
		},
	}
	store := tokenstore.NewMemory()
	seedTokens(t, store, "access-1", "refresh-1")
	m := newTestManager(t, backend, store)

	if _, err := m.RefreshAuth(context.Background()); err != nil {
		t.Fatalf("RefreshAuth failed: %v", err)
	}

	stored, _ := store.Read(context.Background())
	if stored.Access != "access-2" || stored.Refresh != "refresh-1" {
		t.Fatalf("expected old refresh token kept, got %+v", stored)
	}
}

func TestRefreshAuthFailureResetsSession(t *testing.T) {
	user := testUser()
	backendErr := NewAPIError(ErrUnauthorized, 401, "refresh token revoked", nil)
	backend := &stubBackend{
		loginFn: okLogin(user),
		refreshFn: func(context.Context, string) (*RefreshResult, error) {
			return nil, backendErr
		},
	}
	store := tokenstore.NewMemory()
	m := newTestManager(t, backend, store)

	if _, err := m.Login(context.Background(), Credentials{Email: user.Email, Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := m.RefreshAuth(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected the backend error re-raised, got %v", err)
	}

	s := m.Snapshot()
	if s.IsAuthenticated || s.User != nil || s.Error != "" {
		t.Fatalf("expected clean anonymous session, got %+v", s)
	}

	stored, _ := store.Read(context.Background())
	if stored.Present() {
		t.Fatalf("expected cleared store, got %+v", stored)
	}
}

func TestRefreshAuthCoalescesConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	backend := &stubBackend{
		refreshFn: func(context.Context, string) (*RefreshResult, error) {
			<-release
			return &RefreshResult{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
		},
	}
	store := tokenstore.NewMemory()
	seedTokens(t, store, "access-1", "refresh-1")
	m := newTestManager(t, backend, store)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	started := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			_, errs[i] = m.RefreshAuth(context.Background())
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}

	// All callers share at most a couple of flights; without coalescing
	// this would be eight backend calls.
	if _, _, refresh := backend.calls(); refresh > 2 {
		t.Fatalf("expected coalesced refresh calls, got %d", refresh)
	}
}

func TestStaleRefreshCompletionDiscardedAfterLogout(t *testing.T) {
	user := testUser()
	inRefresh := make(chan struct{})
	release := make(chan struct{})
	backend := &stubBackend{
		loginFn: okLogin(user),
		refreshFn: func(context.Context, string) (*RefreshResult, error) {
			close(inRefresh)
			<-release
			return &RefreshResult{AccessToken: "late-access", RefreshToken: "late-refresh"}, nil
		},
	}
	store := tokenstore.NewMemory()
	m := newTestManager(t, backend, store)

	if _, err := m.Login(context.Background(), Credentials{Email: user.Email, Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = m.RefreshAuth(context.Background())
	}()

	<-inRefresh
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	close(release)
	wg.Wait()

	// The refresh finished after logout; its completion must not
	// resurrect the session.
	s := m.Snapshot()
	if s.IsAuthenticated || s.AccessToken != "" {
		t.Fatalf("stale completion resurrected the session: %+v", s)
	}
	if got := m.MetricsSnapshot().Counters[MetricStaleCompletionDiscarded]; got != 1 {
		t.Fatalf("expected one discarded completion, got %d", got)
	}
}
