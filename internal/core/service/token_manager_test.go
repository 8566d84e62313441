package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
)

func newTokenManager(t *testing.T, idExp time.Time, idp *stubIDP) (*TokenManager, *stubStore) {
	t.Helper()
	store := &stubStore{session: &domain.Session{
		IDToken:      makeToken(t, "user-1", "id", idExp),
		AccessToken:  makeToken(t, "user-1", "access", idExp),
		RefreshToken: "refresh-1",
	}}
	if idp == nil {
		idp = &stubIDP{refreshFn: func(context.Context, string) (*domain.Session, error) {
			return nil, errors.New("refresh must not be called")
		}}
	}
	return NewTokenManager(store, idp, zerolog.Nop()), store
}

func failingIDP() *stubIDP {
	return &stubIDP{refreshFn: func(context.Context, string) (*domain.Session, error) {
		return nil, errors.New("identity provider unavailable")
	}}
}

func TestTokenManager_FreshnessBoundary(t *testing.T) {
	t.Run("expires in 6 minutes is fresh", func(t *testing.T) {
		idp := failingIDP()
		m, store := newTokenManager(t, time.Now().Add(6*time.Minute), idp)

		token, ok := m.ValidToken(context.Background(), domain.TokenKindID)
		if !ok || token != store.session.IDToken {
			t.Fatalf("expected stored token, got ok=%v", ok)
		}
		if idp.calls.Load() != 0 {
			t.Fatalf("fresh token must not trigger a refresh, got %d calls", idp.calls.Load())
		}
	})

	t.Run("expires in 4 minutes triggers refresh", func(t *testing.T) {
		idp := failingIDP()
		m, _ := newTokenManager(t, time.Now().Add(4*time.Minute), idp)

		if _, ok := m.ValidToken(context.Background(), domain.TokenKindID); !ok {
			t.Fatal("expected a token")
		}
		if idp.calls.Load() != 1 {
			t.Fatalf("expected exactly one refresh attempt, got %d", idp.calls.Load())
		}
	})
}

func TestTokenManager_ExpiredTokenServedStaleWhenRefreshFails(t *testing.T) {
	idp := failingIDP()
	m, store := newTokenManager(t, time.Now().Add(-60*time.Second), idp)
	stale := store.session.IDToken

	token, ok := m.ValidToken(context.Background(), domain.TokenKindID)
	if !ok {
		t.Fatal("fail-open: expected the stale token, got none")
	}
	if token != stale {
		t.Fatal("expected the stale token to be returned unchanged")
	}
	if store.session == nil {
		t.Fatal("a failed refresh must not sign the user out")
	}
}

func TestTokenManager_RefreshSuccess(t *testing.T) {
	var fresh string
	idp := &stubIDP{refreshFn: func(_ context.Context, rt string) (*domain.Session, error) {
		if rt != "refresh-1" {
			t.Fatalf("unexpected refresh token %q", rt)
		}
		return &domain.Session{IDToken: fresh}, nil
	}}
	m, store := newTokenManager(t, time.Now().Add(time.Minute), idp)
	fresh = makeToken(t, "user-1", "id", time.Now().Add(time.Hour))
	oldAccess := store.session.AccessToken

	token, ok := m.ValidToken(context.Background(), domain.TokenKindID)
	if !ok || token != fresh {
		t.Fatal("expected the refreshed token")
	}
	if store.session.RefreshToken != "refresh-1" {
		t.Fatal("refresh token must be kept when the provider does not rotate it")
	}
	if store.session.AccessToken != oldAccess {
		t.Fatal("access token must be kept when the provider omits it")
	}
}

func TestTokenManager_MalformedTokenIsAbsent(t *testing.T) {
	store := &stubStore{session: &domain.Session{IDToken: "not.a.jwt", RefreshToken: "rt"}}
	m := NewTokenManager(store, failingIDP(), zerolog.Nop())

	if token, ok := m.ValidToken(context.Background(), domain.TokenKindID); ok || token != "" {
		t.Fatalf("expected no token, got %q", token)
	}
}

func TestTokenManager_WrongTokenUseIsAbsent(t *testing.T) {
	store := &stubStore{session: &domain.Session{
		IDToken: makeToken(t, "user-1", "access", time.Now().Add(time.Hour)),
	}}
	m := NewTokenManager(store, failingIDP(), zerolog.Nop())

	if _, ok := m.ValidToken(context.Background(), domain.TokenKindID); ok {
		t.Fatal("an access token must not be served as an ID token")
	}
}

func TestTokenManager_NoSession(t *testing.T) {
	m := NewTokenManager(&stubStore{}, failingIDP(), zerolog.Nop())

	if _, ok := m.ValidToken(context.Background(), domain.TokenKindID); ok {
		t.Fatal("expected no token without a session")
	}
	if _, err := m.AuthHeaders(context.Background()); !errors.Is(err, domain.ErrNoValidToken) {
		t.Fatalf("expected ErrNoValidToken, got %v", err)
	}
	if _, err := m.CurrentUser(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if m.Status(context.Background()).Authenticated {
		t.Fatal("expected unauthenticated status")
	}
}

func TestTokenManager_AuthHeaders(t *testing.T) {
	m, store := newTokenManager(t, time.Now().Add(time.Hour), nil)

	headers, err := m.AuthHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headers) != 1 || headers["Authorization"] != "Bearer "+store.session.IDToken {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestTokenManager_ConcurrentCallersShareOneRefresh(t *testing.T) {
	release := make(chan struct{})
	var fresh string
	idp := &stubIDP{refreshFn: func(context.Context, string) (*domain.Session, error) {
		<-release
		return &domain.Session{IDToken: fresh}, nil
	}}
	m, _ := newTokenManager(t, time.Now().Add(time.Minute), idp)
	fresh = makeToken(t, "user-1", "id", time.Now().Add(time.Hour))

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = m.ValidToken(context.Background(), domain.TokenKindID)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := idp.calls.Load(); n != 1 {
		t.Fatalf("expected a single refresh, got %d", n)
	}
	for i, tok := range tokens {
		if tok != fresh {
			t.Fatalf("caller %d got a stale token", i)
		}
	}
}

func TestTokenManager_SignOutDuringRefreshDoesNotResurrectSession(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var fresh string
	idp := &stubIDP{refreshFn: func(context.Context, string) (*domain.Session, error) {
		close(entered)
		<-release
		return &domain.Session{IDToken: fresh}, nil
	}}
	m, store := newTokenManager(t, time.Now().Add(time.Hour), idp)
	fresh = makeToken(t, "user-1", "id", time.Now().Add(2*time.Hour))

	errCh := make(chan error, 1)
	go func() { errCh <- m.ForceRefresh(context.Background()) }()

	<-entered
	if err := m.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	close(release)

	if err := <-errCh; !errors.Is(err, domain.ErrTokenRefreshFailed) {
		t.Fatalf("expected refresh to fail after sign-out, got %v", err)
	}
	if store.session != nil {
		t.Fatal("sign-out must win over an in-flight refresh")
	}
}

func TestTokenManager_SignOutRunsHooks(t *testing.T) {
	m, store := newTokenManager(t, time.Now().Add(time.Hour), nil)

	var fired int
	m.OnSignOut(func(context.Context) { fired++ })
	m.OnSignOut(func(context.Context) { fired++ })

	if err := m.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if fired != 2 {
		t.Fatalf("expected both hooks to run, got %d", fired)
	}
	if store.session != nil {
		t.Fatal("expected session to be cleared")
	}
}

func TestTokenManager_Init(t *testing.T) {
	store := &stubStore{}
	m := NewTokenManager(store, failingIDP(), zerolog.Nop())

	if err := m.Init(context.Background(), &domain.Session{IDToken: "garbage"}); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if err := m.Init(context.Background(), nil); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for nil session, got %v", err)
	}

	id := makeToken(t, "user-42", "id", time.Now().Add(time.Hour))
	if err := m.Init(context.Background(), &domain.Session{IDToken: id, RefreshToken: "rt"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if store.session == nil || store.session.UpdatedAt.IsZero() {
		t.Fatal("expected stored session with UpdatedAt")
	}

	user, err := m.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.ID != "user-42" || user.Username != "user-42" || user.Email != "user-42@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	st := m.Status(context.Background())
	if !st.Authenticated || !st.Fresh || st.User.ID != "user-42" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestTokenManager_RefreshIfDue(t *testing.T) {
	t.Run("outside threshold", func(t *testing.T) {
		m, _ := newTokenManager(t, time.Now().Add(20*time.Minute), nil)
		refreshed, err := m.RefreshIfDue(context.Background())
		if err != nil || refreshed {
			t.Fatalf("expected no refresh, got %v %v", refreshed, err)
		}
	})

	t.Run("inside threshold", func(t *testing.T) {
		var fresh string
		idp := &stubIDP{refreshFn: func(context.Context, string) (*domain.Session, error) {
			return &domain.Session{IDToken: fresh}, nil
		}}
		m, store := newTokenManager(t, time.Now().Add(8*time.Minute), idp)
		fresh = makeToken(t, "user-1", "id", time.Now().Add(time.Hour))

		refreshed, err := m.RefreshIfDue(context.Background())
		if err != nil || !refreshed {
			t.Fatalf("expected a refresh, got %v %v", refreshed, err)
		}
		if store.session.IDToken != fresh {
			t.Fatal("expected refreshed token to be stored")
		}
	})

	t.Run("no session", func(t *testing.T) {
		m := NewTokenManager(&stubStore{}, failingIDP(), zerolog.Nop())
		if refreshed, err := m.RefreshIfDue(context.Background()); refreshed || err != nil {
			t.Fatalf("expected silent no-op, got %v %v", refreshed, err)
		}
	})
}
