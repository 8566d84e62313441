package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
	"github.com/hederavault/walletd/internal/metrics"
)

const (
	triggerValidityCheck = "validity_check"
	triggerProactive     = "proactive"
	triggerUnauthorized  = "unauthorized"
)

// TokenManager owns the lifecycle of the identity provider session: it hands
// out currently valid bearer tokens and refreshes them when they are about
// to expire.
//
// A failed refresh never signs the user out. The stale token is returned so
// the downstream call fails with a clean 401 instead.
type TokenManager struct {
	store ports.SessionStore
	idp   ports.IdentityProvider
	log   zerolog.Logger
	now   func() time.Time

	refreshes singleflight.Group
	// epoch changes on every sign-out; a refresh started before a sign-out
	// must not resurrect the session.
	epoch atomic.Uint64

	hooksMu sync.Mutex
	hooks   []func(context.Context)
}

// NewTokenManager returns a TokenManager over the given store and identity provider.
func NewTokenManager(store ports.SessionStore, idp ports.IdentityProvider, log zerolog.Logger) *TokenManager {
	return &TokenManager{
		store: store,
		idp:   idp,
		log:   log,
		now:   time.Now,
	}
}

// OnSignOut registers fn to run after every sign-out.
func (m *TokenManager) OnSignOut(fn func(context.Context)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Init installs the session minted by the identity provider at sign-in.
func (m *TokenManager) Init(ctx context.Context, session *domain.Session) error {
	if session == nil || session.IDToken == "" {
		return domain.ErrInvalidSession
	}
	if _, _, err := decodeCredential(session.IDToken, domain.TokenKindID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}

	s := *session
	s.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, &s); err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	m.log.Info().Msg("session installed")
	return nil
}

// ValidToken returns a token of the given kind that is fresh whenever a
// refresh could make it so. It reports false only when there is no usable
// session at all; malformed tokens count as absent.
func (m *TokenManager) ValidToken(ctx context.Context, kind domain.TokenKind) (string, bool) {
	session, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			m.log.Warn().Err(err).Msg("session load failed")
		}
		return "", false
	}

	cred, _, err := decodeCredential(session.Token(kind), kind)
	if err != nil {
		m.log.Debug().Err(err).Str("kind", string(kind)).Msg("session token unusable")
		return "", false
	}
	if cred.IsFresh(m.now()) {
		return cred.Token, true
	}

	refreshed, err := m.refresh(ctx, triggerValidityCheck)
	if err != nil {
		m.log.Warn().Err(err).Str("kind", string(kind)).Time("expires_at", cred.ExpiresAt).
			Msg("token refresh failed, serving stale token")
		metrics.StaleTokenServedTotal.Inc()
		return cred.Token, true
	}

	next, _, err := decodeCredential(refreshed.Token(kind), kind)
	if err != nil {
		m.log.Warn().Err(err).Str("kind", string(kind)).Msg("refreshed token unusable, serving previous token")
		return cred.Token, true
	}
	return next.Token, true
}

// AuthHeaders returns the canonical Authorization header carrying the
// ID-class token.
func (m *TokenManager) AuthHeaders(ctx context.Context) (map[string]string, error) {
	token, ok := m.ValidToken(ctx, domain.TokenKindID)
	if !ok {
		return nil, domain.ErrNoValidToken
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// ForceRefresh performs a single refresh regardless of token freshness.
func (m *TokenManager) ForceRefresh(ctx context.Context) error {
	_, err := m.refresh(ctx, triggerUnauthorized)
	return err
}

// RefreshIfDue refreshes the session when the ID token has entered the
// proactive refresh window. It reports whether a refresh happened.
func (m *TokenManager) RefreshIfDue(ctx context.Context) (bool, error) {
	session, err := m.store.Load(ctx)
	if err != nil {
		return false, nil
	}
	cred, _, err := decodeCredential(session.IDToken, domain.TokenKindID)
	if err != nil || !cred.NeedsRefresh(m.now()) {
		return false, nil
	}
	if _, err := m.refresh(ctx, triggerProactive); err != nil {
		return false, err
	}
	return true, nil
}

// CurrentUser decodes the signed-in user from the ID token.
func (m *TokenManager) CurrentUser(ctx context.Context) (*domain.User, error) {
	session, err := m.store.Load(ctx)
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}
	_, claims, err := decodeCredential(session.IDToken, domain.TokenKindID)
	if err != nil || claims.Subject == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return &domain.User{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

// Status describes the current session without refreshing it.
func (m *TokenManager) Status(ctx context.Context) domain.SessionStatus {
	session, err := m.store.Load(ctx)
	if err != nil {
		return domain.SessionStatus{}
	}
	cred, claims, err := decodeCredential(session.IDToken, domain.TokenKindID)
	if err != nil {
		return domain.SessionStatus{}
	}
	return domain.SessionStatus{
		Authenticated: true,
		User:          &domain.User{ID: claims.Subject, Username: claims.Username, Email: claims.Email},
		ExpiresAt:     cred.ExpiresAt,
		Fresh:         cred.IsFresh(m.now()),
	}
}

// SignOut clears all session state. It is only ever invoked explicitly.
func (m *TokenManager) SignOut(ctx context.Context) error {
	m.epoch.Add(1)
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	m.hooksMu.Lock()
	hooks := append([]func(context.Context){}, m.hooks...)
	m.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}

	m.log.Info().Msg("signed out")
	return nil
}

// refresh exchanges the refresh token once. Concurrent callers share the
// same in-flight exchange.
func (m *TokenManager) refresh(ctx context.Context, trigger string) (*domain.Session, error) {
	epoch := m.epoch.Load()
	v, err, _ := m.refreshes.Do("refresh", func() (any, error) {
		current, err := m.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if current.RefreshToken == "" {
			return nil, errors.New("session has no refresh token")
		}

		next, err := m.idp.Refresh(ctx, current.RefreshToken)
		if err != nil {
			return nil, err
		}
		if next.RefreshToken == "" {
			next.RefreshToken = current.RefreshToken
		}
		if next.AccessToken == "" {
			next.AccessToken = current.AccessToken
		}
		next.UpdatedAt = m.now().UTC()

		if m.epoch.Load() != epoch {
			return nil, domain.ErrNotAuthenticated
		}
		if err := m.store.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("save refreshed session: %w", err)
		}
		return next, nil
	})

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.TokenRefreshTotal.WithLabelValues(trigger, result).Inc()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err)
	}

	m.log.Debug().Str("trigger", trigger).Msg("session refreshed")
	return v.(*domain.Session), nil
}
