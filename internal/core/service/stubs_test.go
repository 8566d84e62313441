package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// makeToken builds a JWT expiring at exp. Signatures are never verified
// locally, so any key will do.
func makeToken(t *testing.T, sub, use string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":              sub,
		"exp":              exp.Unix(),
		"iat":              time.Now().Unix(),
		"email":            sub + "@example.com",
		"cognito:username": sub,
	}
	if use != "" {
		claims["token_use"] = use
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// ---------------------------------------------------------------------------
// Session store / identity provider
// ---------------------------------------------------------------------------

type stubStore struct {
	mu      sync.Mutex
	session *domain.Session
	saves   int
}

func (s *stubStore) Load(context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	cp := *s.session
	return &cp, nil
}

func (s *stubStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.session = &cp
	s.saves++
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

type stubIDP struct {
	calls     atomic.Int32
	refreshFn func(ctx context.Context, refreshToken string) (*domain.Session, error)
}

func (p *stubIDP) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	p.calls.Add(1)
	return p.refreshFn(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Provisioning backend
// ---------------------------------------------------------------------------

type stubProvisioning struct {
	mu sync.Mutex

	statusFn  func(ctx context.Context, userID string) (*ports.ProvisioningStatusResponse, error)
	walletFn  func(ctx context.Context) (*ports.WalletStatusResponse, error)
	startFn   func(ctx context.Context, req ports.StartOnboardingRequest) (*ports.StartOnboardingResponse, error)
	retryFn   func(ctx context.Context, userID string) error
	balanceFn func(ctx context.Context, accountID string) (*ports.BalanceResponse, error)

	statusCalls int
	startCalls  int
	retryCalls  int
	lastStart   ports.StartOnboardingRequest
}

func (s *stubProvisioning) ProvisioningStatus(ctx context.Context, userID string) (*ports.ProvisioningStatusResponse, error) {
	s.mu.Lock()
	s.statusCalls++
	s.mu.Unlock()
	return s.statusFn(ctx, userID)
}

func (s *stubProvisioning) WalletStatus(ctx context.Context) (*ports.WalletStatusResponse, error) {
	return s.walletFn(ctx)
}

func (s *stubProvisioning) StartOnboarding(ctx context.Context, req ports.StartOnboardingRequest) (*ports.StartOnboardingResponse, error) {
	s.mu.Lock()
	s.startCalls++
	s.lastStart = req
	s.mu.Unlock()
	return s.startFn(ctx, req)
}

func (s *stubProvisioning) RetryOnboarding(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.retryCalls++
	s.mu.Unlock()
	if s.retryFn == nil {
		return nil
	}
	return s.retryFn(ctx, userID)
}

func (s *stubProvisioning) Balance(ctx context.Context, accountID string) (*ports.BalanceResponse, error) {
	return s.balanceFn(ctx, accountID)
}

// provisionedBackend simulates a backend that creates exactly one account per
// user and reports it from then on.
func provisionedBackend(accountID string, exists bool) *stubProvisioning {
	var created atomic.Bool
	created.Store(exists)

	s := &stubProvisioning{}
	s.walletFn = func(context.Context) (*ports.WalletStatusResponse, error) {
		if !created.Load() {
			return &ports.WalletStatusResponse{Success: true, HasWallet: false}, nil
		}
		return &ports.WalletStatusResponse{
			Success:   true,
			HasWallet: true,
			UserID:    "user-1",
			Wallet:    &ports.WalletPayload{HederaAccountID: accountID, PublicKey: "302a300506032b6570032100"},
		}, nil
	}
	s.startFn = func(context.Context, ports.StartOnboardingRequest) (*ports.StartOnboardingResponse, error) {
		created.Store(true)
		return &ports.StartOnboardingResponse{Success: true, HederaAccountID: accountID, PublicKey: "302a300506032b6570032100", NeedsFunding: true}, nil
	}
	s.statusFn = func(context.Context, string) (*ports.ProvisioningStatusResponse, error) {
		if !created.Load() {
			return nil, domain.ErrProvisioningNotFound
		}
		return &ports.ProvisioningStatusResponse{OnboardingStatus: "completed", HederaAccountID: accountID, WalletExists: true}, nil
	}
	return s
}

// ---------------------------------------------------------------------------
// Misc collaborators
// ---------------------------------------------------------------------------

type stubUsers struct {
	user *domain.User
	err  error
}

func (s stubUsers) CurrentUser(context.Context) (*domain.User, error) { return s.user, s.err }

type stubProfile struct {
	err   error
	calls int
}

func (p *stubProfile) UpdateWalletAttributes(context.Context, *domain.SecureWalletInfo) error {
	p.calls++
	return p.err
}

type stubMirror struct {
	limit int
	order string
	txs   []domain.LedgerTransaction
	err   error
}

func (m *stubMirror) AccountTransactions(_ context.Context, _ string, limit int, order string) ([]domain.LedgerTransaction, error) {
	m.limit, m.order = limit, order
	return m.txs, m.err
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.OnboardingEvent
	err    error
}

func (a *stubAudit) Record(_ context.Context, ev domain.OnboardingEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return a.err
}

func (a *stubAudit) snapshot() []domain.OnboardingEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.OnboardingEvent(nil), a.events...)
}
