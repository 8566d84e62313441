package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

type stubSessions struct {
	initFn    func(ctx context.Context, s *domain.Session) error
	status    domain.SessionStatus
	signOutFn func(ctx context.Context) error
}

func (s *stubSessions) Init(ctx context.Context, session *domain.Session) error {
	return s.initFn(ctx, session)
}
func (s *stubSessions) Status(context.Context) domain.SessionStatus { return s.status }
func (s *stubSessions) CurrentUser(context.Context) (*domain.User, error) {
	return s.status.User, nil
}
func (s *stubSessions) SignOut(ctx context.Context) error { return s.signOutFn(ctx) }

type stubStatus struct {
	getFn  func(ctx context.Context, u *domain.User) (*domain.OnboardingStatus, error)
	waitFn func(ctx context.Context, u *domain.User, opts ports.PollOptions) (*domain.OnboardingStatus, error)
}

func (s *stubStatus) GetStatus(ctx context.Context, u *domain.User) (*domain.OnboardingStatus, error) {
	return s.getFn(ctx, u)
}
func (s *stubStatus) WaitForCompletion(ctx context.Context, u *domain.User, opts ports.PollOptions) (*domain.OnboardingStatus, error) {
	return s.waitFn(ctx, u, opts)
}

type stubFlow struct {
	started bool
	snap    ports.OnboardingSnapshot
	calls   []string
}

func (s *stubFlow) Start(context.Context) bool {
	s.calls = append(s.calls, "start")
	return s.started
}
func (s *stubFlow) Retry(context.Context) bool {
	s.calls = append(s.calls, "retry")
	return s.started
}
func (s *stubFlow) Snapshot() ports.OnboardingSnapshot { return s.snap }

type stubWallets struct {
	wallet       *domain.SecureWalletInfo
	walletErr    error
	createFn     func(ctx context.Context, req ports.CreateWalletRequest, fn ports.ProgressFunc) ports.CreateWalletResult
	balance      *domain.WalletBalance
	balanceErr   error
	txs          []domain.LedgerTransaction
	txErr        error
	lastTxQuery  ports.TransactionsQuery
	lastTxAcctID string
}

func (s *stubWallets) HasWallet(context.Context) bool { return s.wallet != nil }
func (s *stubWallets) GetWallet(context.Context) (*domain.SecureWalletInfo, error) {
	return s.wallet, s.walletErr
}
func (s *stubWallets) CreateWallet(ctx context.Context, req ports.CreateWalletRequest, fn ports.ProgressFunc) ports.CreateWalletResult {
	return s.createFn(ctx, req, fn)
}
func (s *stubWallets) GetBalance(context.Context, string) *domain.WalletBalance { return s.balance }
func (s *stubWallets) RefreshBalance(context.Context, string) (*domain.WalletBalance, error) {
	return s.balance, s.balanceErr
}
func (s *stubWallets) RefreshTransactions(_ context.Context, id string, q ports.TransactionsQuery) ([]domain.LedgerTransaction, error) {
	s.lastTxAcctID = id
	s.lastTxQuery = q
	return s.txs, s.txErr
}
func (s *stubWallets) RetryProvisioning(context.Context, string) error           { return nil }
func (s *stubWallets) AnnotateProfile(context.Context, *domain.SecureWalletInfo) {}

// newContext builds an echo context with the validator installed and, when
// user is non-nil, the user the session middleware would inject.
func newContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(ContextKeyUser, user)
	}
	return c, rec
}
