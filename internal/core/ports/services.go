package ports

import (
	"context"
	"time"

	"github.com/hederavault/walletd/internal/core/domain"
)

// SessionManager is the session surface exposed to the API layer.
type SessionManager interface {
	Init(ctx context.Context, session *domain.Session) error
	Status(ctx context.Context) domain.SessionStatus
	CurrentUser(ctx context.Context) (*domain.User, error)
	SignOut(ctx context.Context) error
}

// PollOptions bounds WaitForCompletion. Zero values fall back to the defaults.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

// StatusService derives a user's provisioning state.
type StatusService interface {
	GetStatus(ctx context.Context, user *domain.User) (*domain.OnboardingStatus, error)
	WaitForCompletion(ctx context.Context, user *domain.User, opts PollOptions) (*domain.OnboardingStatus, error)
}

// CreateWalletRequest carries the optional parameters of a wallet creation.
type CreateWalletRequest struct {
	InitialBalanceHBAR float64
	AccountMemo        string
}

// CreateWalletResult is the terminal, UI-facing outcome of CreateWallet. It is
// a result, not an error channel.
type CreateWalletResult struct {
	Success bool
	Wallet  *domain.SecureWalletInfo
	Error   string
	// AlreadyExisted is true when the user was provisioned before the call.
	AlreadyExisted bool
}

// ProgressFunc receives wallet creation milestones. It may be nil.
type ProgressFunc func(domain.CreateWalletProgress)

// TransactionsQuery carries the mirror query parameters.
type TransactionsQuery struct {
	Limit int
	Order string
}

// WalletService is the secure wallet surface exposed to the API layer.
type WalletService interface {
	HasWallet(ctx context.Context) bool
	GetWallet(ctx context.Context) (*domain.SecureWalletInfo, error)
	CreateWallet(ctx context.Context, req CreateWalletRequest, onProgress ProgressFunc) CreateWalletResult
	AnnotateProfile(ctx context.Context, wallet *domain.SecureWalletInfo)
	GetBalance(ctx context.Context, accountID string) *domain.WalletBalance
	RefreshBalance(ctx context.Context, accountID string) (*domain.WalletBalance, error)
	RefreshTransactions(ctx context.Context, accountID string, q TransactionsQuery) ([]domain.LedgerTransaction, error)
	RetryProvisioning(ctx context.Context, userID string) error
}

// OnboardingState is the overall state of the onboarding step machine.
type OnboardingState string

const (
	OnboardingIdle    OnboardingState = "idle"
	OnboardingRunning OnboardingState = "running"
	OnboardingHalted  OnboardingState = "halted"
	OnboardingReady   OnboardingState = "ready"
)

// OnboardingSnapshot is a point-in-time copy of the step machine.
type OnboardingSnapshot struct {
	RunID     string
	State     OnboardingState
	Steps     []domain.OnboardingStep
	Current   int
	Progress  int
	Completed bool
	Wallet    *domain.SecureWalletInfo
	Error     string
	UpdatedAt time.Time
}

// OnboardingService drives the user-visible onboarding flow.
type OnboardingService interface {
	Start(ctx context.Context) bool
	Retry(ctx context.Context) bool
	Snapshot() OnboardingSnapshot
}
