package ports

import (
	"context"
	"time"

	"github.com/hederavault/walletd/internal/core/domain"
)

// ProvisioningStatusResponse is the provisioning-status shape returned by
// POST /onboarding/status.
type ProvisioningStatusResponse struct {
	OnboardingStatus string    `json:"onboardingStatus"`
	HederaAccountID  string    `json:"hederaAccountId,omitempty"`
	WalletExists     bool      `json:"walletExists"`
	OnboardingError  string    `json:"onboardingError,omitempty"`
	Timestamp        time.Time `json:"timestamp,omitempty"`
}

// WalletPayload is the wallet object embedded in GET /onboarding/status. Every
// field except the account id may be missing.
type WalletPayload struct {
	HederaAccountID string                 `json:"hederaAccountId"`
	PublicKey       string                 `json:"publicKey,omitempty"`
	EncryptionInfo  *EncryptionInfoPayload `json:"encryptionInfo,omitempty"`
	AccountType     string                 `json:"accountType,omitempty"`
	NeedsFunding    *bool                  `json:"needsFunding,omitempty"`
	CreatedAt       string                 `json:"createdAt,omitempty"`
	Version         string                 `json:"version,omitempty"`
}

// EncryptionInfoPayload is the optional key custody block of a wallet payload.
type EncryptionInfoPayload struct {
	KMSKeyID   string `json:"kmsKeyId,omitempty"`
	SecretName string `json:"secretName,omitempty"`
}

// WalletStatusResponse is returned by GET /onboarding/status.
type WalletStatusResponse struct {
	Success   bool           `json:"success"`
	HasWallet bool           `json:"hasWallet"`
	Wallet    *WalletPayload `json:"wallet,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// StartOnboardingRequest is the body of POST /onboarding/start.
type StartOnboardingRequest struct {
	Action             string  `json:"action"`
	InitialBalanceHBAR float64 `json:"initialBalance,omitempty"`
	AccountMemo        string  `json:"accountMemo,omitempty"`
	Network            string  `json:"network,omitempty"`
}

// StartOnboardingResponse is returned by POST /onboarding/start. Re-calling it
// for an already provisioned user returns the existing wallet.
type StartOnboardingResponse struct {
	Success            bool                   `json:"success"`
	HederaAccountID    string                 `json:"hedera_account_id"`
	PublicKey          string                 `json:"public_key"`
	EncryptionInfo     *EncryptionInfoPayload `json:"encryption_info,omitempty"`
	InitialBalanceHBAR float64                `json:"initial_balance_hbar"`
	NeedsFunding       bool                   `json:"needs_funding"`
	AccountType        string                 `json:"account_type"`
	Error              string                 `json:"error,omitempty"`
}

// BalanceResponse is returned by the authenticated balance proxy.
type BalanceResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Balance string `json:"balance"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// ProvisioningAPI is the privileged backend that generates keys, creates the
// ledger account, and encrypts the key material. Bearer credentials are
// attached by the transport.
type ProvisioningAPI interface {
	// ProvisioningStatus returns domain.ErrProvisioningNotFound on HTTP 404.
	ProvisioningStatus(ctx context.Context, userID string) (*ProvisioningStatusResponse, error)
	WalletStatus(ctx context.Context) (*WalletStatusResponse, error)
	StartOnboarding(ctx context.Context, req StartOnboardingRequest) (*StartOnboardingResponse, error)
	RetryOnboarding(ctx context.Context, userID string) error
	Balance(ctx context.Context, accountID string) (*BalanceResponse, error)
}

// LedgerMirror is the public, read-only mirror of ledger state.
type LedgerMirror interface {
	AccountTransactions(ctx context.Context, accountID string, limit int, order string) ([]domain.LedgerTransaction, error)
}

// AuditLog records onboarding step transitions. Failures are non-fatal.
type AuditLog interface {
	Record(ctx context.Context, event domain.OnboardingEvent) error
}
