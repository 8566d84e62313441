package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
	"github.com/hederavault/walletd/internal/metrics"
)

const (
	DefaultTransactionsLimit = 25
	maxTransactionsLimit     = 100
)

// WalletClient orchestrates KMS-backed wallet custody. Key generation, ledger
// account creation and key encryption happen in the provisioning backend; the
// client never sees private key material.
type WalletClient struct {
	api     ports.ProvisioningAPI
	mirror  ports.LedgerMirror
	profile ports.ProfileUpdater
	users   ports.UserSource
	usdRate float64
	log     zerolog.Logger
	now     func() time.Time

	balanceRefreshing      atomic.Bool
	transactionsRefreshing atomic.Bool
}

// NewWalletClient returns a WalletClient. usdRate converts HBAR to USD for
// display; profile may be nil when profile annotation is disabled.
func NewWalletClient(
	api ports.ProvisioningAPI,
	mirror ports.LedgerMirror,
	profile ports.ProfileUpdater,
	users ports.UserSource,
	usdRate float64,
	log zerolog.Logger,
) *WalletClient {
	return &WalletClient{
		api:     api,
		mirror:  mirror,
		profile: profile,
		users:   users,
		usdRate: usdRate,
		log:     log,
		now:     time.Now,
	}
}

// HasWallet reports whether the user already has a wallet. Lookup failures,
// authentication included, count as "no wallet yet" so onboarding can proceed.
func (c *WalletClient) HasWallet(ctx context.Context) bool {
	wallet, err := c.GetWallet(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("wallet lookup failed, assuming no wallet")
		return false
	}
	return wallet != nil
}

// GetWallet fetches the user's wallet. It returns (nil, nil) when the user has
// none or the lookup failed transiently. Authentication errors are always
// returned so callers can tell "not signed in" apart from "no wallet".
func (c *WalletClient) GetWallet(ctx context.Context) (*domain.SecureWalletInfo, error) {
	resp, err := c.api.WalletStatus(ctx)
	if err != nil {
		if domain.IsAuthError(err) {
			return nil, fmt.Errorf("get wallet: %w", err)
		}
		c.log.Warn().Err(err).Msg("wallet status lookup failed")
		return nil, nil
	}
	if !resp.Success || !resp.HasWallet || resp.Wallet == nil || resp.Wallet.HederaAccountID == "" {
		return nil, nil
	}

	userID := resp.UserID
	if userID == "" {
		if user, err := c.users.CurrentUser(ctx); err == nil {
			userID = user.ID
		}
	}
	return walletFromPayload(userID, resp.Wallet), nil
}

// CreateWallet provisions a wallet for the signed-in user. It is idempotent:
// an already provisioned user gets the existing wallet back as a success.
// Failures are reported in the result and a terminal failed progress event;
// nothing is returned as an error.
func (c *WalletClient) CreateWallet(ctx context.Context, req ports.CreateWalletRequest, onProgress ports.ProgressFunc) ports.CreateWalletResult {
	emit := func(stage domain.ProgressStage, percent int, msg string) {
		if onProgress != nil {
			onProgress(domain.CreateWalletProgress{Stage: stage, Percent: percent, Message: msg})
		}
	}
	fail := func(err error) ports.CreateWalletResult {
		c.log.Error().Err(err).Msg("wallet creation failed")
		metrics.WalletCreateTotal.WithLabelValues("failed").Inc()
		emit(domain.StageFailed, 0, err.Error())
		return ports.CreateWalletResult{Success: false, Error: err.Error()}
	}

	emit(domain.StageInitializing, 10, "Initializing secure wallet")

	// 1. Idempotency: an existing wallet is the result.
	existing, err := c.GetWallet(ctx)
	switch {
	case err != nil:
		return fail(err)
	case existing != nil:
		c.log.Info().Str("account_id", existing.AccountAlias).Msg("wallet already exists")
		metrics.WalletCreateTotal.WithLabelValues("existing").Inc()
		emit(domain.StageComplete, 100, "Wallet ready")
		return ports.CreateWalletResult{Success: true, Wallet: existing, AlreadyExisted: true}
	}

	// 2. Ask the backend to generate keys and create the ledger account.
	emit(domain.StageCreatingAccount, 30, "Creating Hedera account")
	resp, err := c.api.StartOnboarding(ctx, ports.StartOnboardingRequest{
		Action:             "start",
		InitialBalanceHBAR: req.InitialBalanceHBAR,
		AccountMemo:        req.AccountMemo,
	})
	if err != nil {
		return fail(fmt.Errorf("create wallet: %w", err))
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "provisioning service rejected the request"
		}
		return fail(fmt.Errorf("create wallet: %s", msg))
	}

	userID := ""
	if user, err := c.users.CurrentUser(ctx); err == nil {
		userID = user.ID
	}
	wallet := walletFromStart(userID, resp, c.now().UTC())

	// 3. Profile annotation is cosmetic; the wallet exists either way. An
	// account assigned asynchronously is annotated once its alias is known.
	emit(domain.StageUpdatingProfile, 70, "Updating profile")
	c.AnnotateProfile(ctx, wallet)

	c.log.Info().Str("account_id", wallet.AccountAlias).Str("user_id", userID).Msg("wallet created")
	metrics.WalletCreateTotal.WithLabelValues("created").Inc()
	emit(domain.StageComplete, 100, "Wallet ready")
	return ports.CreateWalletResult{Success: true, Wallet: wallet}
}

// AnnotateProfile writes the wallet metadata to the user's identity profile.
// It is best-effort and does nothing until the wallet has an account alias.
func (c *WalletClient) AnnotateProfile(ctx context.Context, wallet *domain.SecureWalletInfo) {
	if c.profile == nil || wallet == nil || wallet.AccountAlias == "" {
		return
	}
	if err := c.profile.UpdateWalletAttributes(ctx, wallet); err != nil {
		c.log.Warn().Err(err).Str("account_id", wallet.AccountAlias).Msg("profile update failed")
	}
}

// GetBalance reads the account balance through the authenticated mirror
// proxy. Balance is display data: every failure yields nil.
func (c *WalletClient) GetBalance(ctx context.Context, accountID string) *domain.WalletBalance {
	if accountID == "" {
		return nil
	}
	resp, err := c.api.Balance(ctx, accountID)
	if err != nil {
		c.log.Warn().Err(err).Str("account_id", accountID).Msg("balance lookup failed")
		return nil
	}
	if !resp.Success {
		c.log.Warn().Str("account_id", accountID).Str("error", resp.Error).Msg("balance lookup rejected")
		return nil
	}

	hbar, err := parseBalance(resp.Data.Balance)
	if err != nil {
		c.log.Warn().Err(err).Str("account_id", accountID).Msg("balance unparseable")
		return nil
	}
	return &domain.WalletBalance{
		HBAR:        hbar,
		USD:         hbar * c.usdRate,
		LastUpdated: c.now().UTC(),
	}
}

// RefreshBalance is GetBalance behind an in-flight guard: while one refresh
// runs, further calls return domain.ErrRefreshInProgress without touching
// the network.
func (c *WalletClient) RefreshBalance(ctx context.Context, accountID string) (*domain.WalletBalance, error) {
	if !c.balanceRefreshing.CompareAndSwap(false, true) {
		metrics.RefreshSkippedTotal.WithLabelValues("balance").Inc()
		return nil, domain.ErrRefreshInProgress
	}
	defer c.balanceRefreshing.Store(false)

	return c.GetBalance(ctx, accountID), nil
}

// RefreshTransactions lists recent account transactions from the public
// mirror, behind the same kind of in-flight guard as RefreshBalance.
func (c *WalletClient) RefreshTransactions(ctx context.Context, accountID string, q ports.TransactionsQuery) ([]domain.LedgerTransaction, error) {
	if !c.transactionsRefreshing.CompareAndSwap(false, true) {
		metrics.RefreshSkippedTotal.WithLabelValues("transactions").Inc()
		return nil, domain.ErrRefreshInProgress
	}
	defer c.transactionsRefreshing.Store(false)

	if q.Limit <= 0 {
		q.Limit = DefaultTransactionsLimit
	}
	if q.Limit > maxTransactionsLimit {
		q.Limit = maxTransactionsLimit
	}
	if q.Order != "asc" {
		q.Order = "desc"
	}

	txs, err := c.mirror.AccountTransactions(ctx, accountID, q.Limit, q.Order)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// RetryProvisioning asks the backend to re-drive a failed provisioning attempt.
func (c *WalletClient) RetryProvisioning(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := c.api.RetryOnboarding(ctx, userID); err != nil {
		return fmt.Errorf("retry provisioning: %w", err)
	}
	c.log.Info().Str("user_id", userID).Msg("provisioning retry requested")
	return nil
}

// parseBalance turns a human formatted balance such as "12.5 ℏ" or
// "1,024.00000000 HBAR" into a number.
func parseBalance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, errors.New("empty balance")
	}
	return strconv.ParseFloat(s, 64)
}

func walletFromPayload(userID string, p *ports.WalletPayload) *domain.SecureWalletInfo {
	w := &domain.SecureWalletInfo{
		UserID:       userID,
		AccountAlias: p.HederaAccountID,
		PublicKey:    p.PublicKey,
		Security:     domain.SecurityKMSEnhanced,
		AccountType:  p.AccountType,
		NeedsFunding: true,
		Version:      p.Version,
	}
	if p.NeedsFunding != nil {
		w.NeedsFunding = *p.NeedsFunding
	}
	if p.EncryptionInfo != nil {
		w.EncryptionInfo = domain.EncryptionInfo{KMSKeyID: p.EncryptionInfo.KMSKeyID, SecretName: p.EncryptionInfo.SecretName}
	}
	if ts, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		w.CreatedAt = ts.UTC()
	}
	applyWalletDefaults(w)
	return w
}

func walletFromStart(userID string, resp *ports.StartOnboardingResponse, now time.Time) *domain.SecureWalletInfo {
	w := &domain.SecureWalletInfo{
		UserID:       userID,
		AccountAlias: resp.HederaAccountID,
		PublicKey:    resp.PublicKey,
		Security:     domain.SecurityKMSEnhanced,
		AccountType:  resp.AccountType,
		NeedsFunding: resp.NeedsFunding,
		CreatedAt:    now,
	}
	if resp.EncryptionInfo != nil {
		w.EncryptionInfo = domain.EncryptionInfo{KMSKeyID: resp.EncryptionInfo.KMSKeyID, SecretName: resp.EncryptionInfo.SecretName}
	}
	applyWalletDefaults(w)
	return w
}

// applyWalletDefaults fills the sub-fields a partially populated backend
// response may omit.
func applyWalletDefaults(w *domain.SecureWalletInfo) {
	if w.EncryptionInfo.KMSKeyID == "" {
		w.EncryptionInfo.KMSKeyID = domain.DefaultKMSKeyID
	}
	if w.EncryptionInfo.SecretName == "" && w.UserID != "" {
		w.EncryptionInfo.SecretName = domain.DefaultSecretPrefix + w.UserID
	}
	if w.AccountType == "" {
		w.AccountType = domain.DefaultAccountType
	}
	if w.Version == "" {
		w.Version = domain.DefaultWalletVersion
	}
}
