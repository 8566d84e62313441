package provisioning

import (
	"context"
	"sync"
	"time"

	"github.com/hederavault/walletd/internal/core/ports"
)

const (
	DemoAccountID = "0.0.4815162"
	demoPublicKey = "302d300706052b8104000a032200029d2c2ecb4d7ac5b0b9e1a0d6a6e0f2c8d7b3c4a5f6e7d8c9b0a1f2e3d4c5b6a7"
	demoBalance   = "100.00000000 ℏ"
)

// DemoClient serves canned provisioning data without any network calls. It
// behaves like the real backend: one wallet per process, idempotent start.
type DemoClient struct {
	mu        sync.Mutex
	created   bool
	createdAt time.Time
}

var _ ports.ProvisioningAPI = (*DemoClient)(nil)

func NewDemoClient() *DemoClient {
	return &DemoClient{}
}

func (d *DemoClient) ProvisioningStatus(_ context.Context, _ string) (*ports.ProvisioningStatusResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.created {
		return &ports.ProvisioningStatusResponse{OnboardingStatus: "pending", Timestamp: time.Now().UTC()}, nil
	}
	return &ports.ProvisioningStatusResponse{
		OnboardingStatus: "completed",
		HederaAccountID:  DemoAccountID,
		WalletExists:     true,
		Timestamp:        d.createdAt,
	}, nil
}

func (d *DemoClient) WalletStatus(_ context.Context) (*ports.WalletStatusResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.created {
		return &ports.WalletStatusResponse{Success: true}, nil
	}
	return &ports.WalletStatusResponse{
		Success:   true,
		HasWallet: true,
		Wallet: &ports.WalletPayload{
			HederaAccountID: DemoAccountID,
			PublicKey:       demoPublicKey,
			CreatedAt:       d.createdAt.Format(time.RFC3339),
		},
	}, nil
}

func (d *DemoClient) StartOnboarding(_ context.Context, _ ports.StartOnboardingRequest) (*ports.StartOnboardingResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.created {
		d.created = true
		d.createdAt = time.Now().UTC()
	}
	return &ports.StartOnboardingResponse{
		Success:         true,
		HederaAccountID: DemoAccountID,
		PublicKey:       demoPublicKey,
		NeedsFunding:    true,
		AccountType:     "ECDSA_SECP256K1",
	}, nil
}

func (d *DemoClient) RetryOnboarding(_ context.Context, _ string) error {
	return nil
}

func (d *DemoClient) Balance(_ context.Context, _ string) (*ports.BalanceResponse, error) {
	out := &ports.BalanceResponse{Success: true}
	out.Data.Balance = demoBalance
	return out, nil
}
