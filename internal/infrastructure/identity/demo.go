package identity

import (
	"context"

	"github.com/hederavault/walletd/internal/core/domain"
)

// Demo stands in for the user pool in demo mode. Sessions installed in demo
// mode cannot be refreshed, and profile updates are discarded.
type Demo struct{}

func (Demo) Refresh(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrUnsupported
}

func (Demo) UpdateWalletAttributes(context.Context, *domain.SecureWalletInfo) error {
	return nil
}
