package ports

import (
	"context"

	"github.com/hederavault/walletd/internal/core/domain"
)

// SessionStore persists the identity provider session. Load returns
// domain.ErrNotAuthenticated when no session has been installed.
type SessionStore interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Clear(ctx context.Context) error
}

// IdentityProvider refreshes sessions minted at sign-in. The returned session
// may carry an empty refresh token when the provider does not rotate it.
type IdentityProvider interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
}

// ProfileUpdater annotates the user's identity profile with wallet metadata.
type ProfileUpdater interface {
	UpdateWalletAttributes(ctx context.Context, wallet *domain.SecureWalletInfo) error
}

// TokenSource hands out currently valid bearer credentials.
type TokenSource interface {
	ValidToken(ctx context.Context, kind domain.TokenKind) (string, bool)
	ForceRefresh(ctx context.Context) error
}

// UserSource resolves the signed-in user.
type UserSource interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}
