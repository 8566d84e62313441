package identity

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

// Custom profile attributes written once a wallet exists.
const (
	AttrAccountID    = "custom:hedera_account_id"
	AttrPublicKey    = "custom:hedera_public_key"
	AttrSecurity     = "custom:wallet_security"
	AttrKMSKeyID     = "custom:kms_key_id"
	AttrNeedsFunding = "custom:needs_funding"
	AttrCreatedAt    = "custom:wallet_created_at"
)

// ProfileUpdater implements ports.ProfileUpdater with the access-class token
// of the current session.
type ProfileUpdater struct {
	client *Client
	tokens ports.TokenSource
}

var _ ports.ProfileUpdater = (*ProfileUpdater)(nil)

// NewProfileUpdater binds client to the session held by tokens.
func NewProfileUpdater(client *Client, tokens ports.TokenSource) *ProfileUpdater {
	return &ProfileUpdater{client: client, tokens: tokens}
}

func (p *ProfileUpdater) UpdateWalletAttributes(ctx context.Context, wallet *domain.SecureWalletInfo) error {
	if wallet == nil || wallet.AccountAlias == "" {
		return domain.ErrWalletNotFound
	}
	token, ok := p.tokens.ValidToken(ctx, domain.TokenKindAccess)
	if !ok {
		return domain.ErrNoValidToken
	}
	return p.client.updateUserAttributes(ctx, token, walletAttributes(wallet))
}

func walletAttributes(w *domain.SecureWalletInfo) []types.AttributeType {
	attrs := []types.AttributeType{
		attribute(AttrAccountID, w.AccountAlias),
		attribute(AttrSecurity, w.Security),
		attribute(AttrNeedsFunding, strconv.FormatBool(w.NeedsFunding)),
	}
	if w.PublicKey != "" {
		attrs = append(attrs, attribute(AttrPublicKey, w.PublicKey))
	}
	if w.EncryptionInfo.KMSKeyID != "" {
		attrs = append(attrs, attribute(AttrKMSKeyID, w.EncryptionInfo.KMSKeyID))
	}
	if !w.CreatedAt.IsZero() {
		attrs = append(attrs, attribute(AttrCreatedAt, w.CreatedAt.UTC().Format(time.RFC3339)))
	}
	return attrs
}

func attribute(name, value string) types.AttributeType {
	return types.AttributeType{Name: aws.String(name), Value: aws.String(value)}
}
