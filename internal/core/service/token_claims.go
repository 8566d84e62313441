package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hederavault/walletd/internal/core/domain"
)

var errMissingExpiry = errors.New("token has no exp claim")

// tokenClaims are the claims carried by identity provider tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"cognito:username,omitempty"`
}

// decodeCredential reads the claims of raw without verifying the signature.
// Verification is the backend authorizer's job; the agent only needs the
// expiry and subject.
func decodeCredential(raw string, kind domain.TokenKind) (domain.Credential, *tokenClaims, error) {
	if raw == "" {
		return domain.Credential{}, nil, errors.New("empty token")
	}

	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return domain.Credential{}, nil, fmt.Errorf("decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return domain.Credential{}, nil, errMissingExpiry
	}
	if claims.TokenUse != "" && claims.TokenUse != string(kind) {
		return domain.Credential{}, nil, fmt.Errorf("decode token: token_use %q, want %q", claims.TokenUse, kind)
	}

	cred := domain.Credential{
		Token:     raw,
		Kind:      kind,
		Issuer:    claims.Issuer,
		Subject:   claims.Subject,
		Audience:  claims.Audience,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		cred.IssuedAt = claims.IssuedAt.Time
	}
	return cred, claims, nil
}
