package domain

import "time"

// TokenKind discriminates the two token classes minted by the identity provider.
// Backend authorizers expect the ID-class token.
type TokenKind string

const (
	TokenKindID     TokenKind = "id"
	TokenKindAccess TokenKind = "access"
)

const (
	// RefreshBuffer is the window before expiry inside which a token is no
	// longer considered fresh.
	RefreshBuffer = 5 * time.Minute
	// RefreshThreshold is the window before expiry inside which a proactive
	// refresh is worthwhile.
	RefreshThreshold = 10 * time.Minute
)

// Credential is a decoded bearer token. It is read-only: a refresh replaces
// the whole session rather than mutating a credential in place.
type Credential struct {
	Token     string
	Kind      TokenKind
	Issuer    string
	Subject   string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsFresh reports whether the credential is still outside the refresh buffer.
func (c Credential) IsFresh(now time.Time) bool {
	return now.Before(c.ExpiresAt.Add(-RefreshBuffer))
}

// NeedsRefresh reports whether the credential has entered the proactive
// refresh window.
func (c Credential) NeedsRefresh(now time.Time) bool {
	return now.After(c.ExpiresAt.Add(-RefreshThreshold))
}

// Session is the identity provider session held for the signed-in user.
type Session struct {
	IDToken      string    `json:"id_token"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token returns the raw token of the given kind.
func (s *Session) Token(kind TokenKind) string {
	if s == nil {
		return ""
	}
	if kind == TokenKindAccess {
		return s.AccessToken
	}
	return s.IDToken
}

// SessionStatus is the introspection view of the current session.
type SessionStatus struct {
	Authenticated bool
	User          *User
	ExpiresAt     time.Time
	Fresh         bool
}
