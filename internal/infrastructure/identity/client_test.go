package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hederavault/walletd/internal/core/domain"
)

const (
	amzTarget      = "AWSCognitoIdentityProviderService."
	amzContentType = "application/x-amz-json-1.1"
)

// Wire shapes of the two user pool actions, as seen by the server.
type initiateAuthRequest struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientID       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type updateUserAttributesRequest struct {
	AccessToken    string `json:"AccessToken"`
	UserAttributes []struct {
		Name  string `json:"Name"`
		Value string `json:"Value"`
	} `json:"UserAttributes"`
}

type stubTokens struct {
	token string
	ok    bool
}

func (s stubTokens) ValidToken(context.Context, domain.TokenKind) (string, bool) {
	return s.token, s.ok
}
func (s stubTokens) ForceRefresh(context.Context) error { return nil }

func TestClient_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Amz-Target") != amzTarget+"InitiateAuth" {
			t.Fatalf("unexpected target %q", r.Header.Get("X-Amz-Target"))
		}
		if r.Header.Get("Content-Type") != amzContentType {
			t.Fatalf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var in initiateAuthRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.AuthFlow != "REFRESH_TOKEN_AUTH" || in.ClientID != "client-1" || in.AuthParameters["REFRESH_TOKEN"] != "rt" {
			t.Fatalf("unexpected request %+v", in)
		}
		_, _ = w.Write([]byte(`{"AuthenticationResult":{"IdToken":"id-2","AccessToken":"ac-2","ExpiresIn":3600,"TokenType":"Bearer"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{ClientID: "client-1", Endpoint: srv.URL}, srv.Client())
	s, err := c.Refresh(context.Background(), "rt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.IDToken != "id-2" || s.AccessToken != "ac-2" || s.RefreshToken != "" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestClient_Refresh_Revoked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"NotAuthorizedException","message":"Refresh Token has been revoked"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{Endpoint: srv.URL}, srv.Client()).Refresh(context.Background(), "rt")
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if !domain.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 RemoteError, got %v", err)
	}
}

func TestClient_Refresh_Throttled(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"TooManyRequestsException","message":"Rate exceeded"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{Endpoint: srv.URL}, srv.Client()).Refresh(context.Background(), "rt")
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 RemoteError, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidSession) {
		t.Fatal("throttling must not invalidate the session")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestClient_Refresh_EmptyToken(t *testing.T) {
	c := NewClient(Config{Region: "us-east-1"}, nil)
	if _, err := c.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if opts := c.api.Options(); opts.Region != "us-east-1" || opts.BaseEndpoint != nil {
		t.Fatalf("expected the regional endpoint, got region=%q base=%v", opts.Region, opts.BaseEndpoint)
	}
}

func TestProfileUpdater_UpdateWalletAttributes(t *testing.T) {
	var got updateUserAttributesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Amz-Target") != amzTarget+"UpdateUserAttributes" {
			t.Fatalf("unexpected target %q", r.Header.Get("X-Amz-Target"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewProfileUpdater(NewClient(Config{Endpoint: srv.URL}, srv.Client()), stubTokens{token: "access-1", ok: true})
	err := p.UpdateWalletAttributes(context.Background(), &domain.SecureWalletInfo{
		AccountAlias: "0.0.123456",
		Security:     domain.SecurityKMSEnhanced,
		NeedsFunding: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccessToken != "access-1" {
		t.Fatalf("expected access token in body, got %q", got.AccessToken)
	}
	attrs := map[string]string{}
	for _, a := range got.UserAttributes {
		attrs[a.Name] = a.Value
	}
	if attrs[AttrAccountID] != "0.0.123456" || attrs[AttrNeedsFunding] != "true" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if _, ok := attrs[AttrPublicKey]; ok {
		t.Fatal("empty public key must not be written")
	}
}

func TestProfileUpdater_NoSession(t *testing.T) {
	p := NewProfileUpdater(NewClient(Config{Endpoint: "http://127.0.0.1:0"}, nil), stubTokens{})
	err := p.UpdateWalletAttributes(context.Background(), &domain.SecureWalletInfo{AccountAlias: "0.0.1"})
	if !errors.Is(err, domain.ErrNoValidToken) {
		t.Fatalf("expected ErrNoValidToken, got %v", err)
	}
}
