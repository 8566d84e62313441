package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/core/domain"
)

func signedToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestSessionHandler_Install_Success(t *testing.T) {
	idToken := signedToken(t)
	exp := time.Now().Add(time.Hour)
	var got *domain.Session
	stub := &stubSessions{
		initFn: func(ctx context.Context, s *domain.Session) error {
			got = s
			return nil
		},
		status: domain.SessionStatus{Authenticated: true, User: &domain.User{ID: "user-1"}, ExpiresAt: exp, Fresh: true},
	}
	h := NewSessionHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/session", `{"id_token":"`+idToken+`","refresh_token":"rt"}`, nil)
	if err := h.Install(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got == nil || got.IDToken != idToken || got.RefreshToken != "rt" {
		t.Fatalf("unexpected session passed to Init: %+v", got)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["authenticated"] != true || resp["fresh"] != true {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestSessionHandler_Install_ValidationError(t *testing.T) {
	stub := &stubSessions{initFn: func(context.Context, *domain.Session) error {
		t.Fatal("Init must not be called")
		return nil
	}}
	h := NewSessionHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/session", `{"id_token":"not-a-jwt"}`, nil)
	err := h.Install(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestSessionHandler_Install_InvalidSession(t *testing.T) {
	stub := &stubSessions{initFn: func(context.Context, *domain.Session) error {
		return domain.ErrInvalidSession
	}}
	h := NewSessionHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/session", `{"id_token":"`+signedToken(t)+`","refresh_token":"rt"}`, nil)
	if err := h.Install(c); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSessionHandler_Get_Anonymous(t *testing.T) {
	h := NewSessionHandler(&stubSessions{})

	c, rec := newContext(http.MethodGet, "/v1/session", "", nil)
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["authenticated"] != false {
		t.Fatalf("expected unauthenticated, got %+v", resp)
	}
	if _, ok := resp["expires_at"]; ok {
		t.Fatal("expires_at must be omitted without a session")
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	signedOut := false
	h := NewSessionHandler(&stubSessions{signOutFn: func(context.Context) error {
		signedOut = true
		return nil
	}})

	c, rec := newContext(http.MethodDelete, "/v1/session", "", nil)
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !signedOut || rec.Code != http.StatusNoContent {
		t.Fatalf("expected sign-out and 204, got %v %d", signedOut, rec.Code)
	}
}
