// Package provisioning talks to the privileged onboarding backend that
// generates keys, creates ledger accounts and encrypts key material.
package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

const (
	defaultTimeout  = 15 * time.Second
	maxErrorBodyLen = 512
)

// Config captures the endpoints of the provisioning backend.
type Config struct {
	BaseURL        string
	BalanceBaseURL string
	Timeout        time.Duration
}

// Client implements ports.ProvisioningAPI over JSON/HTTPS. Bearer
// credentials are attached by the http.Client's transport.
type Client struct {
	baseURL        string
	balanceBaseURL string
	http           *http.Client
}

var _ ports.ProvisioningAPI = (*Client)(nil)

// NewClient builds a Client. httpClient must carry an authenticating transport.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient.Timeout = timeout
	}
	balance := cfg.BalanceBaseURL
	if balance == "" {
		balance = cfg.BaseURL
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		balanceBaseURL: strings.TrimRight(balance, "/"),
		http:           httpClient,
	}
}

// ProvisioningStatus posts the user id to /onboarding/status. A 404 means the
// backend has no record of the user.
func (c *Client) ProvisioningStatus(ctx context.Context, userID string) (*ports.ProvisioningStatusResponse, error) {
	var out ports.ProvisioningStatusResponse
	err := c.do(ctx, "provisioning status", http.MethodPost, c.baseURL+"/onboarding/status", map[string]string{"userId": userID}, &out)
	if err != nil {
		var re *domain.RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", domain.ErrProvisioningNotFound, err)
		}
		return nil, err
	}
	return &out, nil
}

// WalletStatus reads the wallet summary for the caller.
func (c *Client) WalletStatus(ctx context.Context) (*ports.WalletStatusResponse, error) {
	var out ports.WalletStatusResponse
	if err := c.do(ctx, "wallet status", http.MethodGet, c.baseURL+"/onboarding/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartOnboarding asks the backend to provision the caller's wallet.
func (c *Client) StartOnboarding(ctx context.Context, req ports.StartOnboardingRequest) (*ports.StartOnboardingResponse, error) {
	if req.Action == "" {
		req.Action = "start"
	}
	var out ports.StartOnboardingResponse
	if err := c.do(ctx, "start onboarding", http.MethodPost, c.baseURL+"/onboarding/start", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryOnboarding re-drives a failed provisioning attempt.
func (c *Client) RetryOnboarding(ctx context.Context, userID string) error {
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	if err := c.do(ctx, "retry onboarding", http.MethodPost, c.baseURL+"/onboarding/retry", map[string]string{"userId": userID}, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("retry onboarding: %s", nonEmpty(out.Error, "rejected by provisioning service"))
	}
	return nil
}

// Balance reads the account balance through the authenticated mirror proxy.
func (c *Client) Balance(ctx context.Context, accountID string) (*ports.BalanceResponse, error) {
	u := c.balanceBaseURL + "/balance?" + url.Values{"accountId": {accountID}}.Encode()
	var out ports.BalanceResponse
	if err := c.do(ctx, "balance", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"error"|"message": "..."} from an error body, or
// falls back to the raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyLen))
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if msg := nonEmpty(env.Error, env.Message); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(raw))
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
