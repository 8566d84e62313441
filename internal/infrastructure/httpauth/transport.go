// Package httpauth attaches bearer credentials to outgoing requests.
package httpauth

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
	"github.com/hederavault/walletd/internal/metrics"
)

// Transport sets the canonical "Authorization: Bearer <token>" header on
// every request. When RetryUnauthorized is set, a 401 answer triggers exactly
// one forced refresh and one replay of the request with the new token.
type Transport struct {
	Base              http.RoundTripper
	Tokens            ports.TokenSource
	Kind              domain.TokenKind
	RetryUnauthorized bool
	Log               zerolog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token, ok := t.Tokens.ValidToken(ctx, t.kind())
	if !ok {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, domain.ErrNoValidToken
	}

	resp, err := t.base().RoundTrip(withToken(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized || !t.RetryUnauthorized {
		return resp, err
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if err := t.Tokens.ForceRefresh(ctx); err != nil {
		t.Log.Warn().Err(err).Str("url", req.URL.Redacted()).Msg("refresh after 401 failed")
		return resp, nil
	}
	next, ok := t.Tokens.ValidToken(ctx, t.kind())
	if !ok || next == token {
		return resp, nil
	}

	retry := withToken(req, next)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	t.Log.Debug().Str("url", req.URL.Redacted()).Msg("replaying request after token refresh")
	return t.base().RoundTrip(retry)
}

func (t *Transport) kind() domain.TokenKind {
	if t.Kind == "" {
		return domain.TokenKindID
	}
	return t.Kind
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func withToken(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// Instrumented records the duration and status code of every request made
// through base under the given service label.
func Instrumented(service string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := base.RoundTrip(req)
		code := "error"
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		metrics.UpstreamRequestDuration.WithLabelValues(service, code).Observe(time.Since(start).Seconds())
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
