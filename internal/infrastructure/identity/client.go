// Package identity talks to the Cognito user pool to rotate session tokens
// and annotate the user's profile.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Config identifies the user pool client.
type Config struct {
	Region   string
	ClientID string
	// Endpoint overrides the regional endpoint; used by tests and local emulators.
	Endpoint string
	Timeout  time.Duration
}

// Client implements ports.IdentityProvider. InitiateAuth and
// UpdateUserAttributes are unsigned operations; the credentials travel in
// the request body, so the SDK runs with anonymous credentials.
type Client struct {
	api      *cognito.Client
	clientID string
}

var _ ports.IdentityProvider = (*Client)(nil)

// NewClient builds a Client for the configured region or endpoint.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	opts := cognito.Options{
		Region:      cfg.Region,
		HTTPClient:  httpClient,
		Credentials: aws.AnonymousCredentials{},
		// The token manager and the proactive refresher own retry policy.
		Retryer: aws.NopRetryer{},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Client{api: cognito.New(opts), clientID: cfg.ClientID}
}

// Refresh exchanges a refresh token for a new ID and access token pair. The
// pool does not rotate refresh tokens, so the result usually carries none.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidSession
	}
	out, err := c.api.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: map[string]string{"REFRESH_TOKEN": refreshToken},
	})
	if err != nil {
		return nil, remoteError("initiateAuth", err)
	}
	res := out.AuthenticationResult
	if res == nil || aws.ToString(res.IdToken) == "" {
		return nil, fmt.Errorf("initiate auth: %w: empty authentication result", domain.ErrInvalidSession)
	}
	return &domain.Session{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
	}, nil
}

func (c *Client) updateUserAttributes(ctx context.Context, accessToken string, attrs []types.AttributeType) error {
	_, err := c.api.UpdateUserAttributes(ctx, &cognito.UpdateUserAttributesInput{
		AccessToken:    aws.String(accessToken),
		UserAttributes: attrs,
	})
	if err != nil {
		return remoteError("updateUserAttributes", err)
	}
	return nil
}

// remoteError maps an SDK failure onto domain errors. NotAuthorizedException
// is the pool's way of saying the refresh token is revoked or expired.
func remoteError(op string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	re := &domain.RemoteError{Op: op, Message: apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		re.StatusCode = respErr.HTTPStatusCode()
	}

	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		re.StatusCode = http.StatusUnauthorized
		return fmt.Errorf("%w: %w", domain.ErrInvalidSession, re)
	}
	return re
}
