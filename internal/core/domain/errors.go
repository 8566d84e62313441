package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrNoValidToken         = errors.New("no valid token available")
	ErrInvalidSession       = errors.New("invalid session tokens")
	ErrTokenRefreshFailed   = errors.New("token refresh failed")
	ErrProvisioningNotFound = errors.New("provisioning record not found")
	ErrOnboardingFailed     = errors.New("onboarding failed")
	ErrPollTimeout          = errors.New("onboarding timed out, please try again")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrRefreshInProgress    = errors.New("refresh already in progress")
	ErrOnboardingRunning    = errors.New("onboarding already running")
	ErrOnboardingHalted     = errors.New("onboarding halted, retry required")
	ErrUnsupported          = errors.New("operation not supported")
)

// RemoteError is a non-2xx answer from one of the remote services.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// authMarkers are the message fragments the provisioning backend and its
// authorizer use when rejecting a caller.
var authMarkers = []string{"401", "Unauthorized", "No user claims found"}

// IsAuthError reports whether err means the caller is not authenticated,
// as opposed to a transient backend failure.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNoValidToken) {
		return true
	}
	var re *RemoteError
	if errors.As(err, &re) && re.StatusCode == http.StatusUnauthorized {
		return true
	}
	msg := err.Error()
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
