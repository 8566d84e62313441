package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hederavault/walletd/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Support
// is set on terminal failures the user cannot resolve by retrying alone.
type errorResponse struct {
	Error   string `json:"error"`
	Support string `json:"support,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, support string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, terminal := resolveError(err, log, c)
		resp := errorResponse{Error: msg}
		if terminal {
			resp.Support = support
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, bool) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), false
	}

	switch {
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusBadRequest, err.Error(), false
	case errors.Is(err, domain.ErrWalletNotFound):
		return http.StatusNotFound, "wallet not found", false
	case errors.Is(err, domain.ErrProvisioningNotFound):
		return http.StatusNotFound, "provisioning record not found", false
	case errors.Is(err, domain.ErrRefreshInProgress):
		return http.StatusConflict, "refresh already in progress", false
	case errors.Is(err, domain.ErrOnboardingRunning):
		return http.StatusConflict, "onboarding already running", false
	case errors.Is(err, domain.ErrOnboardingHalted):
		return http.StatusConflict, "onboarding halted, retry required", true
	case errors.Is(err, domain.ErrOnboardingFailed):
		return http.StatusUnprocessableEntity, err.Error(), true
	case errors.Is(err, domain.ErrPollTimeout):
		return http.StatusGatewayTimeout, domain.ErrPollTimeout.Error(), true
	case errors.Is(err, domain.ErrTokenRefreshFailed) && !domain.IsAuthError(err):
		return http.StatusBadGateway, "identity provider unavailable", false
	case domain.IsAuthError(err):
		return http.StatusUnauthorized, "not authenticated", false
	}

	var re *domain.RemoteError
	if errors.As(err, &re) {
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("upstream error")
		return http.StatusBadGateway, "upstream service error", false
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", false
}
