package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/api/handler"
	"github.com/hederavault/walletd/internal/core/ports"
)

// RequireSession rejects requests when no user is signed in and injects the
// user into the context otherwise. Tokens are never read from the request:
// the daemon holds the session itself.
func RequireSession(users ports.UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := users.CurrentUser(c.Request().Context())
			if err != nil || user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			c.Set(handler.ContextKeyUser, user)
			c.Response().Header().Set("X-User-Id", user.ID)
			return next(c)
		}
	}
}
