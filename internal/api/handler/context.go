package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/core/domain"
)

// ContextKeyUser is where the session middleware stores the signed-in user.
const ContextKeyUser = "user"

// ctxUser returns the user injected by the session middleware. Its absence
// means the route was mounted without the middleware.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(ContextKeyUser).(*domain.User)
	if user == nil || user.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return user, nil
}
