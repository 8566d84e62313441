package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

// SessionHandler installs, describes and clears the identity provider session.
type SessionHandler struct {
	sessions ports.SessionManager
}

func NewSessionHandler(sessions ports.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Install stores the tokens minted by the identity provider at sign-in.
//
// @Summary      Install session tokens
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      installSessionRequest  true  "Tokens from the identity provider"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/session [post]
func (h *SessionHandler) Install(c echo.Context) error {
	var req installSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	err := h.sessions.Init(ctx, &domain.Session{
		IDToken:      req.IDToken,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(h.sessions.Status(ctx)))
}

// Get describes the current session without refreshing it.
//
// @Summary      Session status
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.sessions.Status(c.Request().Context())))
}

// Delete signs the user out. It is idempotent.
//
// @Summary      Sign out
// @Tags         session
// @Success      204
// @Failure      500  {object}  errorResponse
// @Router       /v1/session [delete]
func (h *SessionHandler) Delete(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
