package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hederavault/walletd/internal/core/ports"
)

// OnboardingHandler exposes the provisioning status and the onboarding flow.
type OnboardingHandler struct {
	status  ports.StatusService
	flow    ports.OnboardingService
	support string
}

func NewOnboardingHandler(status ports.StatusService, flow ports.OnboardingService, support string) *OnboardingHandler {
	return &OnboardingHandler{status: status, flow: flow, support: support}
}

// Status returns the user's provisioning status. With wait=true it polls
// until provisioning completes, fails or times out.
//
// @Summary      Provisioning status
// @Tags         onboarding
// @Produce      json
// @Param        wait  query     bool  false  "Poll until provisioning settles"
// @Success      200   {object}  domain.OnboardingStatus
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      504   {object}  errorResponse
// @Router       /v1/onboarding/status [get]
func (h *OnboardingHandler) Status(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	wait, _ := strconv.ParseBool(c.QueryParam("wait"))
	if !wait {
		st, err := h.status.GetStatus(ctx, user)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, st)
	}

	st, err := h.status.WaitForCompletion(ctx, user, ports.PollOptions{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Start launches the onboarding flow in the background.
//
// @Summary      Start onboarding
// @Tags         onboarding
// @Produce      json
// @Success      202  {object}  onboardingResponse
// @Success      200  {object}  onboardingResponse  "Already running, halted or completed"
// @Router       /v1/onboarding [post]
func (h *OnboardingHandler) Start(c echo.Context) error {
	return h.launch(c, h.flow.Start)
}

// Retry restarts a halted onboarding flow.
//
// @Summary      Retry onboarding
// @Tags         onboarding
// @Produce      json
// @Success      202  {object}  onboardingResponse
// @Success      200  {object}  onboardingResponse  "Nothing to retry"
// @Router       /v1/onboarding/retry [post]
func (h *OnboardingHandler) Retry(c echo.Context) error {
	return h.launch(c, h.flow.Retry)
}

// Get returns the current onboarding snapshot.
//
// @Summary      Onboarding progress
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  onboardingResponse
// @Router       /v1/onboarding [get]
func (h *OnboardingHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, toOnboardingResponse(h.flow.Snapshot(), h.support))
}

func (h *OnboardingHandler) launch(c echo.Context, fn func(context.Context) bool) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}
	started := fn(c.Request().Context())

	resp := toOnboardingResponse(h.flow.Snapshot(), h.support)
	resp.Started = &started
	if started {
		return c.JSON(http.StatusAccepted, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
