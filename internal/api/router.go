package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/hederavault/walletd/docs"
	"github.com/hederavault/walletd/internal/api/handler"
	"github.com/hederavault/walletd/internal/api/middleware"
	"github.com/hederavault/walletd/internal/core/ports"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Sessions   ports.SessionManager
	Status     ports.StatusService
	Onboarding ports.OnboardingService
	Wallets    ports.WalletService
	// Dependencies are pinged by the readiness probe.
	Dependencies   []handler.Dependency
	SupportContact string
	Log            zerolog.Logger
	// Registry receives the HTTP request metrics and backs /metrics. Nil
	// means the default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.SupportContact)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(d.Registry)))

	sessionHandler := handler.NewSessionHandler(d.Sessions)
	onboardingHandler := handler.NewOnboardingHandler(d.Status, d.Onboarding, d.SupportContact)
	walletHandler := handler.NewWalletHandler(d.Wallets, d.SupportContact)

	v1 := e.Group("/v1")

	// --- Session routes (no session required) ---
	v1.POST("/session", sessionHandler.Install)
	v1.GET("/session", sessionHandler.Get)
	v1.DELETE("/session", sessionHandler.Delete)

	authed := v1.Group("", middleware.RequireSession(d.Sessions))

	// --- Onboarding ---
	authed.GET("/onboarding/status", onboardingHandler.Status)
	authed.POST("/onboarding", onboardingHandler.Start)
	authed.GET("/onboarding", onboardingHandler.Get)
	authed.POST("/onboarding/retry", onboardingHandler.Retry)

	// --- Wallet ---
	authed.GET("/wallet", walletHandler.Get)
	authed.POST("/wallet", walletHandler.Create)
	authed.GET("/wallet/balance", walletHandler.Balance)
	authed.GET("/wallet/transactions", walletHandler.Transactions)

	// --- Health probes (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Dependencies...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	e.GET("/metrics", promHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "walletd",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
