package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/session-auth/docs"
	"github.com/99minutos/session-auth/internal/api/handler"
	"github.com/99minutos/session-auth/internal/api/middleware"
	"github.com/99minutos/session-auth/internal/core/ports"
)

// Dependencies are the collaborators NewRouter wires into the handlers.
type Dependencies struct {
	Credentials  ports.CredentialStore
	Tokens       ports.TokenService
	Cookie       handler.CookieConfig
	HealthChecks map[string]handler.HealthCheck
	Log          zerolog.Logger

	// Registerer enables HTTP metrics and the /metrics endpoint when set.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))

	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "session_auth",
			Registerer: deps.Registerer,
		}))
		gatherer := deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: gatherer,
		}))
	}

	e.Use(middleware.Session(handler.SessionCookie, deps.Tokens, deps.Log))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Credentials, deps.Tokens, deps.Cookie)
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)

	// --- Session views ---
	sessionHandler := handler.NewSessionHandler()
	e.GET("/", sessionHandler.Current)
	e.GET("/protected", sessionHandler.Protected, middleware.RequireSession())

	// --- Health probes ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.HealthChecks).Readiness)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
