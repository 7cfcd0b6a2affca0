// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance, widget host) and wires together all plugins and widgets.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/config"
	"github.com/keyxmakerx/paintball/internal/middleware"
	"github.com/keyxmakerx/paintball/internal/templates/layouts"
	"github.com/keyxmakerx/paintball/internal/widgets"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis is the Redis client holding computed summaries.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Widgets keeps mounted field widgets between requests. main runs its
	// idle janitor.
	Widgets *widgets.Host

	// Limiter throttles quick reservations per client IP. main runs its
	// sweeper.
	Limiter *middleware.RateLimiter

	registry *widgets.Registry
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Resolve c.RealIP() behind the reverse proxy. The quick reservation
	// limiter keys on it.
	proxies := cfg.TrustedProxies
	if len(proxies) == 0 {
		proxies = middleware.DefaultTrustedProxies
	}
	middleware.TrustedProxies(e, proxies)

	registry := widgets.NewRegistry()
	app := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Echo:     e,
		Widgets:  widgets.NewHost(registry, cfg.Widget.IdleTTL),
		Limiter:  middleware.NewRateLimiter(cfg.QuickReserve.Rate, cfg.QuickReserve.Burst),
		registry: registry,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	// Serve static files (CSS).
	e.Static("/static", "static")

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (CSRF) runs last.
// CORS is not global; only the zone API group carries it.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders())

	// CSRF -- double-submit cookie pattern on all state-changing requests.
	a.Echo.Use(middleware.CSRF())

	// Layout data for templ components rendered through middleware.Render.
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
		ctx = layouts.SetIsStaff(ctx, middleware.IsStaff(c))
		return layouts.SetActivePath(ctx, c.Request().URL.Path)
	}
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to appropriate HTTP responses, and renders error pages for
// browser requests or JSON for API requests.
//
// HTMX requests get a short error fragment swapped into the modal, so a
// failed cell click or form post does not wipe the grid.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"

	// Check if it's our domain error type.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = apperror.SafeMessage(err)

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		// Check for Echo's built-in HTTP errors (e.g., 404 from router).
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = defaultErrorMessage(code)
			}
		} else {
			// Truly unexpected error -- log it.
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	// API requests always get JSON.
	if isAPIRequest(c) {
		_ = c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
		return
	}

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Retarget", "#modal")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
		_ = middleware.Render(c, code, layouts.ErrorFragment(code, message))
		return
	}

	// Basic auth challenges keep their WWW-Authenticate header so the
	// browser prompts for staff credentials.
	_ = middleware.Render(c, code, layouts.Page(http.StatusText(code), layouts.ErrorPage(code, message)))
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "Staff login required."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist or has been moved."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusConflict:
		return "This action conflicts with the current state."
	case http.StatusUnprocessableEntity:
		return "The submitted data could not be processed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusInternalServerError:
		return "Something went wrong on our end. Please try again."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}

// isAPIRequest returns true if the request is targeting the API (JSON response expected).
func isAPIRequest(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting paintball server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
