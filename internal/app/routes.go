package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/actions"
	"github.com/keyxmakerx/paintball/internal/middleware"
	"github.com/keyxmakerx/paintball/internal/plugins/reservations"
	"github.com/keyxmakerx/paintball/internal/plugins/summary"
	"github.com/keyxmakerx/paintball/internal/plugins/zones"
	"github.com/keyxmakerx/paintball/internal/templates/layouts"
	"github.com/keyxmakerx/paintball/internal/widgets/zonesummary"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where plugins, the window action openers and
// the field widgets are wired together.
func (a *App) RegisterRoutes() error {
	e := a.Echo
	cfg := a.Config
	loc := cfg.Summary.Location()

	staff := middleware.NewStaffAuth(cfg.Staff.User, cfg.Staff.PasswordHash)
	requireStaff := staff.Middleware()

	// --- Public Routes ---

	e.GET("/", func(c echo.Context) error {
		return middleware.Render(c, http.StatusOK, layouts.Page("Welcome", layouts.Landing()))
	})
	e.GET("/healthz", a.healthz)

	// --- Plugins ---

	zoneSvc := zones.NewZoneService(zones.NewZoneRepository(a.DB))
	cors := middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins})
	zones.RegisterRoutes(e, zones.NewHandler(zoneSvc, staff), requireStaff, cors)

	resSvc := reservations.NewReservationService(reservations.NewReservationRepository(a.DB), zoneSvc, loc)
	resHandler := reservations.NewHandler(resSvc, zoneSvc, loc)
	reservations.RegisterRoutes(e, resHandler, a.Limiter.Middleware(), requireStaff)

	// --- Window actions ---
	// Widgets dispatch actions; the HTTP dispatcher renders the opener
	// registered for the action's model into the triggering request.
	openers := actions.NewOpeners()
	if err := reservations.RegisterOpener(openers, resHandler); err != nil {
		return err
	}

	// --- Field widgets ---
	err := zonesummary.Register(a.registry, zonesummary.Options{
		Dispatcher: actions.NewHTTPDispatcher(openers),
		Binder:     zonesummary.HTMXBinder,
	})
	if err != nil {
		return fmt.Errorf("registering %s widget: %w", zonesummary.Key, err)
	}

	store := summary.NewStore(a.Redis, cfg.Summary.TTL)
	widgetHandler := zonesummary.NewHandler(a.Widgets, store, staff)
	zonesummary.RegisterRoutes(e, widgetHandler, requireStaff)

	computer := summary.NewComputer(zoneSvc, resSvc, loc, cfg.Summary.WindowDays, cfg.Summary.AdditionalHours)
	summary.RegisterRoutes(e, summary.NewHandler(summary.NewSummaryService(computer, store), widgetHandler, staff))

	return nil
}

// healthz reports whether MariaDB and Redis answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := map[string]string{"status": "ok", "db": "ok", "redis": "ok"}, http.StatusOK
	if err := a.DB.PingContext(ctx); err != nil {
		status["db"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
