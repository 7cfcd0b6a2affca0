package reservations

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/actions"
)

// RegisterRoutes mounts the quick reservation endpoint behind the per-IP
// limiter, plus the staff-only check-in slip and period reports.
func RegisterRoutes(e *echo.Echo, h *Handler, limit, staff echo.MiddlewareFunc) {
	e.POST("/quick-reservations", h.Create, limit)
	e.GET("/reservations/report.pdf", h.Report, staff)
	e.GET("/reservations/:rid/slip.pdf", h.Slip, staff)
}

// RegisterOpener binds the quick.zone.reservation model to h.
func RegisterOpener(o *actions.Openers, h *Handler) error {
	return o.Register(ResModel, h)
}
