package zonesummary

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/widgets"
)

// RegisterRoutes mounts the widget endpoints. Viewing and clicking are
// public like the summary page itself; edit-mode changes require staff.
func RegisterRoutes(e *echo.Echo, h *Handler, staff echo.MiddlewareFunc) {
	g := e.Group("/summaries/:sid/widget")
	g.GET("", h.Show)
	g.POST("/click", h.Click)
	g.POST("/change", h.Change, staff)
}

// Register adds the widget to reg under Key.
func Register(reg registrar, opts Options) error {
	return reg.Register(widgets.Info{
		Key:         Key,
		Description: "Zone availability grid with quick reservation on free cells",
	}, func(b widgets.Binding) (widgets.FieldWidget, error) {
		return New(b, opts)
	})
}

// registrar is the part of *widgets.Registry Register needs.
type registrar interface {
	Register(info widgets.Info, f widgets.Factory) error
}
