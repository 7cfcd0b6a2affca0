package summary

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the summary pages. They are public; edit mode is
// checked per request.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/summaries/new", h.New)

	g := e.Group("/summaries/:sid")
	g.GET("", h.Show)
	g.POST("/dates", h.Dates)
	g.GET("/report.pdf", h.Report)
}
