package zones

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the zone pages and the read-only JSON API. Creating
// zones requires staff; the API group carries the CORS middleware so other
// origins can list fields.
func RegisterRoutes(e *echo.Echo, h *Handler, staff, cors echo.MiddlewareFunc) {
	e.GET("/zones", h.Index)
	e.POST("/zones", h.Create, staff)

	api := e.Group("/api/v1/zones", cors)
	api.GET("", h.APIList)
	api.GET("/:id", h.APIShow)
}
