package middleware

import (
	"context"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies layout data (CSRF token, staff flag) from the Echo
// context into the request's context.Context so templ components can read
// it. Set once in app/app.go; the middleware package never imports the
// layout package directly.
var LayoutInjector func(echo.Context, context.Context) context.Context

// IsHTMX reports whether the request came from HTMX and is not a boosted
// navigation. Boosted requests expect full pages, everything else gets a
// fragment.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true" &&
		c.Request().Header.Get("HX-Boosted") != "true"
}

// Render writes a templ component with the given status code, running the
// LayoutInjector first when one is registered.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}
