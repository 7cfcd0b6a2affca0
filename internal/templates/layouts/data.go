// data.go provides typed context helpers for passing layout data from
// handlers/middleware to templ components. Only simple types are stored so
// the layouts package never imports a plugin.
//
// Data flow: Handler/Middleware → Echo Context → LayoutInjector → Go Context → templ
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyCSRFToken  ctxKey = "layout_csrf_token"
	keyIsStaff    ctxKey = "layout_is_staff"
	keyActivePath ctxKey = "layout_active_path"
	keyFlash      ctxKey = "layout_flash"
)

// --- Setters (called by the layout injector in app/routes.go) ---

// SetCSRFToken stores the CSRF token for forms and the htmx header hook.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetIsStaff marks a request authenticated as staff.
func SetIsStaff(ctx context.Context, staff bool) context.Context {
	return context.WithValue(ctx, keyIsStaff, staff)
}

// SetActivePath stores the request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// SetFlash stores a one-off notice shown above the page content.
func SetFlash(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, keyFlash, msg)
}

// --- Getters (called by templ components) ---

// GetCSRFToken returns the CSRF token or "".
func GetCSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(keyCSRFToken).(string)
	return v
}

// IsStaff reports whether the request was made by staff.
func IsStaff(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsStaff).(bool)
	return v
}

// GetActivePath returns the current request path.
func GetActivePath(ctx context.Context) string {
	v, _ := ctx.Value(keyActivePath).(string)
	return v
}

// GetFlash returns the flash notice or "".
func GetFlash(ctx context.Context) string {
	v, _ := ctx.Value(keyFlash).(string)
	return v
}
