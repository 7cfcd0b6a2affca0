package actions

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/middleware"
)

// WindowOpener renders the view a window action asks for.
type WindowOpener interface {
	OpenWindow(c echo.Context, a Action) error
}

// WindowOpenerFunc adapts a function to WindowOpener.
type WindowOpenerFunc func(c echo.Context, a Action) error

// OpenWindow calls f.
func (f WindowOpenerFunc) OpenWindow(c echo.Context, a Action) error {
	return f(c, a)
}

// Openers maps res_model names to the plugin that can open them. Plugins
// register at startup; lookups happen per request.
type Openers struct {
	mu sync.RWMutex
	m  map[string]WindowOpener
}

// NewOpeners creates an empty opener table.
func NewOpeners() *Openers {
	return &Openers{m: make(map[string]WindowOpener)}
}

// Register binds resModel to op. Each model can only be bound once.
func (o *Openers) Register(resModel string, op WindowOpener) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.m[resModel]; exists {
		return fmt.Errorf("window opener for %q already registered", resModel)
	}
	o.m[resModel] = op
	return nil
}

// Lookup returns the opener bound to resModel.
func (o *Openers) Lookup(resModel string) (WindowOpener, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	op, ok := o.m[resModel]
	return op, ok
}

// Models lists the registered res_model names, sorted.
func (o *Openers) Models() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.m))
	for k := range o.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type echoCtxKey struct{}

// WithEcho carries the current Echo request in ctx so an HTTPDispatcher can
// answer it.
func WithEcho(ctx context.Context, c echo.Context) context.Context {
	return context.WithValue(ctx, echoCtxKey{}, c)
}

// EchoFrom returns the Echo request stored by WithEcho.
func EchoFrom(ctx context.Context) (echo.Context, bool) {
	c, ok := ctx.Value(echoCtxKey{}).(echo.Context)
	return c, ok && c != nil
}

// HTTPDispatcher performs window actions by rendering the target model's
// view into the response of the request that triggered them. With HTMX,
// target "new" is retargeted into the #modal container and "current" into
// #main.
type HTTPDispatcher struct {
	openers *Openers
}

// NewHTTPDispatcher creates a dispatcher over the given opener table.
func NewHTTPDispatcher(openers *Openers) *HTTPDispatcher {
	return &HTTPDispatcher{openers: openers}
}

// DoAction implements Dispatcher.
func (d *HTTPDispatcher) DoAction(ctx context.Context, a Action) error {
	c, ok := EchoFrom(ctx)
	if !ok {
		return apperror.NewMissingContext()
	}
	if a.Type != TypeWindow {
		return apperror.NewBadRequest(fmt.Sprintf("unsupported action type %q", a.Type))
	}
	op, ok := d.openers.Lookup(a.ResModel)
	if !ok {
		return apperror.NewNotFound(fmt.Sprintf("no view for model %q", a.ResModel))
	}

	var swapTarget string
	switch a.Target {
	case TargetNew, "":
		swapTarget = "#modal"
	case TargetCurrent:
		swapTarget = "#main"
	default:
		return apperror.NewBadRequest(fmt.Sprintf("unsupported action target %q", a.Target))
	}
	if middleware.IsHTMX(c) {
		h := c.Response().Header()
		h.Set("HX-Retarget", swapTarget)
		h.Set("HX-Reswap", "innerHTML")
	}

	slog.Debug("dispatching window action",
		slog.String("res_model", a.ResModel),
		slog.String("target", a.Target),
	)
	return op.OpenWindow(c, a)
}
