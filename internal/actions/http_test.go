package actions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/apperror"
)

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func newEchoContext(htmx bool) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/summaries/s1/widget/click", nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestOpeners_RegisterTwice(t *testing.T) {
	o := NewOpeners()
	noop := WindowOpenerFunc(func(echo.Context, Action) error { return nil })
	if err := o.Register("quick.zone.reservation", noop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.Register("quick.zone.reservation", noop); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if got := o.Models(); len(got) != 1 || got[0] != "quick.zone.reservation" {
		t.Errorf("unexpected models %v", got)
	}
}

func TestHTTPDispatcher_OpensModal(t *testing.T) {
	var opened Action
	o := NewOpeners()
	_ = o.Register("quick.zone.reservation", WindowOpenerFunc(func(c echo.Context, a Action) error {
		opened = a
		return c.HTML(http.StatusOK, "<form></form>")
	}))
	d := NewHTTPDispatcher(o)

	c, rec := newEchoContext(true)
	a := WindowAction("quick.zone.reservation", map[string]any{"zone_id": "1"})
	if err := d.DoAction(WithEcho(context.Background(), c), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opened.Context["zone_id"] != "1" {
		t.Errorf("opener did not receive the action context: %+v", opened)
	}
	if rec.Header().Get("HX-Retarget") != "#modal" {
		t.Errorf("expected modal retarget, got %q", rec.Header().Get("HX-Retarget"))
	}
	if rec.Body.String() != "<form></form>" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHTTPDispatcher_CurrentTargetWithoutHTMX(t *testing.T) {
	o := NewOpeners()
	_ = o.Register("m", WindowOpenerFunc(func(c echo.Context, a Action) error {
		return c.NoContent(http.StatusOK)
	}))
	d := NewHTTPDispatcher(o)

	c, rec := newEchoContext(false)
	a := WindowAction("m", nil)
	a.Target = TargetCurrent
	if err := d.DoAction(WithEcho(context.Background(), c), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get("HX-Retarget") != "" {
		t.Error("plain requests must not get htmx headers")
	}
}

func TestHTTPDispatcher_Errors(t *testing.T) {
	o := NewOpeners()
	_ = o.Register("m", WindowOpenerFunc(func(echo.Context, Action) error { return nil }))
	d := NewHTTPDispatcher(o)

	if err := d.DoAction(context.Background(), WindowAction("m", nil)); err == nil {
		t.Error("expected error without an echo request in context")
	} else {
		assertAppError(t, err, http.StatusInternalServerError)
	}

	c, _ := newEchoContext(true)
	ctx := WithEcho(context.Background(), c)

	assertAppError(t, d.DoAction(ctx, WindowAction("unknown.model", nil)), http.StatusNotFound)

	bad := WindowAction("m", nil)
	bad.Type = "ir.actions.act_url"
	assertAppError(t, d.DoAction(ctx, bad), http.StatusBadRequest)

	bad = WindowAction("m", nil)
	bad.Target = "fullscreen"
	assertAppError(t, d.DoAction(ctx, bad), http.StatusBadRequest)
}
