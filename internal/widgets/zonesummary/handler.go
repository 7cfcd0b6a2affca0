package zonesummary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/html"

	"github.com/keyxmakerx/paintball/internal/actions"
	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/middleware"
	"github.com/keyxmakerx/paintball/internal/widgets"
)

// RecordStore is the storage of the records this widget binds to.
type RecordStore interface {
	Record(ctx context.Context, id string) (map[string]string, error)
	UpdateField(ctx context.Context, id, field, value string) error
}

// StaffChecker authenticates a single request as staff.
type StaffChecker interface {
	Check(c echo.Context) bool
}

// editableFields are the record fields an edit-mode change may target.
var editableFields = map[string]bool{
	FieldSummaryHeader: true,
	FieldZoneSummary:   true,
}

// HTMXBinder makes every free cell post its data and date back to the
// click endpoint. The window action's response is swapped into #modal.
func HTMXBinder(recordID string, ref CellRef) []html.Attribute {
	vals, _ := json.Marshal(map[string]string{"data": ref.Data, "date": ref.Date})
	return []html.Attribute{
		{Key: "hx-post", Val: "/summaries/" + url.PathEscape(recordID) + "/widget/click"},
		{Key: "hx-vals", Val: string(vals)},
		{Key: "hx-target", Val: "#modal"},
		{Key: "hx-swap", Val: "innerHTML"},
	}
}

// Handler serves the mounted Zone_Reservation widgets over HTTP.
type Handler struct {
	host    *widgets.Host
	records RecordStore
	staff   StaffChecker
}

// NewHandler creates a widget handler.
func NewHandler(host *widgets.Host, records RecordStore, staff StaffChecker) *Handler {
	return &Handler{host: host, records: records, staff: staff}
}

// Fragment mounts (or resyncs) the widget for record id in mode and
// returns its markup. Pages embedding the widget call it directly.
func (h *Handler) Fragment(ctx context.Context, id, mode string) (string, error) {
	if err := h.mount(ctx, id, mode); err != nil {
		return "", err
	}
	var out string
	err := h.host.Do(Key, id, func(fw widgets.FieldWidget) error {
		out = fw.HTML()
		return nil
	})
	return out, err
}

// Unmount drops the widget for record id, if mounted.
func (h *Handler) Unmount(id string) {
	h.host.Unmount(Key, id)
}

func (h *Handler) mount(ctx context.Context, id, mode string) error {
	record, err := h.records.Record(ctx, id)
	if err != nil {
		return err
	}
	err = h.host.Mount(Key, widgets.Binding{RecordID: id, Record: record, Mode: mode})
	return translateError(err)
}

// Show returns the widget fragment (GET /summaries/:sid/widget).
// ?mode=edit needs staff.
func (h *Handler) Show(c echo.Context) error {
	mode, err := h.mode(c)
	if err != nil {
		return err
	}
	out, err := h.Fragment(c.Request().Context(), c.Param("sid"), mode)
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, Placeholder(out))
}

// Click runs the handler bound to a free cell
// (POST /summaries/:sid/widget/click, form fields data and date). The
// window action it dispatches answers the request.
func (h *Handler) Click(c echo.Context) error {
	sid := c.Param("sid")
	data, date := c.FormValue("data"), c.FormValue("date")
	ctx := actions.WithEcho(c.Request().Context(), c)

	click := func(fw widgets.FieldWidget) error {
		w, ok := fw.(*Widget)
		if !ok {
			return apperror.NewMissingContext()
		}
		return w.ClickCell(ctx, data, date)
	}

	err := h.host.Do(Key, sid, click)
	if errors.Is(err, widgets.ErrNotMounted) {
		// Evicted since the page was rendered.
		if err := h.mount(c.Request().Context(), sid, widgets.ModeReadonly); err != nil {
			return err
		}
		err = h.host.Do(Key, sid, click)
	}
	if errors.Is(err, ErrNoHandler) {
		return apperror.NewNotFound("That slot is not free.")
	}
	return err
}

// Change applies an edit-mode field change
// (POST /summaries/:sid/widget/change, form fields field and value) and
// returns the re-rendered widget. The new value is stored only once the
// widget accepted it.
func (h *Handler) Change(c echo.Context) error {
	sid := c.Param("sid")
	ev := widgets.ChangeEvent{Field: c.FormValue("field"), Value: c.FormValue("value")}
	if !editableFields[ev.Field] {
		return apperror.NewBadRequest(fmt.Sprintf("field %q cannot be edited", ev.Field))
	}

	ctx := c.Request().Context()
	if err := h.mount(ctx, sid, widgets.ModeEdit); err != nil {
		return err
	}

	var out string
	err := h.host.Do(Key, sid, func(fw widgets.FieldWidget) error {
		if err := fw.OnFieldChanged(ev); err != nil {
			return err
		}
		out = fw.HTML()
		return nil
	})
	if err != nil {
		return translateError(err)
	}

	if err := h.records.UpdateField(ctx, sid, ev.Field, ev.Value); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, Placeholder(out))
}

func (h *Handler) mode(c echo.Context) (string, error) {
	if c.QueryParam("mode") != widgets.ModeEdit {
		return widgets.ModeReadonly, nil
	}
	if h.staff == nil || !h.staff.Check(c) {
		return "", middleware.Challenge(c)
	}
	return widgets.ModeEdit, nil
}

// Placeholder returns markup, or a stand-in when the widget has nothing to
// render yet.
func Placeholder(markup string) string {
	if markup != "" {
		return markup
	}
	return `<div class="o_zone_summary o_zone_summary_empty">No summary computed yet.</div>`
}

// translateError maps payload decode failures to a 422.
func translateError(err error) error {
	var pe *PayloadError
	if errors.As(err, &pe) {
		return apperror.NewDecode(pe.Field, pe.Err)
	}
	return err
}
