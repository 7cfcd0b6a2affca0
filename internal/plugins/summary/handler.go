package summary

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/middleware"
	"github.com/keyxmakerx/paintball/internal/widgets"
	"github.com/keyxmakerx/paintball/internal/widgets/zonesummary"
)

// WidgetRenderer mounts the Zone_Reservation widget for a summary and
// returns its markup.
type WidgetRenderer interface {
	Fragment(ctx context.Context, id, mode string) (string, error)
}

// StaffChecker authenticates a single request as staff without rejecting it.
type StaffChecker interface {
	Check(c echo.Context) bool
}

// Handler processes HTTP requests for zone summaries.
type Handler struct {
	svc    SummaryService
	widget WidgetRenderer
	staff  StaffChecker
}

// NewHandler creates a new summary Handler.
func NewHandler(svc SummaryService, widget WidgetRenderer, staff StaffChecker) *Handler {
	return &Handler{svc: svc, widget: widget, staff: staff}
}

// New computes a summary from the defaults (or date_from/date_to query
// values) and redirects to it.
// GET /summaries/new
func (h *Handler) New(c echo.Context) error {
	from, err := h.svc.ParseDate(c.QueryParam("date_from"))
	if err != nil {
		return err
	}
	to, err := h.svc.ParseDate(c.QueryParam("date_to"))
	if err != nil {
		return err
	}

	s, err := h.svc.Create(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/summaries/"+url.PathEscape(s.ID))
}

// Show renders the summary page with its widget. ?mode=edit needs staff.
// GET /summaries/:sid
func (h *Handler) Show(c echo.Context) error {
	mode, err := h.mode(c, c.QueryParam("mode"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	s, err := h.svc.Get(ctx, c.Param("sid"))
	if err != nil {
		return err
	}
	markup, err := h.widget.Fragment(ctx, s.ID, mode)
	if err != nil {
		return err
	}

	data := PageData{
		Summary:   s,
		Widget:    zonesummary.Placeholder(markup),
		Mode:      mode,
		IsStaff:   middleware.IsStaff(c) || (h.staff != nil && h.staff.Check(c)),
		CSRFToken: middleware.GetCSRFToken(c),
	}
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, SummaryBody(data))
	}
	return middleware.Render(c, http.StatusOK, SummaryPage(data))
}

// Dates recomputes the summary for new dates and answers with the
// re-rendered widget. Blank dates keep the stored ones, which is how the
// grid refreshes after a quick reservation.
// POST /summaries/:sid/dates
func (h *Handler) Dates(c echo.Context) error {
	mode, err := h.mode(c, c.FormValue("mode"))
	if err != nil {
		return err
	}
	from, err := h.svc.ParseDate(c.FormValue("date_from"))
	if err != nil {
		return err
	}
	to, err := h.svc.ParseDate(c.FormValue("date_to"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	s, err := h.svc.Recompute(ctx, c.Param("sid"), from, to)
	if err != nil {
		return err
	}
	markup, err := h.widget.Fragment(ctx, s.ID, mode)
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, zonesummary.Placeholder(markup))
}

// Report streams the printable grid.
// GET /summaries/:sid/report.pdf
func (h *Handler) Report(c echo.Context) error {
	pdf, err := h.svc.Report(c.Request().Context(), c.Param("sid"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="zone-summary.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) mode(c echo.Context, requested string) (string, error) {
	if requested != widgets.ModeEdit {
		return widgets.ModeReadonly, nil
	}
	if middleware.IsStaff(c) || (h.staff != nil && h.staff.Check(c)) {
		return widgets.ModeEdit, nil
	}
	return "", middleware.Challenge(c)
}
