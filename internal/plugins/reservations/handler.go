package reservations

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/actions"
	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/middleware"
)

// ReservedEvent is the HX-Trigger event fired after a booking so pages
// showing the summary grid can refresh it.
const ReservedEvent = "zoneReserved"

// Handler processes HTTP requests for reservations.
type Handler struct {
	svc   ReservationService
	zones ZoneLookup
	loc   *time.Location
	now   func() time.Time
}

// NewHandler creates a new reservations Handler. Form times are read in loc.
func NewHandler(svc ReservationService, zl ZoneLookup, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, zones: zl, loc: loc, now: time.Now}
}

// OpenWindow implements actions.WindowOpener for quick.zone.reservation:
// it fills the form from the action context and renders the modal.
func (h *Handler) OpenWindow(c echo.Context, a actions.Action) error {
	in, z, err := h.svc.DefaultGet(c.Request().Context(), a.Context)
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, QuickForm(QuickFormData{
		Input:     in,
		ZoneName:  z.Name,
		Capacity:  z.Capacity,
		CSRFToken: middleware.GetCSRFToken(c),
	}))
}

// Create books a zone from the quick reservation form.
// POST /quick-reservations
func (h *Handler) Create(c echo.Context) error {
	in, err := h.parseForm(c)
	if err != nil {
		return h.renderFormError(c, in, err)
	}

	res, err := h.svc.QuickReserve(c.Request().Context(), in)
	if err != nil {
		return h.renderFormError(c, in, err)
	}

	slog.Info("quick reservation created",
		slog.String("reservation_no", res.ReservationNo),
		slog.Int64("zone_id", res.ZoneID),
		slog.Int("adults", res.Adults),
	)
	c.Response().Header().Set("HX-Trigger", ReservedEvent)
	return middleware.Render(c, http.StatusCreated, Confirmation(res, middleware.IsStaff(c)))
}

// Slip streams the printable check-in slip.
// GET /reservations/:rid/slip.pdf
func (h *Handler) Slip(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("rid"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("invalid reservation id")
	}
	res, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	pdf, err := RenderSlipPDF(res, h.loc, h.now())
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("slip for %s: %w", res.ReservationNo, err))
	}
	filename := strings.ReplaceAll(res.ReservationNo, "/", "-") + ".pdf"
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// Report streams a reservation report for a period.
// GET /reservations/report.pdf?kind=checkin|checkout|zones|reservations&date_start=&date_end=
func (h *Handler) Report(c echo.Context) error {
	q := ReportQuery{Kind: c.QueryParam("kind")}
	var err error
	if q.Start, err = h.parseReportDate(c.QueryParam("date_start"), false); err != nil {
		return apperror.NewBadRequest("invalid date_start")
	}
	if q.End, err = h.parseReportDate(c.QueryParam("date_end"), true); err != nil {
		return apperror.NewBadRequest("invalid date_end")
	}

	rep, err := h.svc.Report(c.Request().Context(), q)
	if err != nil {
		return err
	}
	pdf, err := RenderReportPDF(rep, h.loc, h.now())
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("%s report: %w", rep.Kind, err))
	}
	filename := fmt.Sprintf("%s-%s.pdf", rep.Kind, rep.Start.In(h.loc).Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// parseReportDate reads a report bound. A bare date means the start of
// that day, or its last second when endOfDay is set. Empty input gives
// the zero time.
func (h *Handler) parseReportDate(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseInLocation(time.DateOnly, raw, h.loc); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Second), nil
		}
		return d, nil
	}
	return h.parseTime(raw)
}

func (h *Handler) parseForm(c echo.Context) (QuickReservationInput, error) {
	in := QuickReservationInput{
		PartnerName:  c.FormValue("partner_name"),
		PartnerEmail: c.FormValue("partner_email"),
	}

	zoneID, err := strconv.ParseInt(c.FormValue("zone_id"), 10, 64)
	if err != nil {
		return in, apperror.NewBadRequest("invalid zone")
	}
	in.ZoneID = zoneID

	if in.CheckIn, err = h.parseTime(c.FormValue("check_in")); err != nil {
		return in, apperror.NewValidation("Check-in date is not valid.")
	}
	if in.CheckOut, err = h.parseTime(c.FormValue("check_out")); err != nil {
		return in, apperror.NewValidation("Checkout date is not valid.")
	}
	if in.Adults, err = strconv.Atoi(strings.TrimSpace(c.FormValue("adults"))); err != nil {
		return in, apperror.NewValidation("Players must be a whole number.")
	}
	return in, nil
}

// parseTime reads a datetime-local value, with or without seconds.
func (h *Handler) parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(formTimeLayout, raw, h.loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation(formTimeLayout+":05", raw, h.loc)
}

// renderFormError re-renders the modal with the error for validation and
// conflict failures. htmx only swaps 2xx responses, so HTMX callers get 200.
func (h *Handler) renderFormError(c echo.Context, in QuickReservationInput, err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Code {
	case http.StatusUnprocessableEntity, http.StatusConflict:
	default:
		return err
	}

	data := QuickFormData{Input: in, Error: appErr.Message, CSRFToken: middleware.GetCSRFToken(c)}
	if in.ZoneID > 0 {
		if z, zerr := h.zones.GetByID(c.Request().Context(), in.ZoneID); zerr == nil {
			data.ZoneName, data.Capacity = z.Name, z.Capacity
		}
	}

	status := appErr.Code
	if middleware.IsHTMX(c) {
		status = http.StatusOK
	}
	return middleware.Render(c, status, QuickForm(data))
}
