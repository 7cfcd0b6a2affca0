package zones

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/middleware"
)

// StaffChecker authenticates a single request as staff without rejecting it.
type StaffChecker interface {
	Check(c echo.Context) bool
}

// Handler processes HTTP requests for zones.
type Handler struct {
	svc   ZoneService
	staff StaffChecker
}

// NewHandler creates a new zones Handler.
func NewHandler(svc ZoneService, staff StaffChecker) *Handler {
	return &Handler{svc: svc, staff: staff}
}

// Index lists all zones.
// GET /zones
func (h *Handler) Index(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}

	data := ZoneListData{
		Zones:     list,
		IsStaff:   middleware.IsStaff(c) || (h.staff != nil && h.staff.Check(c)),
		CSRFToken: middleware.GetCSRFToken(c),
	}
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, ZoneListFragment(data))
	}
	return middleware.Render(c, http.StatusOK, ZoneListPage(data))
}

// Create adds a zone. HTMX callers get the new table row, plain form
// posts are redirected back to the list.
// POST /zones
func (h *Handler) Create(c echo.Context) error {
	capacity, err := strconv.Atoi(c.FormValue("capacity"))
	if err != nil {
		return apperror.NewValidation("capacity must be a whole number")
	}

	z, err := h.svc.Create(c.Request().Context(), CreateZoneInput{
		Name:        c.FormValue("name"),
		Capacity:    capacity,
		Description: c.FormValue("description"),
	})
	if err != nil {
		return err
	}

	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusCreated, ZoneRow(z))
	}
	return c.Redirect(http.StatusSeeOther, "/zones")
}

// APIList returns all zones as JSON.
// GET /api/v1/zones
func (h *Handler) APIList(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"zones": list})
}

// APIShow returns one zone as JSON.
// GET /api/v1/zones/:id
func (h *Handler) APIShow(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("invalid zone id")
	}
	z, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, z)
}
