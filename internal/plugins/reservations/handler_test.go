package reservations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/actions"
)

func newTestHandler(repo *mockReservationRepo) *Handler {
	h := NewHandler(newTestService(repo), testZones, time.UTC)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return h
}

func postForm(form url.Values, htmx bool) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/quick-reservations", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req, httptest.NewRecorder()
}

func quickForm() url.Values {
	return url.Values{
		"zone_id":      {"1"},
		"partner_name": {"Team Splat"},
		"check_in":     {"2024-05-03T10:00"},
		"check_out":    {"2024-05-03T14:00"},
		"adults":       {"12"},
	}
}

func TestOpenWindow_ThroughDispatcher(t *testing.T) {
	h := newTestHandler(&mockReservationRepo{})
	openers := actions.NewOpeners()
	if err := RegisterOpener(openers, h); err != nil {
		t.Fatalf("register: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/summaries/s1/widget/click", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	a := actions.WindowAction(ResModel, map[string]any{
		"zone_id": "1", "date": "2024-05-03 00:00:00", "default_adults": 1,
	})
	err := actions.NewHTTPDispatcher(openers).DoAction(actions.WithEcho(context.Background(), c), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Quick reservation · Woodland",
		`name="zone_id" value="1"`,
		`name="check_in" type="datetime-local" required value="2024-05-03T00:00"`,
		`name="check_out" type="datetime-local" required value="2024-05-04T00:00"`,
		`max="20" required value="1"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q:\n%s", want, body)
		}
	}
	if rec.Header().Get("HX-Retarget") != "#modal" {
		t.Errorf("expected modal retarget, got %q", rec.Header().Get("HX-Retarget"))
	}
}

func TestCreate_Success(t *testing.T) {
	var stored *Reservation
	h := newTestHandler(&mockReservationRepo{
		createFn: func(ctx context.Context, r *Reservation) error {
			stored = r
			r.ID = 3
			r.ReservationNo = FormatNumber(3)
			return nil
		},
	})
	req, rec := postForm(quickForm(), true)

	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Trigger") != ReservedEvent {
		t.Errorf("expected %s trigger, got %q", ReservedEvent, rec.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rec.Body.String(), "Reserved R/00003") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if stored == nil || stored.CheckIn.Hour() != 10 || stored.CheckOut.Hour() != 14 {
		t.Errorf("unexpected stored reservation %+v", stored)
	}
}

func TestCreate_ValidationRerendersForm(t *testing.T) {
	h := newTestHandler(&mockReservationRepo{})
	form := quickForm()
	form.Set("check_out", "2024-05-02T10:00")

	req, rec := postForm(form, true)
	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("HTMX callers should get 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Checkout date should be greater than Checkin date.") {
		t.Errorf("expected validation message, got %s", body)
	}
	if !strings.Contains(body, `value="Team Splat"`) {
		t.Error("form should keep the entered customer")
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("no trigger expected on failure")
	}

	req, rec = postForm(form, false)
	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("plain posts should get 422, got %d", rec.Code)
	}
}

func TestCreate_BadZoneIsError(t *testing.T) {
	h := newTestHandler(&mockReservationRepo{})
	form := quickForm()
	form.Set("zone_id", "abc")
	req, rec := postForm(form, true)
	assertAppError(t, h.Create(echo.New().NewContext(req, rec)), 400)
}

func TestCreate_SecondsInFormTime(t *testing.T) {
	h := newTestHandler(&mockReservationRepo{})
	form := quickForm()
	form.Set("check_in", "2024-05-03T10:00:30")
	req, rec := postForm(form, true)
	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSlip(t *testing.T) {
	h := newTestHandler(&mockReservationRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Reservation, error) {
			if id != 5 {
				return nil, nil
			}
			in := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
			return &Reservation{ID: 5, ReservationNo: "R/00005", PartnerName: "Team Splat",
				ZoneName: "Urban", CheckIn: in, CheckOut: in.Add(time.Hour), Adults: 4, State: StateDraft}, nil
		},
	})
	e := echo.New()

	slip := func(id string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, "/reservations/"+id+"/slip.pdf", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("rid")
		c.SetParamValues(id)
		return rec, h.Slip(c)
	}

	rec, err := slip("5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(echo.HeaderContentType) != "application/pdf" {
		t.Errorf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "R-00005.pdf") {
		t.Errorf("unexpected disposition %q", rec.Header().Get(echo.HeaderContentDisposition))
	}

	_, err = slip("x")
	assertAppError(t, err, 400)
	_, err = slip("6")
	assertAppError(t, err, 404)
}
