package reservations

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func day(d, h int) time.Time {
	return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC)
}

// --- Service ---

func TestReport_FilterPerKind(t *testing.T) {
	tests := []struct {
		kind string
		want ReservationFilter
	}{
		{ReportCheckIn, ReservationFilter{CheckInFrom: day(1, 0), CheckInTo: day(7, 0)}},
		{ReportCheckOut, ReservationFilter{CheckOutFrom: day(1, 0), CheckOutTo: day(7, 0)}},
		{ReportReservations, ReservationFilter{CheckInFrom: day(1, 0), CheckOutTo: day(7, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			var got ReservationFilter
			svc := newTestService(&mockReservationRepo{
				listResFn: func(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
					got = f
					return []Reservation{{ID: 1, ReservationNo: "R/00001"}}, nil
				},
			})
			rep, err := svc.Report(context.Background(), ReportQuery{Kind: tt.kind, Start: day(1, 0), End: day(7, 0)})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("filter = %+v, want %+v", got, tt.want)
			}
			if len(rep.Reservations) != 1 || rep.Zones != nil {
				t.Errorf("unexpected report %+v", rep)
			}
		})
	}
}

func TestReport_ZoneUsage(t *testing.T) {
	var from, to time.Time
	svc := newTestService(&mockReservationRepo{
		usageFn: func(ctx context.Context, a, b time.Time) ([]ZoneUsage, error) {
			from, to = a, b
			return []ZoneUsage{{ZoneName: "Urban", Times: 3}}, nil
		},
		listResFn: func(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
			return nil, errors.New("zone usage must not list reservations")
		},
	})
	rep, err := svc.Report(context.Background(), ReportQuery{Kind: ReportZones, Start: day(2, 0), End: day(3, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(day(2, 0)) || !to.Equal(day(3, 0)) {
		t.Errorf("unexpected range %s - %s", from, to)
	}
	if len(rep.Zones) != 1 || rep.Zones[0].Times != 3 {
		t.Errorf("unexpected usage %+v", rep.Zones)
	}
}

func TestReport_DefaultPeriod(t *testing.T) {
	var got ReservationFilter
	svc := newTestService(&mockReservationRepo{
		listResFn: func(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
			got = f
			return nil, nil
		},
	})
	rep, err := svc.Report(context.Background(), ReportQuery{Kind: ReportCheckIn})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantEnd := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
	if !rep.Start.Equal(day(1, 0)) || !rep.End.Equal(wantEnd) {
		t.Errorf("unexpected period %s - %s", rep.Start, rep.End)
	}
	if !got.CheckInFrom.Equal(day(1, 0)) || !got.CheckInTo.Equal(wantEnd) {
		t.Errorf("unexpected filter %+v", got)
	}
}

func TestReport_Validation(t *testing.T) {
	svc := newTestService(&mockReservationRepo{})

	_, err := svc.Report(context.Background(), ReportQuery{Kind: ReportCheckOut, Start: day(5, 0), End: day(4, 0)})
	assertAppError(t, err, 422)
	assertMessage(t, err, "End date should be greater than start date.")

	_, err = svc.Report(context.Background(), ReportQuery{Kind: "maxroom", Start: day(1, 0), End: day(2, 0)})
	assertAppError(t, err, 422)
}

func TestReport_RepoError(t *testing.T) {
	svc := newTestService(&mockReservationRepo{
		listResFn: func(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
			return nil, errors.New("connection reset")
		},
		usageFn: func(ctx context.Context, from, to time.Time) ([]ZoneUsage, error) {
			return nil, errors.New("connection reset")
		},
	})
	for _, kind := range []string{ReportCheckIn, ReportZones} {
		_, err := svc.Report(context.Background(), ReportQuery{Kind: kind, Start: day(1, 0), End: day(2, 0)})
		assertAppError(t, err, 500)
	}
}

// --- PDF ---

func TestRenderReportPDF(t *testing.T) {
	reps := []*Report{
		{Kind: ReportCheckIn, Start: day(1, 0), End: day(7, 0), Reservations: []Reservation{
			{ReservationNo: "R/00001", PartnerName: "Team Splat", ZoneName: "Urban",
				CheckIn: day(2, 10), CheckOut: day(2, 14), Adults: 6, State: StateDraft},
		}},
		{Kind: ReportZones, Start: day(1, 0), End: day(7, 0), Zones: []ZoneUsage{{ZoneName: "Urban", Times: 2}}},
		{Kind: ReportCheckOut, Start: day(1, 0), End: day(7, 0)},
	}
	for _, rep := range reps {
		pdf, err := RenderReportPDF(rep, time.UTC, day(1, 9))
		if err != nil {
			t.Fatalf("%s: %v", rep.Kind, err)
		}
		if !bytes.HasPrefix(pdf, []byte("%PDF")) {
			t.Errorf("%s: not a PDF", rep.Kind)
		}
	}

	if _, err := RenderReportPDF(&Report{Kind: "nope"}, time.UTC, day(1, 9)); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// --- Handler ---

func TestReportHandler(t *testing.T) {
	var got ReservationFilter
	h := newTestHandler(&mockReservationRepo{
		listResFn: func(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
			got = f
			return nil, nil
		},
	})
	e := echo.New()
	report := func(query string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, "/reservations/report.pdf?"+query, nil)
		rec := httptest.NewRecorder()
		return rec, h.Report(e.NewContext(req, rec))
	}

	rec, err := report("kind=checkout&date_start=2024-05-01&date_end=2024-05-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(echo.HeaderContentType) != "application/pdf" {
		t.Errorf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "checkout-20240501.pdf") {
		t.Errorf("unexpected disposition %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
	wantEnd := time.Date(2024, 5, 7, 23, 59, 59, 0, time.UTC)
	if !got.CheckOutFrom.Equal(day(1, 0)) || !got.CheckOutTo.Equal(wantEnd) {
		t.Errorf("a bare end date should cover the whole day, got %+v", got)
	}

	if _, err := report("kind=checkin&date_start=2024-05-01T08:30"); err != nil {
		t.Errorf("datetime-local start should parse: %v", err)
	}
	_, err = report("kind=checkin&date_start=yesterday")
	assertAppError(t, err, 400)
	_, err = report("kind=bogus")
	assertAppError(t, err, 422)
}

func TestReportRoute_StaffOnly(t *testing.T) {
	h := newTestHandler(&mockReservationRepo{})
	e := echo.New()
	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.NoContent(http.StatusForbidden) }
	}
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e, h, pass, deny)

	req := httptest.NewRequest(http.MethodGet, "/reservations/report.pdf?kind=zones", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for visitors, got %d", rec.Code)
	}
}
