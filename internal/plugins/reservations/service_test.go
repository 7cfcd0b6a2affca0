package reservations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/plugins/zones"
)

// --- Mocks ---

// mockReservationRepo implements ReservationRepository for testing.
type mockReservationRepo struct {
	createFn    func(ctx context.Context, r *Reservation) error
	findByIDFn  func(ctx context.Context, id int64) (*Reservation, error)
	listLinesFn func(ctx context.Context, from, to time.Time) ([]ZoneReservationLine, error)
	listResFn   func(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	usageFn     func(ctx context.Context, from, to time.Time) ([]ZoneUsage, error)
}

func (m *mockReservationRepo) CreateWithLine(ctx context.Context, r *Reservation) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	r.ID = 1
	r.ReservationNo = FormatNumber(1)
	return nil
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id int64) (*Reservation, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationRepo) ListLines(ctx context.Context, from, to time.Time) ([]ZoneReservationLine, error) {
	if m.listLinesFn != nil {
		return m.listLinesFn(ctx, from, to)
	}
	return nil, nil
}

func (m *mockReservationRepo) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	if m.listResFn != nil {
		return m.listResFn(ctx, f)
	}
	return nil, nil
}

func (m *mockReservationRepo) CountZoneUsage(ctx context.Context, from, to time.Time) ([]ZoneUsage, error) {
	if m.usageFn != nil {
		return m.usageFn(ctx, from, to)
	}
	return nil, nil
}

// mockZones serves a fixed set of zones by ID or name.
type mockZones map[int64]*zones.Zone

func (m mockZones) GetByID(ctx context.Context, id int64) (*zones.Zone, error) {
	if z, ok := m[id]; ok {
		return z, nil
	}
	return nil, apperror.NewNotFound("zone not found")
}

func (m mockZones) Resolve(ctx context.Context, ref string) (*zones.Zone, error) {
	for id, z := range m {
		if ref == z.Name || ref == fmt.Sprint(id) {
			return z, nil
		}
	}
	return nil, apperror.NewNotFound("zone not found")
}

var testZones = mockZones{
	1: {ID: 1, Name: "Woodland", Capacity: 20, Status: zones.StatusAvailable},
	4: {ID: 4, Name: "Kids Arena", Capacity: 8, Status: zones.StatusAvailable},
}

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

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Message != want {
		t.Errorf("expected message %q, got %v", want, err)
	}
}

func newTestService(repo *mockReservationRepo) *reservationService {
	svc := NewReservationService(repo, testZones, time.UTC).(*reservationService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 45, 0, time.UTC) }
	return svc
}

// --- DefaultGet ---

func TestDefaultGet_FromCellContext(t *testing.T) {
	svc := newTestService(&mockReservationRepo{})
	in, z, err := svc.DefaultGet(context.Background(), map[string]any{
		"zone_id":        "4",
		"date":           "2024-05-03 00:00:00",
		"default_adults": 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.Name != "Kids Arena" || in.ZoneID != 4 {
		t.Errorf("expected Kids Arena, got %+v", z)
	}
	wantIn := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	if !in.CheckIn.Equal(wantIn) {
		t.Errorf("check-in = %s, want %s", in.CheckIn, wantIn)
	}
	if !in.CheckOut.Equal(wantIn.AddDate(0, 0, 1)) {
		t.Errorf("check-out = %s, want one day later", in.CheckOut)
	}
	if in.Adults != 1 {
		t.Errorf("adults = %d, want 1", in.Adults)
	}
}

func TestDefaultGet_Variants(t *testing.T) {
	svc := newTestService(&mockReservationRepo{})
	ctx := context.Background()

	in, z, err := svc.DefaultGet(ctx, map[string]any{"zone_id": "Woodland", "date": "2024-05-07", "default_adults": "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z.ID != 1 || in.Adults != 3 || in.CheckIn.Day() != 7 {
		t.Errorf("unexpected defaults %+v", in)
	}

	in, _, err = svc.DefaultGet(ctx, map[string]any{"zone_id": int64(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC); !in.CheckIn.Equal(want) {
		t.Errorf("missing date should default to now, got %s", in.CheckIn)
	}

	_, _, err = svc.DefaultGet(ctx, map[string]any{"zone_id": "1", "date": "May 3rd"})
	assertAppError(t, err, 400)
	_, _, err = svc.DefaultGet(ctx, map[string]any{"zone_id": "1", "default_adults": "many"})
	assertAppError(t, err, 400)
	_, _, err = svc.DefaultGet(ctx, map[string]any{"zone_id": "Mars"})
	assertAppError(t, err, 404)
}

// --- QuickReserve ---

func validInput() QuickReservationInput {
	in := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
	return QuickReservationInput{
		PartnerName: "Team Splat",
		CheckIn:     in,
		CheckOut:    in.Add(4 * time.Hour),
		ZoneID:      1,
		Adults:      12,
	}
}

func TestQuickReserve_Valid(t *testing.T) {
	var stored *Reservation
	svc := newTestService(&mockReservationRepo{
		createFn: func(ctx context.Context, r *Reservation) error {
			stored = r
			r.ID = 42
			r.ReservationNo = FormatNumber(42)
			return nil
		},
	})

	res, err := svc.QuickReserve(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != stored || res.ReservationNo != "R/00042" {
		t.Errorf("unexpected reservation %+v", res)
	}
	if res.State != StateDraft || res.ZoneName != "Woodland" {
		t.Errorf("expected draft Woodland booking, got %+v", res)
	}
}

func TestQuickReserve_Validation(t *testing.T) {
	svc := newTestService(&mockReservationRepo{
		createFn: func(ctx context.Context, r *Reservation) error {
			t.Fatal("repository must not be called for invalid input")
			return nil
		},
	})

	tests := []struct {
		name   string
		mutate func(*QuickReservationInput)
		code   int
		msg    string
	}{
		{"no partner", func(in *QuickReservationInput) { in.PartnerName = "  " }, 422, "Customer name is required."},
		{"bad email", func(in *QuickReservationInput) { in.PartnerEmail = "not-an-email" }, 422, "Customer e-mail is not valid."},
		{"checkout first", func(in *QuickReservationInput) { in.CheckOut = in.CheckIn.Add(-time.Hour) }, 422,
			"Checkout date should be greater than Checkin date."},
		{"no dates", func(in *QuickReservationInput) { in.CheckIn = time.Time{} }, 422, "Check-in and checkout dates are required."},
		{"no adults", func(in *QuickReservationInput) { in.Adults = 0 }, 422, "Adults must be at least one."},
		{"over capacity", func(in *QuickReservationInput) { in.ZoneID, in.Adults = 4, 9 }, 422, "Zone Capacity Exceeded"},
		{"unknown zone", func(in *QuickReservationInput) { in.ZoneID = 99 }, 404, "zone not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.QuickReserve(context.Background(), in)
			assertAppError(t, err, tt.code)
			assertMessage(t, err, tt.msg)
		})
	}
}

func TestQuickReserve_SameInstantCheckout(t *testing.T) {
	svc := newTestService(&mockReservationRepo{})
	in := validInput()
	in.CheckOut = in.CheckIn
	if _, err := svc.QuickReserve(context.Background(), in); err != nil {
		t.Errorf("equal check-in and checkout should be accepted, got %v", err)
	}
}

func TestQuickReserve_Overlap(t *testing.T) {
	svc := newTestService(&mockReservationRepo{
		createFn: func(ctx context.Context, r *Reservation) error {
			return fmt.Errorf("tx: %w", ErrZoneBooked)
		},
	})
	_, err := svc.QuickReserve(context.Background(), validInput())
	assertAppError(t, err, 409)
}

func TestQuickReserve_RepoError(t *testing.T) {
	svc := newTestService(&mockReservationRepo{
		createFn: func(ctx context.Context, r *Reservation) error { return errors.New("deadlock") },
	})
	_, err := svc.QuickReserve(context.Background(), validInput())
	assertAppError(t, err, 500)
}

// --- Reads ---

func TestGetByID(t *testing.T) {
	svc := newTestService(&mockReservationRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Reservation, error) {
			if id == 7 {
				return &Reservation{ID: 7, ReservationNo: "R/00007"}, nil
			}
			return nil, nil
		},
	})
	r, err := svc.GetByID(context.Background(), 7)
	if err != nil || r.ReservationNo != "R/00007" {
		t.Errorf("got %+v, %v", r, err)
	}
	_, err = svc.GetByID(context.Background(), 8)
	assertAppError(t, err, 404)
}

func TestLine_CoversAndDraft(t *testing.T) {
	in := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := ZoneReservationLine{CheckIn: in, CheckOut: in.Add(48 * time.Hour), ReservationState: StateDraft}
	if !l.IsDraft() {
		t.Error("expected draft")
	}
	if !l.Covers(in) || !l.Covers(in.Add(48*time.Hour)) || l.Covers(in.Add(-time.Second)) {
		t.Error("covers must include both ends only")
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(42); got != "R/00042" {
		t.Errorf("got %s", got)
	}
	if got := FormatNumber(123456); got != "R/123456" {
		t.Errorf("got %s", got)
	}
}
