package reservations

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/plugins/zones"
	"github.com/keyxmakerx/paintball/internal/sanitize"
)

// Layouts accepted for the action context's date value.
var contextDateLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// ZoneLookup is the part of the zones service reservations need.
type ZoneLookup interface {
	GetByID(ctx context.Context, id int64) (*zones.Zone, error)
	Resolve(ctx context.Context, ref string) (*zones.Zone, error)
}

// ReservationService defines business logic for reservations.
type ReservationService interface {
	DefaultGet(ctx context.Context, actionCtx map[string]any) (QuickReservationInput, *zones.Zone, error)
	QuickReserve(ctx context.Context, input QuickReservationInput) (*Reservation, error)
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	ListLines(ctx context.Context, from, to time.Time) ([]ZoneReservationLine, error)
	Report(ctx context.Context, q ReportQuery) (*Report, error)
}

// reservationService is the default ReservationService implementation.
type reservationService struct {
	repo  ReservationRepository
	zones ZoneLookup
	loc   *time.Location
	now   func() time.Time
}

// NewReservationService creates a ReservationService. Dates without a zone
// offset are read in loc.
func NewReservationService(repo ReservationRepository, zl ZoneLookup, loc *time.Location) ReservationService {
	if loc == nil {
		loc = time.UTC
	}
	return &reservationService{repo: repo, zones: zl, loc: loc, now: time.Now}
}

// DefaultGet fills a quick reservation form from a window action context:
// date becomes the check-in, zone_id picks the zone (an ID or a zone
// name), default_adults the party size. Check-out defaults to one day
// after check-in.
func (s *reservationService) DefaultGet(ctx context.Context, actionCtx map[string]any) (QuickReservationInput, *zones.Zone, error) {
	in := QuickReservationInput{Adults: 1}

	checkIn := s.now().In(s.loc).Truncate(time.Minute)
	if raw := contextString(actionCtx["date"]); raw != "" {
		t, err := parseContextDate(raw, s.loc)
		if err != nil {
			return in, nil, err
		}
		checkIn = t
	}
	in.CheckIn = checkIn
	in.CheckOut = checkIn.AddDate(0, 0, 1)

	if v, ok := actionCtx["default_adults"]; ok {
		n, err := contextInt(v)
		if err != nil {
			return in, nil, apperror.NewBadRequest("default_adults must be a number")
		}
		in.Adults = n
	}

	z, err := s.zones.Resolve(ctx, contextString(actionCtx["zone_id"]))
	if err != nil {
		return in, nil, err
	}
	in.ZoneID = z.ID
	return in, z, nil
}

// QuickReserve validates input and books the zone in draft state.
func (s *reservationService) QuickReserve(ctx context.Context, input QuickReservationInput) (*Reservation, error) {
	name := sanitize.Text(input.PartnerName)
	if name == "" {
		return nil, apperror.NewValidation("Customer name is required.")
	}
	email := strings.TrimSpace(input.PartnerEmail)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperror.NewValidation("Customer e-mail is not valid.")
		}
	}
	if input.CheckIn.IsZero() || input.CheckOut.IsZero() {
		return nil, apperror.NewValidation("Check-in and checkout dates are required.")
	}
	if input.CheckOut.Before(input.CheckIn) {
		return nil, apperror.NewValidation("Checkout date should be greater than Checkin date.")
	}
	if input.Adults <= 0 {
		return nil, apperror.NewValidation("Adults must be at least one.")
	}

	z, err := s.zones.GetByID(ctx, input.ZoneID)
	if err != nil {
		return nil, err
	}
	if input.Adults > z.Capacity {
		return nil, apperror.NewValidation("Zone Capacity Exceeded")
	}

	res := &Reservation{
		PartnerName:  name,
		PartnerEmail: email,
		CheckIn:      input.CheckIn,
		CheckOut:     input.CheckOut,
		Adults:       input.Adults,
		State:        StateDraft,
		ZoneID:       z.ID,
		ZoneName:     z.Name,
	}
	if err := s.repo.CreateWithLine(ctx, res); err != nil {
		if errors.Is(err, ErrZoneBooked) {
			return nil, apperror.NewConflict(fmt.Sprintf("%s is already booked for that period.", z.Name))
		}
		return nil, apperror.NewInternal(fmt.Errorf("quick reserve: %w", err))
	}
	return res, nil
}

// GetByID returns a reservation or a not-found error.
func (s *reservationService) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("get reservation: %w", err))
	}
	if r == nil {
		return nil, apperror.NewNotFound("reservation not found")
	}
	return r, nil
}

// ListLines returns the assigned lines overlapping [from, to].
func (s *reservationService) ListLines(ctx context.Context, from, to time.Time) ([]ZoneReservationLine, error) {
	lines, err := s.repo.ListLines(ctx, from, to)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return lines, nil
}

// Report lists the reservations (or zone usage) of a period. Check-in and
// checkout reports match on that date alone; the reservations report
// keeps stays that start and end inside the period.
func (s *reservationService) Report(ctx context.Context, q ReportQuery) (*Report, error) {
	now := s.now().In(s.loc)
	start, end := q.Start, q.End
	if start.IsZero() {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	}
	if end.IsZero() {
		firstOfNext := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, s.loc)
		end = firstOfNext.Add(-time.Second)
	}
	if end.Before(start) {
		return nil, apperror.NewValidation("End date should be greater than start date.")
	}

	rep := &Report{Kind: q.Kind, Start: start, End: end}
	var f ReservationFilter
	switch q.Kind {
	case ReportCheckIn:
		f = ReservationFilter{CheckInFrom: start, CheckInTo: end}
	case ReportCheckOut:
		f = ReservationFilter{CheckOutFrom: start, CheckOutTo: end}
	case ReportReservations:
		f = ReservationFilter{CheckInFrom: start, CheckOutTo: end}
	case ReportZones:
		usage, err := s.repo.CountZoneUsage(ctx, start, end)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("zone usage report: %w", err))
		}
		rep.Zones = usage
		return rep, nil
	default:
		return nil, apperror.NewValidation(fmt.Sprintf("Unknown report %q.", q.Kind))
	}

	list, err := s.repo.ListReservations(ctx, f)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("%s report: %w", q.Kind, err))
	}
	rep.Reservations = list
	return rep, nil
}

func parseContextDate(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range contextDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.NewBadRequest(fmt.Sprintf("unrecognised date %q", raw))
}

// contextString stringifies an action context value. Numbers arrive as
// int, int64 or float64 depending on whether they crossed JSON.
func contextString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return ""
	}
	return fmt.Sprint(v)
}

func contextInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("unsupported %T", v)
}
