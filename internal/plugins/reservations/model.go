// Package reservations books zones. It serves the quick.zone.reservation
// form a free summary cell opens, stores reservations with their zone
// lines, and prints check-in slips.
package reservations

import "time"

// ResModel is the window action model this plugin opens.
const ResModel = "quick.zone.reservation"

// Reservation states.
const (
	StateDraft   = "draft"
	StateConfirm = "confirm"
	StateCancel  = "cancel"
)

// Zone line states.
const (
	LineAssigned   = "assigned"
	LineUnassigned = "unassigned"
)

// Reservation is a booking of one zone for a period.
type Reservation struct {
	ID            int64     `json:"id"`
	ReservationNo string    `json:"reservation_no"`
	PartnerName   string    `json:"partner_name"`
	PartnerEmail  string    `json:"partner_email,omitempty"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Adults        int       `json:"adults"`
	State         string    `json:"state"`
	ZoneID        int64     `json:"zone_id"`
	ZoneName      string    `json:"zone_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ZoneReservationLine occupies a zone for a period on behalf of a
// reservation. The summary grid is computed from assigned lines.
type ZoneReservationLine struct {
	ID            int64
	ZoneID        int64
	ReservationID int64
	CheckIn       time.Time
	CheckOut      time.Time
	State         string

	// ReservationState is joined from the owning reservation.
	ReservationState string
}

// IsDraft reports whether the owning reservation is still a draft.
func (l *ZoneReservationLine) IsDraft() bool {
	return l.ReservationState == StateDraft
}

// Covers reports whether the line occupies instant t.
func (l *ZoneReservationLine) Covers(t time.Time) bool {
	return !t.Before(l.CheckIn) && !t.After(l.CheckOut)
}

// QuickReservationInput is the quick reservation form.
type QuickReservationInput struct {
	PartnerName  string
	PartnerEmail string
	CheckIn      time.Time
	CheckOut     time.Time
	ZoneID       int64
	Adults       int
}

// QuickFormData holds everything the quick reservation modal renders.
type QuickFormData struct {
	Input     QuickReservationInput
	ZoneName  string
	Capacity  int
	Error     string
	CSRFToken string
}

// Form field layout for datetime-local inputs.
const formTimeLayout = "2006-01-02T15:04"

// Report kinds, one per printed listing.
const (
	ReportCheckIn      = "checkin"
	ReportCheckOut     = "checkout"
	ReportZones        = "zones"
	ReportReservations = "reservations"
)

// ReservationFilter bounds a reservation listing. Each pair is an
// inclusive range; a zero time leaves that side open.
type ReservationFilter struct {
	CheckInFrom, CheckInTo   time.Time
	CheckOutFrom, CheckOutTo time.Time
}

// ZoneUsage is how many zone lines checked in to a zone within a period.
type ZoneUsage struct {
	ZoneName string
	Times    int
}

// ReportQuery selects a report. Zero dates fall back to today and the
// last day of the current month.
type ReportQuery struct {
	Kind  string
	Start time.Time
	End   time.Time
}

// Report is a listing for the period [Start, End]. Zone usage reports
// fill Zones, every other kind fills Reservations.
type Report struct {
	Kind         string
	Start        time.Time
	End          time.Time
	Reservations []Reservation
	Zones        []ZoneUsage
}
