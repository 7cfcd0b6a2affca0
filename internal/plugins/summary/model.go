// Package summary produces zone reservation summaries: for a date range it
// computes the header and per-zone availability payloads the
// Zone_Reservation widget renders, keeps them in Redis as the record the
// widget binds to, and prints them as a PDF grid.
package summary

import (
	"time"

	"github.com/keyxmakerx/paintball/internal/widgets/zonesummary"
)

// DefaultName is the title of every computed summary.
const DefaultName = "Reservations Summary"

// dateTimeLayout is how dates are written into records and cell payloads.
const dateTimeLayout = "2006-01-02 15:04:05"

// headerLayout labels each day column, e.g. "Wed May 01".
const headerLayout = "Mon Jan 02"

// Cell states written into the zone_summary payload.
const (
	StateFree     = "Free"
	StateReserved = "Reserved"
)

// Summary is one computed zone reservation summary record.
type Summary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DateFrom      time.Time `json:"date_from"`
	DateTo        time.Time `json:"date_to"`
	Timezone      string    `json:"timezone"`
	SummaryHeader string    `json:"summary_header"`
	ZoneSummary   string    `json:"zone_summary"`
	CreatedAt     time.Time `json:"created_at"`
}

// Record returns the field values the widget binds to. Dates are written
// in the summary's time zone.
func (s *Summary) Record() map[string]string {
	loc := s.location()
	return map[string]string{
		"name":                         s.Name,
		zonesummary.FieldDateFrom:      s.DateFrom.In(loc).Format(dateTimeLayout),
		zonesummary.FieldDateTo:        s.DateTo.In(loc).Format(dateTimeLayout),
		zonesummary.FieldSummaryHeader: s.SummaryHeader,
		zonesummary.FieldZoneSummary:   s.ZoneSummary,
	}
}

func (s *Summary) location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Grid is a computed summary before encoding: day labels plus one row per
// zone. The PDF report prints it directly.
type Grid struct {
	Days []string
	Rows []GridRow
}

// GridRow is one zone's availability across the days of a Grid.
type GridRow struct {
	ZoneID int64
	Name   string
	Cells  []GridCell
}

// GridCell is one zone-day.
type GridCell struct {
	Date     time.Time
	Reserved bool
	Draft    bool
}

// PageData holds everything the summary page renders.
type PageData struct {
	Summary   *Summary
	Widget    string
	Mode      string
	IsStaff   bool
	CSRFToken string
}
