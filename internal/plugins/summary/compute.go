package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/plugins/reservations"
	"github.com/keyxmakerx/paintball/internal/plugins/zones"
	"github.com/keyxmakerx/paintball/internal/pyliteral"
)

// maxDays caps the number of day columns one summary may span.
const maxDays = 366

// ZoneLister lists every zone shown in the grid.
type ZoneLister interface {
	List(ctx context.Context) ([]zones.Zone, error)
}

// LineLister lists the assigned zone lines overlapping a period.
type LineLister interface {
	ListLines(ctx context.Context, from, to time.Time) ([]reservations.ZoneReservationLine, error)
}

// Payloads are the encoded summary_header and zone_summary values plus the
// grid they were encoded from.
type Payloads struct {
	Header      string
	ZoneSummary string
	Grid        *Grid
}

// Computer builds summary grids from zones and their reservation lines.
type Computer struct {
	zones      ZoneLister
	lines      LineLister
	loc        *time.Location
	windowDays int
	additional time.Duration
}

// NewComputer creates a Computer. Days are split in loc; windowDays is the
// default span; additionalHours is the checkout grace period.
func NewComputer(zl ZoneLister, ll LineLister, loc *time.Location, windowDays, additionalHours int) *Computer {
	if loc == nil {
		loc = time.UTC
	}
	return &Computer{
		zones:      zl,
		lines:      ll,
		loc:        loc,
		windowDays: windowDays,
		additional: time.Duration(additionalHours) * time.Hour,
	}
}

// Location is the time zone days are split in.
func (c *Computer) Location() *time.Location { return c.loc }

// Defaults returns the date range a new summary starts with: now until
// now plus the configured window.
func (c *Computer) Defaults(now time.Time) (from, to time.Time) {
	from = now.In(c.loc).Truncate(time.Second)
	return from, from.AddDate(0, 0, c.windowDays)
}

// Compute builds and encodes the summary payloads for [from, to].
func (c *Computer) Compute(ctx context.Context, from, to time.Time) (*Payloads, error) {
	grid, err := c.Grid(ctx, from, to)
	if err != nil {
		return nil, err
	}
	header, err := EncodeHeader(grid)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	rows, err := EncodeRows(grid)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &Payloads{Header: header, ZoneSummary: rows, Grid: grid}, nil
}

// Grid computes availability for every zone and every local day from
// from to to. A zone-day is reserved when an assigned line covers the
// day's last second, or when the day is the checkout day of a line that
// covered the previous day and spills past midnight by at least the grace
// period (any spill when there is none).
func (c *Computer) Grid(ctx context.Context, from, to time.Time) (*Grid, error) {
	from, to = from.In(c.loc), to.In(c.loc)
	if from.After(to) {
		return nil, apperror.NewValidation("Date From can't be greater than Date To.")
	}

	var days []time.Time
	for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
		if len(days) == maxDays {
			return nil, apperror.NewValidation(fmt.Sprintf("A summary can span at most %d days.", maxDays))
		}
		days = append(days, t)
	}

	zoneList, err := c.zones.List(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := c.lines.ListLines(ctx, from.AddDate(0, 0, -1), to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	byZone := make(map[int64][]reservations.ZoneReservationLine)
	for _, l := range lines {
		byZone[l.ZoneID] = append(byZone[l.ZoneID], l)
	}

	grid := &Grid{Days: make([]string, len(days))}
	for i, d := range days {
		grid.Days[i] = d.Format(headerLayout)
	}
	for _, z := range zoneList {
		row := GridRow{ZoneID: z.ID, Name: z.Name, Cells: make([]GridCell, len(days))}
		for i, d := range days {
			row.Cells[i] = c.cell(byZone[z.ID], d)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

func (c *Computer) cell(lines []reservations.ZoneReservationLine, day time.Time) GridCell {
	cell := GridCell{Date: day}
	y, m, d := day.Date()
	end := time.Date(y, m, d, 23, 59, 59, 0, c.loc)

	for i := range lines {
		if lines[i].Covers(end) {
			cell.Reserved, cell.Draft = true, lines[i].IsDraft()
			return cell
		}
	}

	prevEnd := end.AddDate(0, 0, -1)
	midnight := prevEnd.Add(time.Second)
	for i := range lines {
		l := &lines[i]
		if !l.Covers(prevEnd) || !l.CheckOut.After(prevEnd) {
			continue
		}
		spill := l.CheckOut.Sub(midnight)
		if (c.additional > 0 && spill >= c.additional) || (c.additional <= 0 && spill > 0) {
			cell.Reserved, cell.Draft = true, l.IsDraft()
			return cell
		}
	}
	return cell
}

// EncodeHeader writes [{'header': ['Zones', 'Wed May 01', ...]}].
func EncodeHeader(g *Grid) (string, error) {
	labels := append([]string{"Zones"}, g.Days...)
	return pyliteral.Encode([]pyliteral.Dict{{{Key: "header", Value: labels}}})
}

// EncodeRows writes one {'name': ..., 'value': [cell, ...]} per zone.
func EncodeRows(g *Grid) (string, error) {
	rows := make([]pyliteral.Dict, 0, len(g.Rows))
	for _, r := range g.Rows {
		cells := make([]any, len(r.Cells))
		for i, cell := range r.Cells {
			cells[i] = encodeCell(r.ZoneID, cell)
		}
		rows = append(rows, pyliteral.Dict{
			{Key: "name", Value: r.Name},
			{Key: "value", Value: cells},
		})
	}
	return pyliteral.Encode(rows)
}

func encodeCell(zoneID int64, cell GridCell) pyliteral.Dict {
	date := cell.Date.Format(dateTimeLayout)
	if !cell.Reserved {
		return pyliteral.Dict{
			{Key: "state", Value: StateFree},
			{Key: "date", Value: date},
			{Key: "zone_id", Value: zoneID},
		}
	}
	draft := "No"
	if cell.Draft {
		draft = "Yes"
	}
	return pyliteral.Dict{
		{Key: "state", Value: StateReserved},
		{Key: "date", Value: date},
		{Key: "zone_id", Value: zoneID},
		{Key: "is_draft", Value: draft},
		{Key: "data_model", Value: ""},
		{Key: "data_id", Value: 0},
	}
}
