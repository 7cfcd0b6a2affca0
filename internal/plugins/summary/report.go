package summary

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// daysPerPage is how many day columns fit on one landscape A4 page.
const daysPerPage = 14

// RenderReportPDF prints the grid as a landscape table, daysPerPage day
// columns per page. Reserved days are shaded, draft bookings lighter.
func RenderReportPDF(s *Summary, g *Grid, loc *time.Location, printedAt time.Time) ([]byte, error) {
	if g == nil || len(g.Days) == 0 {
		return nil, fmt.Errorf("empty grid")
	}
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(s.Name, false)
	pdf.SetAutoPageBreak(true, 12)

	pageW, _ := pdf.GetPageSize()
	const margin, nameW, rowH = 10.0, 40.0, 8.0

	for start := 0; start < len(g.Days); start += daysPerPage {
		end := start + daysPerPage
		if end > len(g.Days) {
			end = len(g.Days)
		}
		dayW := (pageW - 2*margin - nameW) / float64(daysPerPage)

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, s.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s to %s (%s) - printed %s",
			s.DateFrom.In(loc).Format(dateTimeLayout), s.DateTo.In(loc).Format(dateTimeLayout),
			loc.String(), printedAt.In(loc).Format(dateTimeLayout)), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(nameW, rowH, "Zones", "1", 0, "L", true, 0, "")
		for _, day := range g.Days[start:end] {
			pdf.CellFormat(dayW, rowH, day, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 7)
		for _, row := range g.Rows {
			pdf.CellFormat(nameW, rowH, row.Name, "1", 0, "L", false, 0, "")
			for _, cell := range row.Cells[start:end] {
				label, fill := "", false
				switch {
				case cell.Reserved && cell.Draft:
					pdf.SetFillColor(250, 214, 165)
					label, fill = "Draft", true
				case cell.Reserved:
					pdf.SetFillColor(232, 120, 120)
					label, fill = "Reserved", true
				}
				pdf.CellFormat(dayW, rowH, label, "1", 0, "C", fill, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
