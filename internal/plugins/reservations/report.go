package reservations

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// reportDateLayout is how dates print in reservation reports.
const reportDateLayout = "2006-01-02 15:04"

var reportTitles = map[string]string{
	ReportCheckIn:      "Check-in list",
	ReportCheckOut:     "Checkout list",
	ReportZones:        "Zone usage",
	ReportReservations: "Reservation list",
}

// RenderReportPDF prints rep as a portrait A4 table. Times print in loc.
func RenderReportPDF(rep *Report, loc *time.Location, printedAt time.Time) ([]byte, error) {
	title, ok := reportTitles[rep.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown report %q", rep.Kind)
	}
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s to %s (%s) - printed %s",
		rep.Start.In(loc).Format(reportDateLayout), rep.End.In(loc).Format(reportDateLayout),
		loc.String(), printedAt.In(loc).Format(reportDateLayout)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if rep.Kind == ReportZones {
		reportTable(pdf, []string{"Zone", "Times used"}, []float64{120, 40}, len(rep.Zones), func(i int) []string {
			u := rep.Zones[i]
			return []string{u.ZoneName, strconv.Itoa(u.Times)}
		})
	} else {
		widths := []float64{22, 44, 30, 30, 30, 14, 20}
		header := []string{"No.", "Customer", "Zone", "Check-in", "Checkout", "Players", "State"}
		reportTable(pdf, header, widths, len(rep.Reservations), func(i int) []string {
			r := rep.Reservations[i]
			return []string{
				r.ReservationNo, r.PartnerName, r.ZoneName,
				r.CheckIn.In(loc).Format(reportDateLayout), r.CheckOut.In(loc).Format(reportDateLayout),
				strconv.Itoa(r.Adults), r.State,
			}
		})
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// reportTable writes a bordered table with a shaded header. An empty
// table gets a single placeholder row.
func reportTable(pdf *gofpdf.Fpdf, header []string, widths []float64, n int, row func(int) []string) {
	const rowH = 7.0

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], rowH, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	if n == 0 {
		var total float64
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, rowH, "Nothing in this period.", "1", 1, "C", false, 0, "")
		return
	}
	for i := 0; i < n; i++ {
		for j, cell := range row(i) {
			pdf.CellFormat(widths[j], rowH, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
