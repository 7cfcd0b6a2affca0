package reservations

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"
)

// slipDateLayout is how dates print on the check-in slip.
const slipDateLayout = "Mon 02 Jan 2006 15:04"

// RenderSlipPDF renders a one-page A5 check-in slip for r with a Code 128
// barcode of its reservation number. Times print in loc.
func RenderSlipPDF(r *Reservation, loc *time.Location, printedAt time.Time) ([]byte, error) {
	if r == nil || r.ReservationNo == "" {
		return nil, fmt.Errorf("reservation has no number")
	}
	if loc == nil {
		loc = time.UTC
	}

	barcodePNG, err := renderCode128PNG(r.ReservationNo, 1000, 220)
	if err != nil {
		return nil, fmt.Errorf("rendering barcode: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Check-in slip "+r.ReservationNo, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 14, "Check-in slip", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.ReservationNo, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	partner := strings.TrimSpace(r.PartnerName)
	if partner == "" {
		partner = "Walk-in"
	}
	zone := r.ZoneName
	if zone == "" {
		zone = fmt.Sprintf("Zone %d", r.ZoneID)
	}
	rows := [][2]string{
		{"Customer", partner},
		{"Zone", zone},
		{"Players", fmt.Sprintf("%d", r.Adults)},
		{"Check-in", r.CheckIn.In(loc).Format(slipDateLayout)},
		{"Checkout", r.CheckOut.In(loc).Format(slipDateLayout)},
		{"State", r.State},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(35, 8, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	imageName := fmt.Sprintf("slip-barcode-%d", r.ID)
	pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
	pageW, _ := pdf.GetPageSize()
	imgW, imgH := 110.0, 26.0
	y := pdf.GetY() + 10
	pdf.ImageOptions(imageName, (pageW-imgW)/2, y, imgW, imgH, false, opt, 0, "")

	pdf.SetY(y + imgH + 4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Printed "+printedAt.In(loc).Format(slipDateLayout), "", 1, "C", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// renderCode128PNG encodes value as Code 128 and scales it to width x
// height with nearest-neighbour sampling so bars keep hard edges. The
// result is 8-bit NRGBA, which gofpdf's PNG reader accepts.
func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	if cw := code.Bounds().Dx(); width < cw {
		return nil, fmt.Errorf("barcode needs at least %d px, got %d", cw, width)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), code, code.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
