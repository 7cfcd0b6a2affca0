package reservations

import (
	"bytes"
	"image/png"
	"testing"
	"time"
)

func TestRenderSlipPDF(t *testing.T) {
	in := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
	r := &Reservation{
		ID: 42, ReservationNo: "R/00042", PartnerName: "Team Splat", ZoneName: "Woodland",
		CheckIn: in, CheckOut: in.Add(4 * time.Hour), Adults: 12, State: StateDraft,
	}

	pdf, err := RenderSlipPDF(r, time.UTC, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", pdf[:8])
	}
}

func TestRenderSlipPDF_NeedsNumber(t *testing.T) {
	if _, err := RenderSlipPDF(&Reservation{ID: 1}, nil, time.Now()); err == nil {
		t.Error("expected error for unnumbered reservation")
	}
}

func TestRenderCode128PNG(t *testing.T) {
	data, err := renderCode128PNG("R/00042", 400, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 80 {
		t.Errorf("unexpected size %v", b)
	}
}

func TestRenderCode128PNG_HardEdges(t *testing.T) {
	data, err := renderCode128PNG("R/00042", 1000, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}

	dark, light := 0, 0
	for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
		r, g, b, _ := img.At(x, 20).RGBA()
		switch {
		case r == 0 && g == 0 && b == 0:
			dark++
		case r == 0xffff && g == 0xffff && b == 0xffff:
			light++
		default:
			t.Fatalf("pixel %d is grey (%d,%d,%d); bars must not be blended", x, r, g, b)
		}
	}
	if dark == 0 || light == 0 {
		t.Errorf("expected both bars and gaps, got %d dark %d light", dark, light)
	}
}

func TestRenderCode128PNG_TooNarrow(t *testing.T) {
	if _, err := renderCode128PNG("R/00042", 10, 40); err == nil {
		t.Error("expected error when the width cannot hold every module")
	}
}
