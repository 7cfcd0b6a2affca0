package summary

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/paintball/internal/plugins/reservations"
)

func newTestService(t *testing.T, lines *fakeLines) (*summaryService, *Store) {
	t.Helper()
	st, _ := newTestStore(t, time.Hour)
	svc := NewSummaryService(NewComputer(twoZones, lines, time.UTC, 2, 0), st).(*summaryService)
	svc.now = func() time.Time { return utc(1, 8) }
	return svc, st
}

func TestService_CreateDefaults(t *testing.T) {
	svc, st := newTestService(t, &fakeLines{})
	s, err := svc.Create(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.DateFrom.Equal(utc(1, 8)) || !s.DateTo.Equal(utc(3, 8)) {
		t.Errorf("unexpected range %s..%s", s.DateFrom, s.DateTo)
	}
	if !strings.Contains(s.SummaryHeader, "'Fri May 03'") || s.Timezone != "UTC" {
		t.Errorf("unexpected summary %+v", s)
	}
	if _, err := st.Get(context.Background(), s.ID); err != nil {
		t.Errorf("summary not stored: %v", err)
	}
}

func TestService_CreateInvalidRange(t *testing.T) {
	svc, _ := newTestService(t, &fakeLines{})
	_, err := svc.Create(context.Background(), utc(5, 0), utc(1, 0))
	assertAppError(t, err, 422)
}

func TestService_RecomputeKeepsDates(t *testing.T) {
	lines := &fakeLines{}
	svc, _ := newTestService(t, lines)
	ctx := context.Background()
	s, err := svc.Create(ctx, utc(1, 0), utc(2, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.Contains(s.ZoneSummary, "Reserved") {
		t.Fatal("expected a free grid")
	}

	lines.lines = []reservations.ZoneReservationLine{line(1, utc(1, 10), utc(2, 10), reservations.StateDraft)}
	got, err := svc.Recompute(ctx, s.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !got.DateFrom.Equal(utc(1, 0)) || !got.DateTo.Equal(utc(2, 0)) {
		t.Errorf("dates should be kept, got %s..%s", got.DateFrom, got.DateTo)
	}
	if !strings.Contains(got.ZoneSummary, "'Reserved'") {
		t.Errorf("expected reserved cells after booking: %s", got.ZoneSummary)
	}

	got, err = svc.Recompute(ctx, s.ID, time.Time{}, utc(4, 0))
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !strings.Contains(got.SummaryHeader, "'Sat May 04'") {
		t.Errorf("expected extended header, got %s", got.SummaryHeader)
	}
}

func TestService_ParseDate(t *testing.T) {
	svc, _ := newTestService(t, &fakeLines{})
	for _, in := range []string{"2024-05-01T08:00", "2024-05-01 08:00:00", "2024-05-01T08:00:00"} {
		got, err := svc.ParseDate(in)
		if err != nil || !got.Equal(utc(1, 8)) {
			t.Errorf("ParseDate(%q) = %s, %v", in, got, err)
		}
	}
	if got, err := svc.ParseDate("  "); err != nil || !got.IsZero() {
		t.Errorf("blank should be zero, got %s, %v", got, err)
	}
	_, err := svc.ParseDate("yesterday")
	assertAppError(t, err, 422)
}

func TestService_Report(t *testing.T) {
	svc, _ := newTestService(t, &fakeLines{lines: []reservations.ZoneReservationLine{
		line(2, utc(1, 10), utc(2, 10), reservations.StateConfirm),
	}})
	s, err := svc.Create(context.Background(), utc(1, 0), utc(20, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pdf, err := svc.Report(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Error("expected PDF output")
	}
}
