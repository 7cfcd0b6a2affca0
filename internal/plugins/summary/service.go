package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keyxmakerx/paintball/internal/apperror"
)

// Layouts accepted for date inputs, datetime-local first.
var inputLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", dateTimeLayout, "2006-01-02"}

// SummaryStore persists computed summaries.
type SummaryStore interface {
	Create(ctx context.Context, s *Summary) error
	Get(ctx context.Context, id string) (*Summary, error)
	Save(ctx context.Context, s *Summary) error
}

// SummaryService defines business logic for zone summaries.
type SummaryService interface {
	Create(ctx context.Context, from, to time.Time) (*Summary, error)
	Get(ctx context.Context, id string) (*Summary, error)
	Recompute(ctx context.Context, id string, from, to time.Time) (*Summary, error)
	Report(ctx context.Context, id string) ([]byte, error)
	ParseDate(raw string) (time.Time, error)
}

// summaryService is the default SummaryService implementation.
type summaryService struct {
	computer *Computer
	store    SummaryStore
	now      func() time.Time
}

// NewSummaryService creates a SummaryService.
func NewSummaryService(computer *Computer, store SummaryStore) SummaryService {
	return &summaryService{computer: computer, store: store, now: time.Now}
}

// Create computes and stores a new summary. Zero dates fall back to the
// defaults.
func (s *summaryService) Create(ctx context.Context, from, to time.Time) (*Summary, error) {
	defFrom, defTo := s.computer.Defaults(s.now())
	if from.IsZero() {
		from = defFrom
	}
	if to.IsZero() {
		to = defTo
	}

	p, err := s.computer.Compute(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		Name:          DefaultName,
		DateFrom:      from,
		DateTo:        to,
		Timezone:      s.computer.Location().String(),
		SummaryHeader: p.Header,
		ZoneSummary:   p.ZoneSummary,
	}
	if err := s.store.Create(ctx, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// Get returns a stored summary.
func (s *summaryService) Get(ctx context.Context, id string) (*Summary, error) {
	return s.store.Get(ctx, id)
}

// Recompute changes the summary's dates and recomputes its payloads. Zero
// dates keep the stored ones, so Recompute(id, zero, zero) refreshes the
// grid after a booking.
func (s *summaryService) Recompute(ctx context.Context, id string, from, to time.Time) (*Summary, error) {
	sum, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = sum.DateFrom
	}
	if to.IsZero() {
		to = sum.DateTo
	}

	p, err := s.computer.Compute(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sum.DateFrom, sum.DateTo = from, to
	sum.SummaryHeader, sum.ZoneSummary = p.Header, p.ZoneSummary
	if err := s.store.Save(ctx, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// Report renders the summary's current grid as a PDF.
func (s *summaryService) Report(ctx context.Context, id string) ([]byte, error) {
	sum, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	grid, err := s.computer.Grid(ctx, sum.DateFrom, sum.DateTo)
	if err != nil {
		return nil, err
	}
	pdf, err := RenderReportPDF(sum, grid, s.computer.Location(), s.now())
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("summary report: %w", err))
	}
	return pdf, nil
}

// ParseDate reads a date input in the summary time zone. Blank input
// yields the zero time.
func (s *summaryService) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.computer.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.NewValidation(fmt.Sprintf("%q is not a valid date.", raw))
}
