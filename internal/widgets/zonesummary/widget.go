// Package zonesummary implements the Zone_Reservation field widget: a grid
// of paintball zones by date built from two pre-serialised record fields,
// where clicking a free cell asks the host to open the quick reservation
// form for that zone and day.
//
// The widget is synchronous and not safe for concurrent use; the widgets
// Host serialises calls into a mounted instance.
package zonesummary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/keyxmakerx/paintball/internal/actions"
	"github.com/keyxmakerx/paintball/internal/pyliteral"
	"github.com/keyxmakerx/paintball/internal/widgets"
)

// Key is the registry key of this widget.
const Key = "Zone_Reservation"

// QuickReservationModel is the model a free-cell click opens.
const QuickReservationModel = "quick.zone.reservation"

// renderSubscription is the State subscription key used by InitializeField.
const renderSubscription = "render"

var (
	// ErrNoHandler is returned when a click targets a cell with no bound
	// handler: not free, out of range, or not rendered yet.
	ErrNoHandler = errors.New("zonesummary: no click handler bound to that cell")

	// ErrNoDispatcher is returned by a click when the widget was built
	// without an action dispatcher.
	ErrNoDispatcher = errors.New("zonesummary: no action dispatcher")
)

// PayloadError reports which record field failed to decode. The
// underlying *pyliteral.DecodeError is available through errors.As.
type PayloadError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Field, e.Err)
}

// Unwrap returns the decoder error.
func (e *PayloadError) Unwrap() error { return e.Err }

// CellRef identifies a bound free cell.
type CellRef struct {
	Index int
	Data  string
	Date  string
}

// Binder returns extra attributes for a bound free cell, letting a host
// route real browser clicks back to Click.
type Binder func(recordID string, ref CellRef) []html.Attribute

// Options are the collaborators injected into a widget.
type Options struct {
	Dispatcher actions.Dispatcher
	Renderer   Renderer
	Binder     Binder
}

// clickHandler is one bound free cell.
type clickHandler struct {
	node *html.Node
	ref  CellRef
}

// Widget is one Zone_Reservation field binding.
type Widget struct {
	binding widgets.Binding
	tag     string
	opts    Options
	state   *State

	// setting is raised while OnFieldChanged applies new state so the
	// reactive render path stays quiet.
	setting bool

	root       *html.Node
	handlers   []clickHandler
	renders    int
	lastChange *widgets.ChangeEvent
}

// New builds a widget for b. Both payload fields are decoded immediately;
// a malformed payload fails construction with a *pyliteral.DecodeError in
// the error chain. Empty payloads leave their field Unset.
func New(b widgets.Binding, opts Options) (*Widget, error) {
	if opts.Renderer == nil {
		opts.Renderer = DefaultRenderer
	}
	if b.Record == nil {
		b.Record = map[string]string{}
	}

	tag := "div"
	if b.Mode == widgets.ModeEdit {
		tag = "span"
	}

	w := &Widget{
		binding: b,
		tag:     tag,
		opts:    opts,
		state:   NewState(FieldDateTo, FieldDateFrom, FieldSummaryHeader, FieldZoneSummary),
	}
	if err := w.loadPayloads(); err != nil {
		return nil, err
	}
	return w, nil
}

// loadPayloads decodes both payload fields from the record and applies
// them to the state in one Set. Nothing is applied if either fails.
func (w *Widget) loadPayloads() error {
	header, err := decodeField(w.binding.Record, FieldSummaryHeader)
	if err != nil {
		return err
	}
	zones, err := decodeField(w.binding.Record, FieldZoneSummary)
	if err != nil {
		return err
	}
	return w.state.Set(
		Update{Field: FieldSummaryHeader, Value: header},
		Update{Field: FieldZoneSummary, Value: zones},
	)
}

func decodeField(record map[string]string, field string) (any, error) {
	raw := strings.TrimSpace(record[field])
	if raw == "" {
		return Unset, nil
	}
	v, err := pyliteral.Decode(raw)
	if err != nil {
		return nil, &PayloadError{Field: field, Err: err}
	}
	return v, nil
}

// InitializeField subscribes the widget to changes of both payload
// fields. Calling it again has no effect.
func (w *Widget) InitializeField() {
	w.state.On(renderSubscription, func([]string) error {
		return w.Start()
	}, FieldSummaryHeader, FieldZoneSummary)
}

// Start renders and wires the grid. It does nothing while state is being
// applied or while either payload is missing.
func (w *Widget) Start() error {
	if w.setting {
		return nil
	}
	if !w.state.IsSet(FieldSummaryHeader) || !w.state.IsSet(FieldZoneSummary) {
		return nil
	}
	if err := w.RenderElement(); err != nil {
		return err
	}
	return w.ViewLoading()
}

// RenderElement replaces the root element with a fresh one holding the
// output of the ZoneSummary template.
func (w *Widget) RenderElement() error {
	markup, err := w.opts.Renderer(TemplateName, TemplateContext{Widget: w})
	if err != nil {
		return err
	}
	root := newElement(w.tag, html.Attribute{Key: "class", Val: "o_zone_summary"})
	if err := parseInto(root, markup); err != nil {
		return fmt.Errorf("parsing %s output: %w", TemplateName, err)
	}
	w.root = root
	w.renders++
	return nil
}

// ViewLoading is the post-render step.
func (w *Widget) ViewLoading() error {
	return w.LoadForm()
}

// LoadForm binds a click handler to every free cell of the current
// element tree, dropping handlers from earlier renders first.
func (w *Widget) LoadForm() error {
	w.handlers = w.handlers[:0]
	if w.root == nil {
		return nil
	}
	for i, n := range findByClass(w.root, "table_free") {
		ref := CellRef{Index: i, Data: attr(n, "data"), Date: attr(n, "date")}
		if w.opts.Binder != nil {
			for _, a := range w.opts.Binder(w.binding.RecordID, ref) {
				setAttr(n, a.Key, a.Val)
			}
		}
		w.handlers = append(w.handlers, clickHandler{node: n, ref: ref})
	}
	return nil
}

// Click runs the handler bound to the i-th free cell.
func (w *Widget) Click(ctx context.Context, i int) error {
	if i < 0 || i >= len(w.handlers) {
		return ErrNoHandler
	}
	return w.onFreeCellClick(ctx, w.handlers[i].node)
}

// ClickCell runs the handler bound to the free cell with the given zone
// identifier and date.
func (w *Widget) ClickCell(ctx context.Context, data, date string) error {
	for _, h := range w.handlers {
		if h.ref.Data == data && h.ref.Date == date {
			return w.onFreeCellClick(ctx, h.node)
		}
	}
	return ErrNoHandler
}

// onFreeCellClick reads the clicked cell and asks the host to open the
// quick reservation form. The dispatcher's outcome is not observed beyond
// returning its error.
func (w *Widget) onFreeCellClick(ctx context.Context, cell *html.Node) error {
	if w.opts.Dispatcher == nil {
		return ErrNoDispatcher
	}
	return w.opts.Dispatcher.DoAction(ctx, actions.WindowAction(QuickReservationModel, map[string]any{
		"zone_id":        attr(cell, "data"),
		"date":           attr(cell, "date"),
		"default_adults": 1,
	}))
}

// OnFieldChanged handles an edit of one of the record's fields: the event
// is recorded, the value applied to the record, both payloads re-decoded,
// and the grid rendered and rewired exactly once. A value that fails to
// decode is not kept.
func (w *Widget) OnFieldChanged(ev widgets.ChangeEvent) error {
	w.lastChange = &ev

	w.setting = true
	err := w.applyRecord(map[string]string{ev.Field: ev.Value})
	w.setting = false
	if err != nil {
		return err
	}

	if err := w.RenderElement(); err != nil {
		return err
	}
	return w.ViewLoading()
}

// Reset pushes upstream payload values into the widget. Changed values go
// through the reactive path, so the grid re-renders only if something
// actually changed. Values that fail to decode are not kept.
func (w *Widget) Reset(record map[string]string) error {
	values := make(map[string]string, 2)
	for _, f := range []string{FieldSummaryHeader, FieldZoneSummary} {
		if v, ok := record[f]; ok {
			values[f] = v
		}
	}
	return w.applyRecord(values)
}

// applyRecord writes values into the bound record and reloads both
// payloads. On a decode failure the record gets its previous values back,
// so one bad write cannot poison later edits of the other field.
func (w *Widget) applyRecord(values map[string]string) error {
	type saved struct {
		val string
		ok  bool
	}
	prev := make(map[string]saved, len(values))
	for f, v := range values {
		old, ok := w.binding.Record[f]
		prev[f] = saved{val: old, ok: ok}
		w.binding.Record[f] = v
	}

	err := w.loadPayloads()
	var pe *PayloadError
	if errors.As(err, &pe) {
		for f, p := range prev {
			if p.ok {
				w.binding.Record[f] = p.val
			} else {
				delete(w.binding.Record, f)
			}
		}
	}
	return err
}

// HTML returns the rendered element, or "" before the first render.
func (w *Widget) HTML() string {
	if w.root == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, w.root); err != nil {
		return ""
	}
	return b.String()
}

// Header returns the grid's column labels.
func (w *Widget) Header() []string {
	return headerColumns(w.state.Get(FieldSummaryHeader))
}

// Rows returns the grid's zones.
func (w *Widget) Rows() []Row {
	return zoneRows(w.state.Get(FieldZoneSummary))
}

// State exposes the observable fields.
func (w *Widget) State() *State { return w.state }

// Tag is the root element name: span in edit mode, div otherwise.
func (w *Widget) Tag() string { return w.tag }

// Mode is the binding's display mode.
func (w *Widget) Mode() string { return w.binding.Mode }

// RecordID is the bound record.
func (w *Widget) RecordID() string { return w.binding.RecordID }

// Renders counts completed RenderElement calls.
func (w *Widget) Renders() int { return w.renders }

// BoundHandlers is the number of free cells with a click handler.
func (w *Widget) BoundHandlers() int { return len(w.handlers) }

// BoundCells lists the free cells with a click handler, in order.
func (w *Widget) BoundCells() []CellRef {
	out := make([]CellRef, len(w.handlers))
	for i, h := range w.handlers {
		out[i] = h.ref
	}
	return out
}

// LastChangeEvent is the event most recently passed to OnFieldChanged.
func (w *Widget) LastChangeEvent() (widgets.ChangeEvent, bool) {
	if w.lastChange == nil {
		return widgets.ChangeEvent{}, false
	}
	return *w.lastChange, true
}

// Record returns a copy of the bound record's field values.
func (w *Widget) Record() map[string]string {
	return w.binding.Clone().Record
}
