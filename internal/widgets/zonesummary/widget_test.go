package zonesummary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/keyxmakerx/paintball/internal/actions"
	"github.com/keyxmakerx/paintball/internal/pyliteral"
	"github.com/keyxmakerx/paintball/internal/widgets"
)

const (
	scenarioHeader = "['2024-05-01','2024-05-02']"
	scenarioZones  = "[{'zone':'A','cells':[{'free':true,'data':'A','date':'2024-05-01'},{'free':false}]}]"
)

// producerHeader and producerZones have the shape the summary plugin emits.
const (
	producerHeader = "[{'header': ['Zones', 'Wed May 01', 'Thu May 02', 'Fri May 03']}]"
	producerZones  = "[{'name': 'Woodland', 'value': [" +
		"{'state': 'Free', 'date': '2024-05-01 00:00:00', 'zone_id': 1}, " +
		"{'state': 'Reserved', 'date': '2024-05-02 00:00:00', 'zone_id': 1, 'is_draft': 'No', 'data_model': '', 'data_id': 0}, " +
		"{'state': 'Free', 'date': '2024-05-03 00:00:00', 'zone_id': 1}]}, " +
		"{'name': 'Urban', 'value': [" +
		"{'state': 'Free', 'date': '2024-05-01 00:00:00', 'zone_id': 3}, " +
		"{'state': 'Free', 'date': '2024-05-02 00:00:00', 'zone_id': 3}, " +
		"{'state': 'Reserved', 'date': '2024-05-03 00:00:00', 'zone_id': 3, 'is_draft': 'Yes', 'data_model': '', 'data_id': 0}]}]"
)

func binding(mode, header, zones string) widgets.Binding {
	return widgets.Binding{
		RecordID: "s1",
		Record:   map[string]string{FieldSummaryHeader: header, FieldZoneSummary: zones},
		Mode:     mode,
	}
}

// mountWidget runs the lifecycle the Host runs: New, InitializeField, Start.
func mountWidget(t *testing.T, b widgets.Binding, opts Options) *Widget {
	t.Helper()
	w, err := New(b, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.InitializeField()
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return w
}

func parseHTML(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func countElements(root *html.Node, tag string) int {
	n := 0
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode && x.Data == tag {
			n++
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return n
}

func TestNew_RootTagFollowsMode(t *testing.T) {
	tests := []struct {
		mode string
		tag  string
	}{
		{widgets.ModeEdit, "span"},
		{widgets.ModeReadonly, "div"},
		{"", "div"},
	}
	for _, tt := range tests {
		w := mountWidget(t, binding(tt.mode, scenarioHeader, scenarioZones), Options{})
		if w.Tag() != tt.tag {
			t.Errorf("mode %q: expected tag %s, got %s", tt.mode, tt.tag, w.Tag())
		}
		if !strings.HasPrefix(w.HTML(), "<"+tt.tag+` class="o_zone_summary">`) {
			t.Errorf("mode %q: unexpected root in %s", tt.mode, w.HTML())
		}
	}
}

func TestNew_StateStartsUnsetExceptPayloads(t *testing.T) {
	w, err := New(binding("", scenarioHeader, scenarioZones), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := w.State()
	if s.Get(FieldDateTo) != Unset || s.Get(FieldDateFrom) != Unset {
		t.Error("date fields must stay unset")
	}
	if !s.IsSet(FieldSummaryHeader) || !s.IsSet(FieldZoneSummary) {
		t.Error("payload fields must be populated at construction")
	}
	if w.Renders() != 0 {
		t.Error("construction must not render")
	}
}

func TestNew_MalformedPayload(t *testing.T) {
	for _, b := range []widgets.Binding{
		binding("", "['2024-05-01'", scenarioZones),
		binding("", scenarioHeader, "[{'zone': }]"),
	} {
		_, err := New(b, Options{})
		var de *pyliteral.DecodeError
		if !errors.As(err, &de) {
			t.Errorf("expected DecodeError, got %v", err)
		}
		var pe *PayloadError
		if !errors.As(err, &pe) {
			t.Errorf("expected PayloadError, got %T", err)
		}
	}
}

func TestScenario_GridShape(t *testing.T) {
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{})
	doc := parseHTML(t, w.HTML())

	if n := countElements(doc, "th"); n != 2 {
		t.Errorf("expected 2 header columns, got %d", n)
	}
	if n := countElements(doc, "tr"); n != 2 {
		t.Errorf("expected header row plus 1 body row, got %d rows", n)
	}
	if w.BoundHandlers() != 1 {
		t.Errorf("expected 1 clickable cell, got %d", w.BoundHandlers())
	}
	cells := w.BoundCells()
	if cells[0].Data != "A" || cells[0].Date != "2024-05-01" {
		t.Errorf("unexpected bound cell %+v", cells[0])
	}
	if !strings.Contains(w.HTML(), `<td class="table_free" data="A" date="2024-05-01">Free</td>`) {
		t.Errorf("free cell markup missing in %s", w.HTML())
	}
}

func TestProducerPayload_GridShape(t *testing.T) {
	w := mountWidget(t, binding("", producerHeader, producerZones), Options{})
	doc := parseHTML(t, w.HTML())

	header := w.Header()
	if len(header) != 4 || header[0] != "Zones" {
		t.Fatalf("unexpected header %v", header)
	}
	if n := countElements(doc, "th"); n != len(header) {
		t.Errorf("expected %d th, got %d", len(header), n)
	}
	rows := w.Rows()
	if len(rows) != 2 || rows[1].Name != "Urban" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if n := countElements(doc, "tr") - 1; n != len(rows) {
		t.Errorf("expected %d body rows, got %d", len(rows), n)
	}
	if w.BoundHandlers() != 4 {
		t.Errorf("expected 4 free cells, got %d", w.BoundHandlers())
	}
	if got := w.BoundCells()[2]; got.Data != "3" || got.Date != "2024-05-01 00:00:00" {
		t.Errorf("zone_id should feed the data attribute, got %+v", got)
	}
	if !strings.Contains(w.HTML(), `class="table_reserved table_draft"`) {
		t.Error("draft reservation should be marked")
	}
}

func TestRender_Idempotent(t *testing.T) {
	w := mountWidget(t, binding("", producerHeader, producerZones), Options{Binder: HTMXBinder})
	first := w.HTML()

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if w.HTML() != first {
		t.Errorf("second render differs:\n%s\n%s", first, w.HTML())
	}
	if w.Renders() != 2 {
		t.Errorf("expected 2 renders, got %d", w.Renders())
	}
}

func TestRender_EscapesPayloadText(t *testing.T) {
	zones := `[{'zone': '<script>x</script>', 'cells': [{'free': True, 'data': '"><b>', 'date': 'd'}]}]`
	w := mountWidget(t, binding("", "['<i>col</i>']", zones), Options{})
	out := w.HTML()
	if strings.Contains(out, "<script>") || strings.Contains(out, "<i>") || strings.Contains(out, "<b>") {
		t.Errorf("payload text must be escaped: %s", out)
	}
	if w.BoundCells()[0].Data != `"><b>` {
		t.Errorf("attribute must round-trip, got %q", w.BoundCells()[0].Data)
	}
}

func TestStart_SkipsWhenPayloadMissing(t *testing.T) {
	for _, b := range []widgets.Binding{
		binding("", scenarioHeader, ""),
		binding("", "", scenarioZones),
		binding("", "None", scenarioZones),
		binding("", scenarioHeader, "False"),
	} {
		w := mountWidget(t, b, Options{})
		if w.Renders() != 0 || w.BoundHandlers() != 0 {
			t.Errorf("record %v: expected no render, got %d renders %d handlers",
				b.Record, w.Renders(), w.BoundHandlers())
		}
		if w.HTML() != "" {
			t.Errorf("expected empty HTML, got %q", w.HTML())
		}
	}
}

func TestStart_EmptyListsStillRender(t *testing.T) {
	w := mountWidget(t, binding("", "[]", "[]"), Options{})
	if w.Renders() != 1 || w.BoundHandlers() != 0 {
		t.Errorf("expected one empty render, got %d renders", w.Renders())
	}
}

func TestClick_DispatchesQuickReservation(t *testing.T) {
	zones := "[{'zone': 'Three', 'cells': [{'free': True, 'data': 'Zone-3', 'date': '2024-05-01'}]}]"
	rec := &actions.Recorder{}
	w := mountWidget(t, binding("", "['2024-05-01']", zones), Options{Dispatcher: rec})

	if err := w.Click(context.Background(), 0); err != nil {
		t.Fatalf("Click: %v", err)
	}

	got := rec.Actions()
	if len(got) != 1 {
		t.Fatalf("expected 1 action, got %d", len(got))
	}
	a := got[0]
	if a.Type != "ir.actions.act_window" || a.ResModel != "quick.zone.reservation" || a.Target != "new" {
		t.Errorf("unexpected action %+v", a)
	}
	if len(a.Views) != 1 || a.Views[0] != (actions.ViewRef{Kind: "form"}) {
		t.Errorf("expected default form view, got %+v", a.Views)
	}
	if a.Context["zone_id"] != "Zone-3" || a.Context["date"] != "2024-05-01" || a.Context["default_adults"] != 1 {
		t.Errorf("unexpected context %v", a.Context)
	}
	if w.Renders() != 1 {
		t.Error("a click must not re-render")
	}
}

func TestClick_Errors(t *testing.T) {
	rec := &actions.Recorder{Err: errors.New("dispatch failed")}
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{Dispatcher: rec})

	if err := w.Click(context.Background(), 0); err != rec.Err {
		t.Errorf("dispatcher error must be returned unchanged, got %v", err)
	}
	if err := w.Click(context.Background(), 1); !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler for reserved cell, got %v", err)
	}
	if err := w.ClickCell(context.Background(), "A", "2024-05-02"); !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler for unknown cell, got %v", err)
	}

	noDispatch := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{})
	if err := noDispatch.Click(context.Background(), 0); !errors.Is(err, ErrNoDispatcher) {
		t.Errorf("expected ErrNoDispatcher, got %v", err)
	}
}

func TestOnFieldChanged_TwoChangesThenOneClick(t *testing.T) {
	rec := &actions.Recorder{}
	w := mountWidget(t, binding(widgets.ModeEdit, scenarioHeader, scenarioZones), Options{Dispatcher: rec})

	if err := w.OnFieldChanged(widgets.ChangeEvent{Field: FieldSummaryHeader, Value: "['2024-06-01']"}); err != nil {
		t.Fatalf("change 1: %v", err)
	}
	if err := w.OnFieldChanged(widgets.ChangeEvent{
		Field: FieldZoneSummary,
		Value: "[{'zone':'B','cells':[{'free':true,'data':'B','date':'2024-06-01'}]}]",
	}); err != nil {
		t.Fatalf("change 2: %v", err)
	}
	if w.BoundHandlers() != 1 {
		t.Fatalf("handlers accumulated: %d", w.BoundHandlers())
	}

	if err := w.Click(context.Background(), 0); err != nil {
		t.Fatalf("click: %v", err)
	}
	got := rec.Actions()
	if len(got) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(got))
	}
	if got[0].Context["zone_id"] != "B" {
		t.Errorf("expected click on the new grid, got %v", got[0].Context)
	}
}

func TestOnFieldChanged_RendersExactlyOnce(t *testing.T) {
	w := mountWidget(t, binding(widgets.ModeEdit, producerHeader, producerZones), Options{})
	before := w.Renders()
	oldCells := w.BoundCells()

	ev := widgets.ChangeEvent{Field: FieldZoneSummary, Value: scenarioZones}
	if err := w.OnFieldChanged(ev); err != nil {
		t.Fatalf("OnFieldChanged: %v", err)
	}

	if w.Renders() != before+1 {
		t.Errorf("expected exactly one re-render, got %d", w.Renders()-before)
	}
	if w.BoundHandlers() != 1 || len(oldCells) != 4 {
		t.Errorf("old bindings must be discarded: had %d, now %d", len(oldCells), w.BoundHandlers())
	}
	last, ok := w.LastChangeEvent()
	if !ok || last != ev {
		t.Errorf("expected last change event %+v, got %+v", ev, last)
	}
	if w.Record()[FieldZoneSummary] != scenarioZones {
		t.Error("the new value must be applied to the record")
	}
	if !strings.HasPrefix(w.HTML(), "<span") {
		t.Error("edit mode keeps the span root")
	}
}

func TestOnFieldChanged_DecodeErrorKeepsGrid(t *testing.T) {
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{})
	before := w.HTML()

	err := w.OnFieldChanged(widgets.ChangeEvent{Field: FieldZoneSummary, Value: "[{"})
	var de *pyliteral.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if w.HTML() != before || w.Renders() != 1 {
		t.Error("a failed change must not re-render")
	}
	if w.Record()[FieldZoneSummary] != scenarioZones {
		t.Error("a value that failed to decode must not stay in the record")
	}

	// The setting flag must have been lowered again.
	if err := w.Reset(map[string]string{FieldZoneSummary: "[]"}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if w.Renders() != 2 {
		t.Errorf("reactive path should render after a failed change, got %d renders", w.Renders())
	}
}

func TestReset_DecodeErrorKeepsState(t *testing.T) {
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{})
	before := w.HTML()

	err := w.Reset(map[string]string{FieldZoneSummary: "[oops"})
	var de *pyliteral.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if got := w.Record()[FieldZoneSummary]; got != scenarioZones {
		t.Errorf("record kept the bad value %q", got)
	}
	if w.HTML() != before || w.Renders() != 1 {
		t.Error("a failed reset must not re-render")
	}

	// Editing the other field still works.
	ev := widgets.ChangeEvent{Field: FieldSummaryHeader, Value: "['2024-06-01','2024-06-02']"}
	if err := w.OnFieldChanged(ev); err != nil {
		t.Fatalf("OnFieldChanged after failed reset: %v", err)
	}
	if w.Renders() != 2 {
		t.Errorf("expected 2 renders, got %d", w.Renders())
	}
	if got := w.Header(); len(got) != 2 || got[0] != "2024-06-01" {
		t.Errorf("unexpected header %v", got)
	}
}

func TestReset_ReactivePath(t *testing.T) {
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{})

	// Unchanged values: no notification, no render.
	if err := w.Reset(map[string]string{FieldSummaryHeader: scenarioHeader, FieldZoneSummary: scenarioZones}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if w.Renders() != 1 {
		t.Errorf("unchanged reset must not render, got %d", w.Renders())
	}

	// Both fields change in one reset: one render.
	if err := w.Reset(map[string]string{FieldSummaryHeader: producerHeader, FieldZoneSummary: producerZones}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if w.Renders() != 2 || w.BoundHandlers() != 4 {
		t.Errorf("expected one render with 4 handlers, got %d renders %d handlers", w.Renders(), w.BoundHandlers())
	}
}

func TestReset_WithoutInitializeFieldDoesNotRender(t *testing.T) {
	w, err := New(binding("", scenarioHeader, scenarioZones), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Reset(map[string]string{FieldZoneSummary: producerZones}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if w.Renders() != 0 {
		t.Error("without subscriptions nothing reacts to changes")
	}
}

func TestInitializeField_Idempotent(t *testing.T) {
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{})
	w.InitializeField()
	w.InitializeField()

	if err := w.Reset(map[string]string{FieldZoneSummary: producerZones}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if w.Renders() != 2 {
		t.Errorf("repeated InitializeField must not multiply renders, got %d", w.Renders())
	}
}

func TestBinder_AddsAttributes(t *testing.T) {
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{Binder: HTMXBinder})
	out := w.HTML()
	for _, want := range []string{
		`hx-post="/summaries/s1/widget/click"`,
		`hx-vals="{&#34;data&#34;:&#34;A&#34;,&#34;date&#34;:&#34;2024-05-01&#34;}"`,
		`hx-target="#modal"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestRenderer_Injected(t *testing.T) {
	var names []string
	r := func(name string, tc TemplateContext) (string, error) {
		names = append(names, name)
		return `<p class="table_free" data="x" date="y">custom</p>`, nil
	}
	w := mountWidget(t, binding("", scenarioHeader, scenarioZones), Options{Renderer: r})
	if len(names) != 1 || names[0] != TemplateName {
		t.Errorf("expected one lookup of %s, got %v", TemplateName, names)
	}
	if w.BoundHandlers() != 1 || !strings.Contains(w.HTML(), "custom") {
		t.Errorf("custom template output not used: %s", w.HTML())
	}

	failing := func(string, TemplateContext) (string, error) { return "", errors.New("no template") }
	fw, err := New(binding("", scenarioHeader, scenarioZones), Options{Renderer: failing})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fw.Start(); err == nil {
		t.Error("renderer error must propagate")
	}
}

func TestDefaultRenderer_UnknownTemplate(t *testing.T) {
	if _, err := DefaultRenderer("Nope", TemplateContext{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRegister(t *testing.T) {
	reg := widgets.NewRegistry()
	if err := Register(reg, Options{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	factory, ok := reg.Lookup("Zone_Reservation")
	if !ok {
		t.Fatal("expected widget under Zone_Reservation")
	}
	fw, err := factory(binding("", scenarioHeader, scenarioZones))
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if _, ok := fw.(*Widget); !ok {
		t.Errorf("expected *Widget, got %T", fw)
	}
	if err := Register(reg, Options{}); err == nil {
		t.Error("second registration must fail")
	}
}

func TestStart_FalsyPayloadsDoNotRender(t *testing.T) {
	tests := []struct {
		name, header, zones string
	}{
		{"empty string header", "''", scenarioZones},
		{"zero zones", scenarioHeader, "0"},
		{"false header", "False", scenarioZones},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mountWidget(t, binding("", tt.header, tt.zones), Options{})
			if w.Renders() != 0 || w.HTML() != "" {
				t.Errorf("expected no render, got %d renders", w.Renders())
			}
		})
	}
}
