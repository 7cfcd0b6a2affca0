package summary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/paintball/internal/plugins/reservations"
	"github.com/keyxmakerx/paintball/internal/widgets"
	"github.com/keyxmakerx/paintball/internal/widgets/zonesummary"
)

type staffFlag bool

func (s staffFlag) Check(echo.Context) bool { return bool(s) }

type fixture struct {
	h     *Handler
	svc   *summaryService
	lines *fakeLines
	host  *widgets.Host
	e     *echo.Echo
}

func newFixture(t *testing.T, staff bool) *fixture {
	t.Helper()
	lines := &fakeLines{}
	svc, st := newTestService(t, lines)

	reg := widgets.NewRegistry()
	if err := zonesummary.Register(reg, zonesummary.Options{Binder: zonesummary.HTMXBinder}); err != nil {
		t.Fatalf("register widget: %v", err)
	}
	host := widgets.NewHost(reg, time.Hour)
	wh := zonesummary.NewHandler(host, st, staffFlag(staff))

	return &fixture{
		h:     NewHandler(svc, wh, staffFlag(staff)),
		svc:   svc,
		lines: lines,
		host:  host,
		e:     echo.New(),
	}
}

func (f *fixture) ctx(method, target string, form url.Values, sid string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	if sid != "" {
		c.SetParamNames("sid")
		c.SetParamValues(sid)
	}
	return c, rec
}

func TestNew_Redirects(t *testing.T) {
	f := newFixture(t, false)
	c, rec := f.ctx(http.MethodGet, "/summaries/new?date_from=2024-05-01T00:00&date_to=2024-05-02T00:00", nil, "")
	if err := f.h.New(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(rec.Header().Get("Location"), "/summaries/") {
		t.Errorf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	c, _ = f.ctx(http.MethodGet, "/summaries/new?date_from=soon", nil, "")
	assertAppError(t, f.h.New(c), 422)
}

func TestShow_RendersWidget(t *testing.T) {
	f := newFixture(t, false)
	s, err := f.svc.Create(context.Background(), utc(1, 0), utc(2, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c, rec := f.ctx(http.MethodGet, "/summaries/"+s.ID, nil, s.ID)
	if err := f.h.Show(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		`class="o_zone_summary"`,
		`class="table_free"`,
		"/summaries/" + s.ID + "/widget/click",
		`hx-trigger="zoneReserved from:body"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "summary_edit") {
		t.Error("readonly page must not show the payload editor")
	}
	if f.host.Len() != 1 {
		t.Errorf("expected one mounted widget, got %d", f.host.Len())
	}
}

func TestShow_EditModeNeedsStaff(t *testing.T) {
	f := newFixture(t, false)
	s, err := f.svc.Create(context.Background(), utc(1, 0), utc(2, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c, rec := f.ctx(http.MethodGet, "/summaries/"+s.ID+"?mode=edit", nil, s.ID)
	err = f.h.Show(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if rec.Header().Get(echo.HeaderWWWAuthenticate) == "" {
		t.Error("expected basic auth challenge")
	}

	f = newFixture(t, true)
	s, _ = f.svc.Create(context.Background(), utc(1, 0), utc(2, 0))
	c, rec = f.ctx(http.MethodGet, "/summaries/"+s.ID+"?mode=edit", nil, s.ID)
	if err := f.h.Show(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<span class=\"o_zone_summary\"") || !strings.Contains(body, "summary_edit") {
		t.Errorf("expected edit-mode widget and editor, got %s", body)
	}
}

func TestShow_Missing(t *testing.T) {
	f := newFixture(t, false)
	c, _ := f.ctx(http.MethodGet, "/summaries/x", nil, "4c7a3f0e-0000-4000-8000-000000000000")
	assertAppError(t, f.h.Show(c), 404)
}

func TestDates_RefreshesMountedWidget(t *testing.T) {
	f := newFixture(t, false)
	s, err := f.svc.Create(context.Background(), utc(1, 0), utc(2, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c, _ := f.ctx(http.MethodGet, "/summaries/"+s.ID, nil, s.ID)
	if err := f.h.Show(c); err != nil {
		t.Fatalf("show: %v", err)
	}

	// A booking lands; the zoneReserved refresh posts without dates.
	f.lines.lines = []reservations.ZoneReservationLine{line(1, utc(1, 10), utc(2, 10), reservations.StateDraft)}
	c, rec := f.ctx(http.MethodPost, "/summaries/"+s.ID+"/dates", url.Values{}, s.ID)
	if err := f.h.Dates(c); err != nil {
		t.Fatalf("dates: %v", err)
	}
	body := rec.Body.String()
	if strings.Count(body, "table_free") != 2 || !strings.Contains(body, "table_draft") {
		t.Errorf("expected Woodland reserved and Urban free:\n%s", body)
	}
	if strings.Contains(body, "<!doctype html>") {
		t.Error("dates must answer with a fragment")
	}

	var renders int
	err = f.host.Do(zonesummary.Key, s.ID, func(fw widgets.FieldWidget) error {
		renders = fw.(*zonesummary.Widget).Renders()
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if renders != 2 {
		t.Errorf("expected the mounted widget to re-render once, got %d renders", renders)
	}
}

func TestDates_InvalidRange(t *testing.T) {
	f := newFixture(t, false)
	s, _ := f.svc.Create(context.Background(), utc(1, 0), utc(2, 0))
	c, _ := f.ctx(http.MethodPost, "/summaries/"+s.ID+"/dates",
		url.Values{"date_from": {"2024-05-09T00:00"}, "date_to": {"2024-05-01T00:00"}}, s.ID)
	assertAppError(t, f.h.Dates(c), 422)
}

func TestReport(t *testing.T) {
	f := newFixture(t, false)
	s, _ := f.svc.Create(context.Background(), utc(1, 0), utc(2, 0))
	c, rec := f.ctx(http.MethodGet, "/summaries/"+s.ID+"/report.pdf", nil, s.ID)
	if err := f.h.Report(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(echo.HeaderContentType) != "application/pdf" {
		t.Errorf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
}
