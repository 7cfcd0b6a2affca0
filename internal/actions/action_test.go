package actions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestViewRef_JSON(t *testing.T) {
	data, err := json.Marshal([]ViewRef{{Kind: "form"}, {ID: 42, Kind: "tree"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[[false,"form"],[42,"tree"]]` {
		t.Errorf("unexpected encoding %s", data)
	}

	var got []ViewRef
	if err := json.Unmarshal([]byte(`[[false,"form"],[null,"kanban"],[7,"tree"]]`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []ViewRef{{Kind: "form"}, {Kind: "kanban"}, {ID: 7, Kind: "tree"}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("view %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	for _, bad := range []string{`[false]`, `["x","form"]`, `[1,2]`, `{}`} {
		var v ViewRef
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestWindowAction_Shape(t *testing.T) {
	a := WindowAction("quick.zone.reservation", map[string]any{
		"zone_id":        "Zone-3",
		"date":           "2024-05-01",
		"default_adults": 1,
	})

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"ir.actions.act_window","res_model":"quick.zone.reservation",` +
		`"views":[[false,"form"]],"target":"new",` +
		`"context":{"date":"2024-05-01","default_adults":1,"zone_id":"Zone-3"}}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var d Dispatcher = r

	_ = d.DoAction(context.Background(), WindowAction("a", nil))
	_ = d.DoAction(context.Background(), WindowAction("b", nil))

	got := r.Actions()
	if len(got) != 2 || got[0].ResModel != "a" || got[1].ResModel != "b" {
		t.Errorf("unexpected recorded actions %+v", got)
	}

	got[0].ResModel = "mutated"
	if r.Actions()[0].ResModel != "a" {
		t.Error("Actions must return a copy")
	}

	r.Err = errors.New("boom")
	if err := d.DoAction(context.Background(), Action{}); err != r.Err {
		t.Errorf("expected recorder error, got %v", err)
	}
}

func TestDispatcherFunc(t *testing.T) {
	called := false
	d := DispatcherFunc(func(ctx context.Context, a Action) error {
		called = a.Type == TypeWindow
		return nil
	})
	if err := d.DoAction(context.Background(), WindowAction("m", nil)); err != nil || !called {
		t.Errorf("expected func to be called, err=%v", err)
	}
}
