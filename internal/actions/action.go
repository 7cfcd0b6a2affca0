// Package actions models the client actions a widget can ask its host to
// perform, and dispatches them. Only window actions exist today: "open this
// model's form view, in a modal or in the main area, with this context".
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Action types.
const (
	TypeWindow = "ir.actions.act_window"
)

// Window targets.
const (
	TargetNew     = "new"
	TargetCurrent = "current"
)

// ViewRef selects a view of the target model. ID zero means "the default
// view of that kind" and is encoded as false, so a ViewRef serialises as
// [false,"form"] or [42,"form"].
type ViewRef struct {
	ID   int64
	Kind string
}

// MarshalJSON encodes the view as a two-element array.
func (v ViewRef) MarshalJSON() ([]byte, error) {
	var id any = false
	if v.ID != 0 {
		id = v.ID
	}
	return json.Marshal([]any{id, v.Kind})
}

// UnmarshalJSON accepts [false,"kind"], [null,"kind"] and [id,"kind"].
func (v *ViewRef) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("view reference must have 2 elements, got %d", len(pair))
	}

	var id int64
	switch string(pair[0]) {
	case "false", "null":
	default:
		if err := json.Unmarshal(pair[0], &id); err != nil {
			return fmt.Errorf("view id: %w", err)
		}
	}
	var kind string
	if err := json.Unmarshal(pair[1], &kind); err != nil {
		return fmt.Errorf("view kind: %w", err)
	}
	v.ID, v.Kind = id, kind
	return nil
}

// Action is one request for the host to do something on the widget's behalf.
type Action struct {
	Type     string         `json:"type"`
	ResModel string         `json:"res_model"`
	Views    []ViewRef      `json:"views"`
	Target   string         `json:"target"`
	Context  map[string]any `json:"context"`
}

// WindowAction opens the default form view of resModel in a new modal with
// the given context.
func WindowAction(resModel string, context map[string]any) Action {
	return Action{
		Type:     TypeWindow,
		ResModel: resModel,
		Views:    []ViewRef{{Kind: "form"}},
		Target:   TargetNew,
		Context:  context,
	}
}

// Dispatcher performs actions. Implementations may block; callers pass the
// request context through.
type Dispatcher interface {
	DoAction(ctx context.Context, a Action) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, a Action) error

// DoAction calls f.
func (f DispatcherFunc) DoAction(ctx context.Context, a Action) error {
	return f(ctx, a)
}

// Recorder is a Dispatcher that remembers every action it is given and
// returns Err. Useful wherever actions should be captured instead of run.
type Recorder struct {
	Err error

	mu      sync.Mutex
	actions []Action
}

// DoAction records a.
func (r *Recorder) DoAction(_ context.Context, a Action) error {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	return r.Err
}

// Actions returns a copy of the recorded actions in dispatch order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}
