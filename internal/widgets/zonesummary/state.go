package zonesummary

import (
	"errors"
	"math"
	"reflect"
)

// Observable field names.
const (
	FieldDateTo        = "date_to"
	FieldDateFrom      = "date_from"
	FieldSummaryHeader = "summary_header"
	FieldZoneSummary   = "zone_summary"
)

// unset is the sentinel stored in a field that has no value yet.
type unset struct{}

// Unset is the value of a field that was never populated.
var Unset any = unset{}

// Update assigns Value to Field.
type Update struct {
	Field string
	Value any
}

type subscription struct {
	key    string
	fields map[string]bool
	fn     func(changed []string) error
}

// State holds the widget's observable fields. Subscribers are called
// synchronously from Set, after every update of that call is applied, once
// per Set if any field they watch changed.
type State struct {
	values map[string]any
	subs   []subscription
}

// NewState creates a state with every field Unset.
func NewState(fields ...string) *State {
	s := &State{values: make(map[string]any, len(fields))}
	for _, f := range fields {
		s.values[f] = Unset
	}
	return s
}

// Get returns the value of field, or Unset.
func (s *State) Get(field string) any {
	v, ok := s.values[field]
	if !ok {
		return Unset
	}
	return v
}

// IsSet reports whether field holds a usable value, using script
// truthiness: Unset, nil, false, "", 0 and NaN are empty. Empty lists and
// mappings are set.
func (s *State) IsSet(field string) bool {
	switch v := s.Get(field).(type) {
	case unset, nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int64:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	}
	return true
}

// On subscribes fn to changes of fields under key. A key can subscribe
// once; later calls with the same key are ignored and return false.
func (s *State) On(key string, fn func(changed []string) error, fields ...string) bool {
	for _, sub := range s.subs {
		if sub.key == key {
			return false
		}
	}
	watch := make(map[string]bool, len(fields))
	for _, f := range fields {
		watch[f] = true
	}
	s.subs = append(s.subs, subscription{key: key, fields: watch, fn: fn})
	return true
}

// Set applies updates in order, then notifies subscribers of the fields
// whose value actually changed. Subscriber errors are joined.
func (s *State) Set(updates ...Update) error {
	var changed []string
	for _, u := range updates {
		old, ok := s.values[u.Field]
		if ok && reflect.DeepEqual(old, u.Value) {
			continue
		}
		s.values[u.Field] = u.Value
		changed = append(changed, u.Field)
	}
	if len(changed) == 0 {
		return nil
	}

	var errs []error
	for _, sub := range s.subs {
		var hit []string
		for _, f := range changed {
			if sub.fields[f] {
				hit = append(hit, f)
			}
		}
		if len(hit) == 0 {
			continue
		}
		if err := sub.fn(hit); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
