// Package widgets defines the field-widget contract shared by every widget
// the app can mount on a record, the registry that maps widget keys to
// factories, and the Host that keeps mounted widgets alive between
// requests.
package widgets

import (
	"fmt"
	"sort"
	"sync"
)

// Display modes of a binding.
const (
	ModeReadonly = "readonly"
	ModeEdit     = "edit"
)

// Binding is the form-field context a widget is created for: which record,
// that record's field values, and the display mode.
type Binding struct {
	RecordID string
	Record   map[string]string
	Mode     string
}

// Clone returns a copy of b whose Record can be modified independently.
func (b Binding) Clone() Binding {
	rec := make(map[string]string, len(b.Record))
	for k, v := range b.Record {
		rec[k] = v
	}
	b.Record = rec
	return b
}

// ChangeEvent reports that an upstream record field changed value.
type ChangeEvent struct {
	Field string
	Value string
}

// FieldWidget is the lifecycle every mounted widget implements. The Host
// calls InitializeField once and Start right after construction; Reset
// pushes new upstream values through the widget's reactive path;
// OnFieldChanged handles an edit made through the widget's own field.
type FieldWidget interface {
	InitializeField()
	Start() error
	Reset(record map[string]string) error
	OnFieldChanged(ev ChangeEvent) error
	HTML() string
}

// Factory builds a widget for a binding.
type Factory func(b Binding) (FieldWidget, error)

// Info describes a registered widget.
type Info struct {
	Key         string
	Description string
}

type entry struct {
	info    Info
	factory Factory
}

// Registry maps widget keys to factories. Keys are case-sensitive and can
// be registered once.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a factory under info.Key.
func (r *Registry) Register(info Info, f Factory) error {
	if info.Key == "" {
		return fmt.Errorf("widget key is required")
	}
	if f == nil {
		return fmt.Errorf("widget %q: nil factory", info.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[info.Key]; exists {
		return fmt.Errorf("widget %q already registered", info.Key)
	}
	r.entries[info.Key] = entry{info: info, factory: f}
	return nil
}

// Lookup returns the factory registered under key.
func (r *Registry) Lookup(key string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e.factory, ok
}

// Keys lists registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Infos returns the metadata of every registered widget, sorted by key.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
