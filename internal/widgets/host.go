package widgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotMounted is returned by Host.Do when no widget is mounted for the
// key and record.
var ErrNotMounted = errors.New("widget not mounted")

type mountKey struct {
	key      string
	recordID string
}

// mounted is one live widget. mu serialises every call into the widget.
type mounted struct {
	mu       sync.Mutex
	widget   FieldWidget
	mode     string
	lastUsed time.Time
}

// Host keeps one widget per (key, record) alive across requests, the way a
// form view keeps its field widgets while the record is open. Every call
// into a widget goes through the Host, which holds that widget's lock, so
// concurrent requests never interleave inside a widget.
type Host struct {
	registry *Registry
	idleTTL  time.Duration
	now      func() time.Time

	mu     sync.Mutex
	mounts map[mountKey]*mounted
}

// NewHost creates a host over registry. Widgets unused for idleTTL are
// unmounted by Run; zero disables eviction.
func NewHost(registry *Registry, idleTTL time.Duration) *Host {
	return &Host{
		registry: registry,
		idleTTL:  idleTTL,
		now:      time.Now,
		mounts:   make(map[mountKey]*mounted),
	}
}

// Mount makes sure a widget of kind key is mounted for b.RecordID and in
// sync with b.Record. A new widget is built with the registered factory,
// then InitializeField and Start run. An existing widget in the same mode
// is Reset with the record instead; a mode change replaces it.
func (h *Host) Mount(key string, b Binding) error {
	factory, ok := h.registry.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown widget %q", key)
	}
	mk := mountKey{key: key, recordID: b.RecordID}

	h.mu.Lock()
	m, exists := h.mounts[mk]
	if exists && m.mode == b.Mode {
		h.mu.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()
		m.lastUsed = h.now()
		return m.widget.Reset(b.Record)
	}
	defer h.mu.Unlock()

	w, err := factory(b.Clone())
	if err != nil {
		return err
	}
	w.InitializeField()
	if err := w.Start(); err != nil {
		return fmt.Errorf("starting widget %q: %w", key, err)
	}

	h.mounts[mk] = &mounted{widget: w, mode: b.Mode, lastUsed: h.now()}
	slog.Debug("widget mounted",
		slog.String("widget", key),
		slog.String("record_id", b.RecordID),
		slog.String("mode", b.Mode),
		slog.Bool("replaced", exists),
	)
	return nil
}

// Do runs fn with exclusive access to the mounted widget.
func (h *Host) Do(key, recordID string, fn func(FieldWidget) error) error {
	h.mu.Lock()
	m, ok := h.mounts[mountKey{key: key, recordID: recordID}]
	h.mu.Unlock()
	if !ok {
		return ErrNotMounted
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUsed = h.now()
	return fn(m.widget)
}

// Unmount destroys the widget for (key, recordID). It reports whether one
// was mounted.
func (h *Host) Unmount(key, recordID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	mk := mountKey{key: key, recordID: recordID}
	if _, ok := h.mounts[mk]; !ok {
		return false
	}
	delete(h.mounts, mk)
	return true
}

// Len returns the number of mounted widgets.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.mounts)
}

// Run evicts idle widgets until ctx is cancelled.
func (h *Host) Run(ctx context.Context) {
	if h.idleTTL <= 0 {
		return
	}
	interval := h.idleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.evictIdle(h.now()); n > 0 {
				slog.Debug("idle widgets unmounted", slog.Int("count", n))
			}
		}
	}
}

// evictIdle unmounts widgets unused since now-idleTTL. Widgets busy in Do
// are skipped.
func (h *Host) evictIdle(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for mk, m := range h.mounts {
		if !m.mu.TryLock() {
			continue
		}
		idle := now.Sub(m.lastUsed) > h.idleTTL
		m.mu.Unlock()
		if idle {
			delete(h.mounts, mk)
			evicted++
		}
	}
	return evicted
}
