// Package event provides the synchronous, in-process emitter views use to
// announce render lifecycle events. Listeners receive an Event by value and
// return the (possibly rewritten) event the caller continues with.
package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-view/pkg/template"
)

// Lifecycle event names.
const (
	Rendering = "view.rendering"
	Rendered  = "view.rendered"
)

// DefaultPriority is used when a listener is registered without WithPriority.
const DefaultPriority = 100

// StageRendering names the event emitted before a stage of kind renders.
func StageRendering(kind template.Kind) string {
	return Rendering + "." + kind.EventSuffix()
}

// StageRendered names the event emitted after a stage of kind rendered.
func StageRendered(kind template.Kind) string {
	return Rendered + "." + kind.EventSuffix()
}

// Event is the payload passed through listeners. Source is the emitting view.
// Template and Kind are set for stage events and view.rendering, Content for
// view.rendered.
type Event struct {
	Name     string
	Source   any
	Template string
	Kind     template.Kind
	Content  string
}

// Listener observes an event and returns the event to continue with.
type Listener func(ctx context.Context, evt Event) (Event, error)

// ListenOption configures a registration.
type ListenOption func(*registration)

// WithPriority orders listeners; lower values run first. Listeners sharing a
// priority run in registration order.
func WithPriority(priority int) ListenOption {
	return func(r *registration) {
		r.priority = priority
	}
}

type registration struct {
	id       uint64
	priority int
	once     bool
	fn       Listener
}

// Emitter dispatches events to listeners registered by name. The zero value
// is not usable; a nil *Emitter emits nothing.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]*registration
	seq       uint64
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]*registration)}
}

// On registers fn for name and returns a function that removes it.
func (e *Emitter) On(name string, fn Listener, opts ...ListenOption) func() {
	return e.add(name, fn, false, opts)
}

// Once registers fn for a single delivery.
func (e *Emitter) Once(name string, fn Listener, opts ...ListenOption) func() {
	return e.add(name, fn, true, opts)
}

// Off removes every listener registered for name.
func (e *Emitter) Off(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners, name)
}

// Listeners returns the number of listeners registered for name.
func (e *Emitter) Listeners(name string) int {
	if e == nil {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[name])
}

// Emit runs the listeners for evt.Name in priority order, threading the
// returned event from one listener into the next. Name and Source cannot be
// changed by listeners. The first listener error stops dispatch.
func (e *Emitter) Emit(ctx context.Context, evt Event) (Event, error) {
	if e == nil {
		return evt, nil
	}

	e.mu.Lock()
	regs := append([]*registration(nil), e.listeners[evt.Name]...)
	for _, reg := range regs {
		if reg.once {
			e.remove(evt.Name, reg.id)
		}
	}
	e.mu.Unlock()

	name, source := evt.Name, evt.Source
	for _, reg := range regs {
		next, err := reg.fn(ctx, evt)
		if err != nil {
			return evt, fmt.Errorf("event: listener for %q: %w", name, err)
		}
		next.Name, next.Source = name, source
		evt = next
	}
	return evt, nil
}

func (e *Emitter) add(name string, fn Listener, once bool, opts []ListenOption) func() {
	if fn == nil {
		return func() {}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	reg := &registration{id: e.seq, priority: DefaultPriority, once: once, fn: fn}
	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}

	if e.listeners == nil {
		e.listeners = make(map[string][]*registration)
	}
	regs := append(e.listeners[name], reg)
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].priority < regs[j].priority
	})
	e.listeners[name] = regs

	id := reg.id
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.remove(name, id)
	}
}

// remove expects e.mu to be held.
func (e *Emitter) remove(name string, id uint64) {
	regs := e.listeners[name]
	for i, reg := range regs {
		if reg.id == id {
			e.listeners[name] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(e.listeners[name]) == 0 {
		delete(e.listeners, name)
	}
}
