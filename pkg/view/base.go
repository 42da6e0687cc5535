package view

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-view/pkg/event"
	"github.com/goliatone/go-view/pkg/metrics"
	"github.com/goliatone/go-view/pkg/storage"
	"github.com/goliatone/go-view/pkg/template"
)

// ErrNoLocator is returned when a view has neither a locator nor a
// filesystem to build one from.
var ErrNoLocator = errors.New("view: no template locator configured")

// operation tags a memoized result with the method that produced it.
type operation uint8

const (
	opRender operation = iota + 1
)

type memoKey struct {
	op      operation
	name    string
	private bool
}

// Base holds the collaborators every view shares: variables, template
// lookup, optional storage, the event emitter and the per-view result memo.
// A Base serves one render at a time.
type Base struct {
	vars    *template.Vars
	locator template.Locator
	fsys    fs.FS
	storage storage.Storage
	emitter *event.Emitter

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics metrics.Recorder
	now     func() time.Time

	memo        map[memoKey]string
	memoEnabled bool
}

func newBase() *Base {
	return &Base{
		vars:        template.NewVars(),
		emitter:     event.NewEmitter(),
		memo:        make(map[memoKey]string),
		memoEnabled: true,
	}
}

// Variables returns the live variable map passed to every template.
func (b *Base) Variables() *template.Vars {
	return b.vars
}

// Variable returns a single variable.
func (b *Base) Variable(key string) (any, bool) {
	return b.vars.Get(key)
}

// SetVariable stores a variable.
func (b *Base) SetVariable(key string, value any) {
	b.vars.Set(key, value)
}

// SetVariables merges vars into the view variables, overwriting existing keys.
func (b *Base) SetVariables(vars *template.Vars) {
	b.vars.Merge(vars)
}

// Storage returns the configured storage backend, or nil.
func (b *Base) Storage() storage.Storage {
	return b.storage
}

// SetStorage replaces the storage backend. Nil disables output caching.
func (b *Base) SetStorage(s storage.Storage) {
	b.storage = s
}

// Emitter returns the view's event emitter.
func (b *Base) Emitter() *event.Emitter {
	return b.emitter
}

// Locator returns the template locator.
func (b *Base) Locator() template.Locator {
	return b.locator
}

// Logger returns the view logger.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// LocateTemplate resolves name to a template path for kind.
func (b *Base) LocateTemplate(name string, kind template.Kind) (string, error) {
	if b.locator == nil {
		return "", ErrNoLocator
	}
	return b.locator.Locate(name, kind)
}

type pathLocator interface {
	AddPaths(paths ...string)
	Paths() []string
}

// AddPaths appends lookup paths to the locator.
func (b *Base) AddPaths(paths ...string) error {
	loc, ok := b.locator.(pathLocator)
	if !ok {
		return errors.New("view: locator does not support lookup paths")
	}
	loc.AddPaths(paths...)
	return nil
}

// Paths returns the locator lookup paths, if it has any.
func (b *Base) Paths() []string {
	if loc, ok := b.locator.(pathLocator); ok {
		return loc.Paths()
	}
	return nil
}

// FlushCache drops every memoized result.
func (b *Base) FlushCache() {
	clear(b.memo)
}

// cache returns the memoized result for key or runs fn and remembers its
// output. Failed runs are not remembered.
func (b *Base) cache(key memoKey, fn func() (string, error)) (string, error) {
	if b.memoEnabled {
		if out, ok := b.memo[key]; ok {
			return out, nil
		}
	}

	out, err := fn()
	if err != nil {
		return "", err
	}

	if b.memoEnabled {
		b.memo[key] = out
	}
	return out, nil
}

func (b *Base) emit(ctx context.Context, source any, evt event.Event) (event.Event, error) {
	evt.Source = source
	return b.emitter.Emit(ctx, evt)
}
