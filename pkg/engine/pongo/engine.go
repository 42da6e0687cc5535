// Package pongo is the default view engine, rendering pongo2 (Django syntax)
// templates.
//
// Every render receives the view variables plus:
//
//	content      output of the previous stage; use {{ content|safe }}
//	open(name)   renders the public partial name through the view
//	close(name)  renders the private partial name through the view
package pongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-view/pkg/engine"
	"github.com/goliatone/go-view/pkg/template"
)

// ContentVar is the variable holding the previous stage output.
const ContentVar = "content"

// Option configures an Engine.
type Option func(*Engine)

// WithLayout sets the layout rendered around every page.
func WithLayout(name string) Option {
	return func(e *Engine) {
		e.UseLayout(strings.TrimSpace(name))
	}
}

// WithWrappers sets the wrapper chain, innermost first.
func WithWrappers(names ...string) Option {
	return func(e *Engine) {
		e.NoWrappers()
		for _, name := range names {
			e.WrapWith(strings.TrimSpace(name))
		}
	}
}

// Engine renders templates from a shared Set and keeps the per-view content,
// layout and wrapper state. One Engine belongs to one view.
type Engine struct {
	engine.Base

	set *Set
}

// Ensure Engine implements the engine.Engine contract.
var _ engine.Engine = (*Engine)(nil)

// New constructs an Engine over set.
func New(set *Set, options ...Option) *Engine {
	e := &Engine{set: set}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Set returns the template set the engine renders from.
func (e *Engine) Set() *Set {
	return e.set
}

// Render executes the template at path with vars.
func (e *Engine) Render(ctx context.Context, path string, vars *template.Vars) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.set.template(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(e.context(ctx, vars), &buf); err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", path, err)
	}
	return buf.String(), nil
}

func (e *Engine) context(ctx context.Context, vars *template.Vars) pongo2.Context {
	out := make(pongo2.Context, vars.Len()+3)
	vars.Each(func(key string, value any) bool {
		if nested, ok := value.(*template.Vars); ok {
			value = nested.Map()
		}
		out[key] = value
		return true
	})
	out[ContentVar] = e.Content()
	out["open"] = e.partial(ctx, template.Open)
	out["close"] = e.partial(ctx, template.Closed)
	return out
}

// partial renders name through the bound view so partials follow the same
// lookup and caching rules as full templates.
func (e *Engine) partial(ctx context.Context, kind template.Kind) func(name string) (*pongo2.Value, error) {
	return func(name string) (*pongo2.Value, error) {
		view := e.View()
		if view == nil {
			return nil, engine.ErrNoView
		}
		path, err := view.LocateTemplate(name, kind)
		if err != nil {
			return nil, err
		}
		out, err := view.RenderTemplate(ctx, path, view.Variables())
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}
}
