// Package engine defines the contract between views and the templating
// engines that render a single template file.
package engine

import (
	"context"
	"errors"

	"github.com/goliatone/go-view/pkg/template"
)

// ErrNoView is returned when an engine needs its view but none is bound.
var ErrNoView = errors.New("engine: no view bound")

// View is what an engine may ask of the view it is bound to.
type View interface {
	Variables() *template.Vars
	LocateTemplate(name string, kind template.Kind) (string, error)
	RenderTemplate(ctx context.Context, path string, vars *template.Vars) (string, error)
}

// Engine renders template files and carries the content produced by the most
// recent render stage, which wider stages (wrappers, layout) read back.
type Engine interface {
	Render(ctx context.Context, path string, vars *template.Vars) (string, error)
	Wrappers() []string
	Layout() string
	Content() string
	SetContent(content string)
	SetView(view View)
}

// Base carries the state every engine shares: the bound view, the running
// content, the layout and the wrapper chain. Engines embed it.
type Base struct {
	view     View
	content  string
	layout   string
	wrappers []string
}

// SetView binds the engine to view.
func (b *Base) SetView(view View) {
	b.view = view
}

// View returns the bound view.
func (b *Base) View() View {
	return b.view
}

// Content returns the output of the latest stage.
func (b *Base) Content() string {
	return b.content
}

// SetContent replaces the running content.
func (b *Base) SetContent(content string) {
	b.content = content
}

// Layout returns the layout name; empty means no layout.
func (b *Base) Layout() string {
	return b.layout
}

// UseLayout sets the layout. An empty name disables the layout stage.
func (b *Base) UseLayout(name string) {
	b.layout = name
}

// Wrappers returns a copy of the wrapper chain in application order.
func (b *Base) Wrappers() []string {
	return append([]string(nil), b.wrappers...)
}

// WrapWith appends wrappers to the chain.
func (b *Base) WrapWith(names ...string) {
	for _, name := range names {
		if name != "" {
			b.wrappers = append(b.wrappers, name)
		}
	}
}

// NoWrappers clears the wrapper chain.
func (b *Base) NoWrappers() {
	b.wrappers = nil
}
