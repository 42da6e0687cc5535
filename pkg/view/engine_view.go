package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-view/pkg/engine"
	"github.com/goliatone/go-view/pkg/engine/pongo"
	"github.com/goliatone/go-view/pkg/event"
	"github.com/goliatone/go-view/pkg/metrics"
	"github.com/goliatone/go-view/pkg/storage"
	"github.com/goliatone/go-view/pkg/template"
)

const instrumentationName = "github.com/goliatone/go-view/pkg/view"

// EngineFactory builds the engine for a view on first use.
type EngineFactory func(v *EngineView) (engine.Engine, error)

// DefaultEngineFactory builds a pongo engine over the view filesystem with a
// template set of its own.
func DefaultEngineFactory(v *EngineView) (engine.Engine, error) {
	if v.fsys == nil {
		return nil, errors.New("view: default engine needs a template filesystem")
	}
	set, err := pongo.NewSet(pongo.WithFS(v.fsys))
	if err != nil {
		return nil, err
	}
	return pongo.New(set), nil
}

// PongoFactory builds pongo engines that share set, so compiled templates are
// reused across views.
func PongoFactory(set *pongo.Set, options ...pongo.Option) EngineFactory {
	return func(*EngineView) (engine.Engine, error) {
		if set == nil {
			return nil, errors.New("view: pongo set is nil")
		}
		return pongo.New(set, options...), nil
	}
}

// EngineView renders a named template through its engine, then every wrapper
// the engine reports, then the engine layout. Each stage replaces the engine
// content the next stage reads.
type EngineView struct {
	*Base

	engine  engine.Engine
	factory EngineFactory
}

// Ensure EngineView satisfies the view contract engines rely on.
var _ engine.View = (*EngineView)(nil)

// New constructs an EngineView. Collaborators that are not configured fall
// back to defaults: a filesystem locator over WithFS, the default pongo
// engine, a discard logger, the global tracer provider and no metrics.
func New(options ...Option) *EngineView {
	v := &EngineView{Base: newBase()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	v.applyDefaults()
	return v
}

func (v *EngineView) applyDefaults() {
	if v.locator == nil && v.fsys != nil {
		v.locator = template.NewFSLocator(v.fsys)
	}
	if v.factory == nil {
		v.factory = DefaultEngineFactory
	}
	if v.logger == nil {
		v.logger = slog.New(slog.DiscardHandler)
	}
	if v.tracer == nil {
		v.tracer = otel.Tracer(instrumentationName)
	}
	if v.metrics == nil {
		v.metrics = metrics.Nop{}
	}
	if v.now == nil {
		v.now = time.Now
	}
}

// Engine returns the bound engine, building and binding one through the
// factory on first use.
func (v *EngineView) Engine() (engine.Engine, error) {
	if v.engine != nil {
		return v.engine, nil
	}

	e, err := v.factory(v)
	if err != nil {
		return nil, fmt.Errorf("view: build engine: %w", err)
	}
	if e == nil {
		return nil, errors.New("view: engine factory returned nil")
	}

	v.SetEngine(e)
	return e, nil
}

// SetEngine binds e to the view, replacing any previous engine.
func (v *EngineView) SetEngine(e engine.Engine) *EngineView {
	e.SetView(v)
	v.engine = e
	return v
}

// Render renders the template name and its wrappers and layout. Private
// templates are looked up as Closed, public ones as Open. The result is
// memoized per name and privacy until FlushCache.
func (v *EngineView) Render(ctx context.Context, name string, private bool) (string, error) {
	key := memoKey{op: opRender, name: name, private: private}
	return v.cache(key, func() (string, error) {
		return v.render(ctx, name, private)
	})
}

func (v *EngineView) render(ctx context.Context, name string, private bool) (out string, err error) {
	ctx, span := v.tracer.Start(ctx, "view.Render", trace.WithAttributes(
		attribute.String("goview.template", name),
		attribute.Bool("goview.private", private),
	))
	defer func() {
		endSpan(span, err)
	}()

	kind := template.Open
	if private {
		kind = template.Closed
	}

	evt, err := v.emit(ctx, v, event.Event{Name: event.Rendering, Template: name, Kind: kind})
	if err != nil {
		return "", err
	}
	name = evt.Template

	eng, err := v.Engine()
	if err != nil {
		return "", err
	}

	if _, err := v.RenderLoop(ctx, name, kind); err != nil {
		return "", err
	}
	for _, wrapper := range eng.Wrappers() {
		if _, err := v.RenderLoop(ctx, wrapper, template.Wrapper); err != nil {
			return "", err
		}
	}
	if layout := eng.Layout(); layout != "" {
		if _, err := v.RenderLoop(ctx, layout, template.Layout); err != nil {
			return "", err
		}
	}

	evt, err = v.emit(ctx, v, event.Event{Name: event.Rendered, Template: name, Kind: kind, Content: eng.Content()})
	if err != nil {
		return "", err
	}
	return evt.Content, nil
}

// RenderLoop runs a single stage: it announces the stage, locates name for
// kind, renders it with the view variables and stores the output as the
// engine content before announcing the rendered stage. Listeners of the rendering event may rewrite the template
// name or the kind used for lookup; listeners of the rendered event may
// rewrite the content.
func (v *EngineView) RenderLoop(ctx context.Context, name string, kind template.Kind) (_ *EngineView, err error) {
	start := time.Now()
	ctx, span := v.tracer.Start(ctx, "view.RenderLoop", trace.WithAttributes(
		attribute.String("goview.template", name),
		attribute.String("goview.kind", kind.String()),
	))
	defer func() {
		v.metrics.ObserveStage(kind, time.Since(start), err)
		endSpan(span, err)
	}()

	evt, err := v.emit(ctx, v, event.Event{Name: event.StageRendering(kind), Template: name, Kind: kind})
	if err != nil {
		return nil, err
	}

	eng, err := v.Engine()
	if err != nil {
		return nil, err
	}

	path, err := v.LocateTemplate(evt.Template, evt.Kind)
	if err != nil {
		return nil, fmt.Errorf("view: render stage %s %q: %w", kind.EventSuffix(), evt.Template, err)
	}

	out, err := v.RenderTemplate(ctx, path, v.Variables())
	if err != nil {
		return nil, fmt.Errorf("view: render stage %s %q: %w", kind.EventSuffix(), evt.Template, err)
	}
	v.logger.Debug("view stage rendered",
		slog.String("kind", kind.String()),
		slog.String("template", evt.Template),
		slog.String("path", path),
	)

	eng.SetContent(out)
	done, err := v.emit(ctx, v, event.Event{Name: event.StageRendered(kind), Template: evt.Template, Kind: evt.Kind, Content: out})
	if err != nil {
		return nil, err
	}
	if done.Content != out {
		eng.SetContent(done.Content)
	}
	return v, nil
}

// RenderTemplate renders the template at path with vars. When vars holds a
// truthy cache value and the view has storage, the output is cached under
// the md5 of path with the expiry cache describes, and a stored value is
// returned without calling the engine. The expiry is only parsed when a new
// entry is written.
//
// The cache key is the path alone: variables are not part of it, so a cached
// template returns the same output whatever vars it is rendered with until
// the entry expires.
func (v *EngineView) RenderTemplate(ctx context.Context, path string, vars *template.Vars) (string, error) {
	eng, err := v.Engine()
	if err != nil {
		return "", err
	}

	expires, _ := vars.Get(template.CacheKey)
	cached := truthy(expires) && v.storage != nil
	if !cached {
		return eng.Render(ctx, path, vars)
	}

	key := storage.Key(path)
	content, ok, err := v.storage.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("view: storage get %q: %w", path, err)
	}
	hit := ok && content != ""
	v.metrics.StorageLookup(hit)
	if hit {
		v.logger.Debug("view cache hit", slog.String("path", path), slog.String("key", key))
		return content, nil
	}

	out, err := eng.Render(ctx, path, vars)
	if err != nil {
		return "", err
	}
	expiresAt, err := storage.ParseExpiry(expires, v.now())
	if err != nil {
		return "", fmt.Errorf("view: cache expiry for %q: %w", path, err)
	}
	if err := v.storage.Set(ctx, key, out, expiresAt); err != nil {
		return "", fmt.Errorf("view: storage set %q: %w", path, err)
	}
	v.logger.Debug("view cache stored",
		slog.String("path", path),
		slog.String("key", key),
		slog.Time("expires_at", expiresAt),
	)
	return out, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// truthy reports whether a cache variable asks for caching. Empty strings,
// "0", false, zero numbers and zero times do not.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	case time.Time:
		return !v.IsZero()
	case time.Duration:
		return v != 0
	}
	if n, err := cast.ToFloat64E(value); err == nil {
		return n != 0
	}
	return true
}
