package view

import (
	"io/fs"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-view/pkg/engine"
	"github.com/goliatone/go-view/pkg/event"
	"github.com/goliatone/go-view/pkg/metrics"
	"github.com/goliatone/go-view/pkg/storage"
	"github.com/goliatone/go-view/pkg/template"
)

// Option customises an EngineView.
type Option func(*EngineView)

// WithFS sets the template filesystem. Unless WithLocator is given, templates
// are located in it with the default conventions.
func WithFS(fsys fs.FS) Option {
	return func(v *EngineView) {
		v.fsys = fsys
	}
}

// WithLocator injects a custom template locator.
func WithLocator(locator template.Locator) Option {
	return func(v *EngineView) {
		v.locator = locator
	}
}

// WithStorage enables output caching for templates rendered with a cache
// variable.
func WithStorage(s storage.Storage) Option {
	return func(v *EngineView) {
		v.storage = s
	}
}

// WithEmitter shares an emitter between views.
func WithEmitter(emitter *event.Emitter) Option {
	return func(v *EngineView) {
		if emitter != nil {
			v.emitter = emitter
		}
	}
}

// WithLogger sets the logger used for render diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(v *EngineView) {
		v.logger = logger
	}
}

// WithTracerProvider traces renders with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(v *EngineView) {
		if tp != nil {
			v.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithMetrics reports stage timings and storage lookups to rec.
func WithMetrics(rec metrics.Recorder) Option {
	return func(v *EngineView) {
		v.metrics = rec
	}
}

// WithEngine binds e up front, skipping the factory.
func WithEngine(e engine.Engine) Option {
	return func(v *EngineView) {
		if e != nil {
			v.SetEngine(e)
		}
	}
}

// WithEngineFactory sets the factory used to build the engine on first use.
func WithEngineFactory(factory EngineFactory) Option {
	return func(v *EngineView) {
		v.factory = factory
	}
}

// WithVariables seeds the view variables.
func WithVariables(vars *template.Vars) Option {
	return func(v *EngineView) {
		v.vars.Merge(vars)
	}
}

// WithMemoization toggles the per-view Render memo. It is on by default.
func WithMemoization(enabled bool) Option {
	return func(v *EngineView) {
		v.memoEnabled = enabled
	}
}

// WithClock overrides the time source used to evaluate cache expiry.
func WithClock(now func() time.Time) Option {
	return func(v *EngineView) {
		v.now = now
	}
}
