// Package goview wires template lookup, the pongo engine, output storage and
// logging into ready-to-render views.
//
// For a quick start, New renders a template tree with the default
// conventions:
//
//	v := goview.New(os.DirFS("templates"))
//	html, err := v.Render(ctx, "index", false)
//
// FromConfig builds a Runtime from a config.Config, sharing one template set,
// storage backend and emitter across every view it hands out.
package goview

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/engine/pongo"
	"github.com/goliatone/go-view/pkg/event"
	"github.com/goliatone/go-view/pkg/logging"
	"github.com/goliatone/go-view/pkg/metrics"
	"github.com/goliatone/go-view/pkg/server"
	"github.com/goliatone/go-view/pkg/storage"
	"github.com/goliatone/go-view/pkg/storage/memory"
	"github.com/goliatone/go-view/pkg/storage/redis"
	"github.com/goliatone/go-view/pkg/template"
	"github.com/goliatone/go-view/pkg/view"
)

// New returns a view that locates templates in fsys and renders them with a
// pongo engine of its own.
func New(fsys fs.FS, options ...view.Option) *view.EngineView {
	base := []view.Option{view.WithFS(fsys)}
	return view.New(append(base, options...)...)
}

// RuntimeOption customises FromConfig.
type RuntimeOption func(*Runtime)

// WithFS replaces the template directory named by the configuration.
func WithFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger replaces the logger built from the log configuration.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithMetrics reports every view's stages and storage lookups to rec.
func WithMetrics(rec metrics.Recorder) RuntimeOption {
	return func(r *Runtime) {
		r.metrics = rec
	}
}

// WithTracerProvider traces every view with tp.
func WithTracerProvider(tp trace.TracerProvider) RuntimeOption {
	return func(r *Runtime) {
		r.tracerProvider = tp
	}
}

// WithStorage replaces the storage backend named by the configuration.
func WithStorage(s storage.Storage) RuntimeOption {
	return func(r *Runtime) {
		r.storage = s
	}
}

// WithTemplateFuncs exposes funcs to every template.
func WithTemplateFuncs(funcs map[string]any) RuntimeOption {
	return func(r *Runtime) {
		r.funcs = funcs
	}
}

// Runtime holds the collaborators shared by the views it builds.
type Runtime struct {
	cfg            config.Config
	fsys           fs.FS
	locator        template.Locator
	set            *pongo.Set
	storage        storage.Storage
	emitter        *event.Emitter
	logger         *slog.Logger
	metrics        metrics.Recorder
	tracerProvider trace.TracerProvider
	funcs          map[string]any
	closers        []func() error
}

// FromConfig validates cfg and builds the shared runtime it describes.
func FromConfig(cfg config.Config, opts ...RuntimeOption) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{cfg: cfg, emitter: event.NewEmitter()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.logger == nil {
		r.logger = logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.Log.Level))
	}
	if r.metrics == nil {
		r.metrics = metrics.Nop{}
	}
	if r.fsys == nil {
		r.fsys = os.DirFS(cfg.Templates.Dir)
	}

	locator, err := r.buildLocator()
	if err != nil {
		return nil, err
	}
	r.locator = locator

	setOpts := []pongo.SetOption{pongo.WithFS(r.fsys), pongo.WithDebug(cfg.Engine.Debug)}
	if len(r.funcs) > 0 {
		setOpts = append(setOpts, pongo.WithTemplateFunc(r.funcs))
	}
	set, err := pongo.NewSet(setOpts...)
	if err != nil {
		return nil, fmt.Errorf("goview: template set: %w", err)
	}
	r.set = set

	if r.storage == nil {
		s, err := r.buildStorage()
		if err != nil {
			return nil, err
		}
		r.storage = s
	}

	r.logger.Debug("goview runtime ready",
		slog.String("templates", cfg.Templates.Dir),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("layout", cfg.Engine.Layout),
		slog.Any("wrappers", cfg.Engine.Wrappers),
	)
	return r, nil
}

func (r *Runtime) buildLocator() (template.Locator, error) {
	tc := r.cfg.Templates
	locator := template.NewFSLocator(r.fsys,
		template.WithPaths(tc.Paths...),
		template.WithExtension(tc.Extension),
		template.WithLocales(tc.Locales...),
	)
	if r.cfg.Theme.Manifest == "" {
		return locator, nil
	}

	manifest, err := template.LoadManifest(r.fsys, r.cfg.Theme.Manifest)
	if err != nil {
		return nil, fmt.Errorf("goview: %w", err)
	}
	themed, err := template.SelectTheme(template.NewManifestSelector(manifest), locator, r.fsys, r.cfg.Theme.Name, r.cfg.Theme.Variant)
	if err != nil {
		return nil, fmt.Errorf("goview: %w", err)
	}
	return themed, nil
}

func (r *Runtime) buildStorage() (storage.Storage, error) {
	sc := r.cfg.Storage
	switch sc.Driver {
	case config.DriverMemory:
		store, err := memory.New(sc.Size)
		if err != nil {
			return nil, fmt.Errorf("goview: memory storage: %w", err)
		}
		return store, nil
	case config.DriverRedis:
		store := redis.New(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, redis.WithPrefix(sc.Redis.Prefix))
		r.closers = append(r.closers, store.Close)
		return store, nil
	default:
		return nil, nil
	}
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() config.Config {
	return r.cfg
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Emitter returns the emitter shared by every view. Listeners registered on
// it see the events of all views.
func (r *Runtime) Emitter() *event.Emitter {
	return r.emitter
}

// Storage returns the output cache backend, or nil when caching is off.
func (r *Runtime) Storage() storage.Storage {
	return r.storage
}

// Set returns the shared pongo template set.
func (r *Runtime) Set() *pongo.Set {
	return r.set
}

// NewView returns a fresh view bound to the runtime collaborators. Views keep
// their own variables and memo and must not be shared between goroutines.
func (r *Runtime) NewView(options ...view.Option) *view.EngineView {
	var engineOpts []pongo.Option
	if r.cfg.Engine.Layout != "" {
		engineOpts = append(engineOpts, pongo.WithLayout(r.cfg.Engine.Layout))
	}
	if len(r.cfg.Engine.Wrappers) > 0 {
		engineOpts = append(engineOpts, pongo.WithWrappers(r.cfg.Engine.Wrappers...))
	}

	base := []view.Option{
		view.WithFS(r.fsys),
		view.WithLocator(r.locator),
		view.WithEngineFactory(view.PongoFactory(r.set, engineOpts...)),
		view.WithEmitter(r.emitter),
		view.WithLogger(r.logger),
		view.WithMetrics(r.metrics),
		view.WithTracerProvider(r.tracerProvider),
	}
	if r.storage != nil {
		base = append(base, view.WithStorage(r.storage))
	}
	return view.New(append(base, options...)...)
}

// ViewFactory adapts NewView for the HTTP server, one view per request.
func (r *Runtime) ViewFactory() server.ViewFactory {
	return func(*http.Request) (*view.EngineView, error) {
		return r.NewView(), nil
	}
}

// Close releases storage connections.
func (r *Runtime) Close() error {
	var errs []error
	for _, closer := range r.closers {
		errs = append(errs, closer())
	}
	r.closers = nil
	return errors.Join(errs...)
}
