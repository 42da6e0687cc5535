package pongo

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// SetOption configures a Set before construction.
type SetOption func(*setConfig)

type setConfig struct {
	baseDir    string
	templates  fs.FS
	templateFn map[string]any
	globalData map[string]any
	debug      bool
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) SetOption {
	return func(cfg *setConfig) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) SetOption {
	return func(cfg *setConfig) {
		cfg.templates = files
	}
}

// WithTemplateFunc registers helper functions or filters when the set loads.
// pongo2.FilterFunction values become filters, other functions are exposed as
// globals.
func WithTemplateFunc(funcs map[string]any) SetOption {
	return func(cfg *setConfig) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) SetOption {
	return func(cfg *setConfig) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithDebug disables template caching so edits on disk show up on the next
// render.
func WithDebug(debug bool) SetOption {
	return func(cfg *setConfig) {
		cfg.debug = debug
	}
}

// Set owns the pongo2 template set and the compiled template cache. It is
// safe for concurrent use and is meant to be shared by the engines of many
// views.
type Set struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	debug       bool
}

// NewSet constructs a Set using the provided configuration options.
func NewSet(options ...SetOption) (*Set, error) {
	cfg := &setConfig{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("pongo: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	set := &Set{
		templateSet: pongo2.NewSet("goview", loaders...),
		templates:   make(map[string]*pongo2.Template),
		debug:       cfg.debug,
	}
	set.templateSet.Debug = cfg.debug
	registerDefaultFilters()

	if err := set.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	for name, fn := range cfg.templateFn {
		if err := set.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register template func %q: %w", name, err)
		}
	}

	return set, nil
}

// GlobalContext seeds global data. Call it while configuring, before the set
// serves renders.
func (s *Set) GlobalContext(data map[string]any) error {
	if s == nil || s.templateSet == nil {
		return errors.New("pongo: set is nil")
	}
	if len(data) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.templateSet.Globals == nil {
		s.templateSet.Globals = make(pongo2.Context)
	}
	for key, value := range data {
		if key = strings.TrimSpace(key); key != "" {
			s.templateSet.Globals[key] = value
		}
	}
	return nil
}

// RegisterFilter registers a template filter backed by a plain function.
func (s *Set) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

func (s *Set) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.templateSet.Globals == nil {
		s.templateSet.Globals = make(pongo2.Context)
	}
	s.templateSet.Globals[trimmed] = fn
	return nil
}

// template returns the compiled template for path, compiling it on first use.
func (s *Set) template(path string) (*pongo2.Template, error) {
	if s.debug {
		tmpl, err := s.templateSet.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
		}
		return tmpl, nil
	}

	s.mu.RLock()
	if tmpl, ok := s.templates[path]; ok {
		s.mu.RUnlock()
		return tmpl, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl, ok := s.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := s.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", path, err)
	}

	s.templates[path] = tmpl
	return tmpl, nil
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}
