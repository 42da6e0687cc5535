package template

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// ErrNotFound is matched by every MissingError.
var ErrNotFound = errors.New("template: not found")

// MissingError reports a template that could not be resolved.
type MissingError struct {
	Name     string
	Kind     Kind
	Searched []string
}

func (e *MissingError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("template: %s template %q does not exist", e.Kind, e.Name)
	}
	return fmt.Sprintf("template: %s template %q does not exist (searched %s)", e.Kind, e.Name, strings.Join(e.Searched, ", "))
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *MissingError) Is(target error) bool {
	return target == ErrNotFound
}

// Locator resolves a template name to a concrete path. Resolution rules may
// differ per kind.
type Locator interface {
	Locate(name string, kind Kind) (string, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(name string, kind Kind) (string, error)

// Locate calls f.
func (f LocatorFunc) Locate(name string, kind Kind) (string, error) {
	return f(name, kind)
}

// LocatorOption configures an FSLocator.
type LocatorOption func(*FSLocator)

// WithPaths replaces the lookup roots searched inside the filesystem.
func WithPaths(paths ...string) LocatorOption {
	return func(l *FSLocator) {
		l.paths = nil
		l.AddPaths(paths...)
	}
}

// WithExtension overrides the template extension (default ".tpl").
func WithExtension(ext string) LocatorOption {
	return func(l *FSLocator) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		l.ext = trimmed
	}
}

// WithLocales enables locale variants: for locale "fr", "index.fr.tpl" is
// tried before "index.tpl". Locales are tried in the given order.
func WithLocales(locales ...string) LocatorOption {
	return func(l *FSLocator) {
		for _, locale := range locales {
			if trimmed := strings.TrimSpace(locale); trimmed != "" {
				l.locales = append(l.locales, trimmed)
			}
		}
	}
}

// FSLocator finds templates inside an fs.FS. Every lookup path holds one
// directory per kind: layouts/, wrappers/, private/ and public/.
type FSLocator struct {
	fsys    fs.FS
	paths   []string
	ext     string
	locales []string
}

// Ensure FSLocator implements Locator.
var _ Locator = (*FSLocator)(nil)

// NewFSLocator constructs a locator over fsys.
func NewFSLocator(fsys fs.FS, options ...LocatorOption) *FSLocator {
	l := &FSLocator{
		fsys: fsys,
		ext:  ".tpl",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	if len(l.paths) == 0 {
		l.paths = []string{"."}
	}
	return l
}

// FS returns the filesystem templates are read from.
func (l *FSLocator) FS() fs.FS {
	return l.fsys
}

// AddPaths appends lookup roots. Duplicates and blank paths are skipped.
func (l *FSLocator) AddPaths(paths ...string) {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		cleaned := cleanRoot(p)
		if slices.Contains(l.paths, cleaned) {
			continue
		}
		l.paths = append(l.paths, cleaned)
	}
}

// Paths returns a copy of the lookup roots.
func (l *FSLocator) Paths() []string {
	return append([]string(nil), l.paths...)
}

// Extension returns the template extension including the leading dot.
func (l *FSLocator) Extension() string {
	return l.ext
}

// Locate returns the first existing candidate for name.
func (l *FSLocator) Locate(name string, kind Kind) (string, error) {
	normalized := NormalizeName(name, l.ext)
	if normalized == "" {
		return "", fmt.Errorf("template: %s template name is required", kind)
	}
	if l.fsys == nil || escapesRoot(normalized) {
		return "", &MissingError{Name: normalized, Kind: kind}
	}

	candidates := l.candidates(normalized, kind)
	for _, candidate := range candidates {
		info, err := fs.Stat(l.fsys, candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate, nil
	}
	return "", &MissingError{Name: normalized, Kind: kind, Searched: candidates}
}

func (l *FSLocator) candidates(name string, kind Kind) []string {
	out := make([]string, 0, len(l.paths)*(len(l.locales)+1))
	for _, root := range l.paths {
		base := path.Join(root, kind.Dir(), name)
		for _, locale := range l.locales {
			if candidate := base + "." + locale + l.ext; fs.ValidPath(candidate) {
				out = append(out, candidate)
			}
		}
		if candidate := base + l.ext; fs.ValidPath(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// NormalizeName converts backslashes, trims surrounding slashes and drops a
// trailing ext so "\\users\\index.tpl" and "users/index" resolve alike.
func NormalizeName(name, ext string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	trimmed = strings.Trim(trimmed, "/")
	if ext != "" {
		trimmed = strings.TrimSuffix(trimmed, ext)
	}
	if trimmed == "" {
		return ""
	}
	return path.Clean(trimmed)
}

// escapesRoot reports whether a normalized name climbs out of the kind
// directory it is joined to.
func escapesRoot(name string) bool {
	return name == ".." || strings.HasPrefix(name, "../")
}

func cleanRoot(p string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return "."
	}
	return path.Clean(trimmed)
}
