package template

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// ThemeLocator resolves templates through a go-theme selection before falling
// back to a base locator. Manifest template keys use the kind directory and
// the normalized name, e.g. "layouts.main" or "public.users/index". Variant
// templates win over the manifest defaults.
type ThemeLocator struct {
	base      Locator
	fsys      fs.FS
	selection *theme.Selection
}

// Ensure ThemeLocator implements Locator.
var _ Locator = (*ThemeLocator)(nil)

// NewThemeLocator wraps base with theme overrides read from selection. Paths
// named by the manifest must exist in fsys to be used.
func NewThemeLocator(base Locator, fsys fs.FS, selection *theme.Selection) *ThemeLocator {
	return &ThemeLocator{base: base, fsys: fsys, selection: selection}
}

// SelectTheme asks selector for a theme/variant pair and wraps base with it.
func SelectTheme(selector theme.ThemeSelector, base Locator, fsys fs.FS, name, variant string) (*ThemeLocator, error) {
	if selector == nil {
		return nil, fmt.Errorf("template: theme selector is required")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("template: select theme %q: %w", name, err)
	}
	return NewThemeLocator(base, fsys, selection), nil
}

// Selection returns the active theme selection.
func (l *ThemeLocator) Selection() *theme.Selection {
	return l.selection
}

// Locate returns the theme override for name when one exists.
func (l *ThemeLocator) Locate(name string, kind Kind) (string, error) {
	if override := l.override(name, kind); override != "" {
		return override, nil
	}
	if l.base == nil {
		return "", &MissingError{Name: name, Kind: kind}
	}
	return l.base.Locate(name, kind)
}

func (l *ThemeLocator) override(name string, kind Kind) string {
	if l.selection == nil || l.selection.Manifest == nil || l.fsys == nil {
		return ""
	}
	key := ThemeKey(name, kind)
	if key == "" {
		return ""
	}

	manifest := l.selection.Manifest
	var candidates []string
	if variant, ok := manifest.Variants[l.selection.Variant]; ok {
		if p := strings.TrimSpace(variant.Templates[key]); p != "" {
			candidates = append(candidates, p)
		}
	}
	if p := strings.TrimSpace(manifest.Templates[key]); p != "" {
		candidates = append(candidates, p)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimPrefix(candidate, "/")
		if !fs.ValidPath(candidate) {
			continue
		}
		if info, err := fs.Stat(l.fsys, candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ThemeKey builds the manifest template key for a name and kind.
func ThemeKey(name string, kind Kind) string {
	normalized := NormalizeName(name, "")
	if normalized == "" {
		return ""
	}
	if dot := strings.LastIndex(normalized, "."); dot > strings.LastIndex(normalized, "/") {
		normalized = normalized[:dot]
	}
	return kind.Dir() + "." + normalized
}

// ManifestSelector selects among a fixed set of theme manifests.
type ManifestSelector struct {
	manifests map[string]*theme.Manifest
	fallback  string
}

// Ensure ManifestSelector implements theme.ThemeSelector.
var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector indexes manifests by name. The first manifest is
// selected when Select is called without a theme name.
func NewManifestSelector(manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, m := range manifests {
		if m == nil || strings.TrimSpace(m.Name) == "" {
			continue
		}
		if s.fallback == "" {
			s.fallback = m.Name
		}
		s.manifests[m.Name] = m
	}
	return s
}

// Select returns the named theme and variant. An empty variant selects the
// manifest defaults; an unknown variant is an error.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.fallback
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("template: unknown theme %q", name)
	}

	variant = strings.TrimSpace(variant)
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("template: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// LoadManifest reads a YAML theme manifest from fsys.
func LoadManifest(fsys fs.FS, name string) (*theme.Manifest, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("template: read theme manifest: %w", err)
	}

	var manifest theme.Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("template: parse theme manifest %q: %w", name, err)
	}
	if strings.TrimSpace(manifest.Name) == "" {
		return nil, errors.New("template: theme manifest name is required")
	}
	return &manifest, nil
}
