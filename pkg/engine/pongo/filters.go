package pongo

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	defaultFilters sync.Once
	ugcPolicy      = bluemonday.UGCPolicy()
	strictPolicy   = bluemonday.StrictPolicy()
)

// registerDefaultFilters installs the filters every set relies on. pongo2
// filters are process wide, so registration happens once.
func registerDefaultFilters() {
	defaultFilters.Do(func() {
		for name, fn := range map[string]pongo2.FilterFunction{
			"trim":       filterTrim,
			"lowerfirst": filterLowerFirst,
			"sanitize":   filterSanitize,
		} {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterLowerFirst lowercases the first non-space rune.
func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	s := in.String()
	idx := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) })
	if idx < 0 {
		return pongo2.AsValue(s), nil
	}
	r, size := utf8.DecodeRuneInString(s[idx:])
	return pongo2.AsValue(s[:idx] + string(unicode.ToLower(r)) + s[idx+size:]), nil
}

// filterSanitize strips unsafe markup from user supplied HTML and marks the
// result safe so autoescaping leaves it alone. {{ body|sanitize:"strict" }}
// removes every tag.
func filterSanitize(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsSafeValue(""), nil
	}
	policy := ugcPolicy
	if param != nil && param.String() == "strict" {
		policy = strictPolicy
	}
	return pongo2.AsSafeValue(policy.Sanitize(in.String())), nil
}
