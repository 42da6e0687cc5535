package template

import (
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CacheKey is the reserved variable holding a cache expiry expression.
const CacheKey = "cache"

// Vars is an insertion-ordered variable map handed to every template render.
// A nil *Vars behaves as an empty, read-only map.
type Vars struct {
	values *orderedmap.OrderedMap[string, any]
}

// NewVars returns an empty variable map.
func NewVars() *Vars {
	return &Vars{values: orderedmap.New[string, any]()}
}

// VarsFrom copies a plain map into a Vars. Keys are inserted in sorted order so
// the result is deterministic.
func VarsFrom(values map[string]any) *Vars {
	out := NewVars()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		out.Set(key, values[key])
	}
	return out
}

// Set stores value under key, keeping the original position when the key
// already exists. Blank keys are ignored.
func (v *Vars) Set(key string, value any) *Vars {
	key = strings.TrimSpace(key)
	if key == "" {
		return v
	}
	if v.values == nil {
		v.values = orderedmap.New[string, any]()
	}
	v.values.Set(key, value)
	return v
}

// Get returns the value stored under key.
func (v *Vars) Get(key string) (any, bool) {
	if v == nil || v.values == nil {
		return nil, false
	}
	return v.values.Get(key)
}

// Has reports whether key is present.
func (v *Vars) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Delete removes key.
func (v *Vars) Delete(key string) {
	if v == nil || v.values == nil {
		return
	}
	v.values.Delete(key)
}

// Len returns the number of variables.
func (v *Vars) Len() int {
	if v == nil || v.values == nil {
		return 0
	}
	return v.values.Len()
}

// Keys returns the keys in insertion order.
func (v *Vars) Keys() []string {
	keys := make([]string, 0, v.Len())
	v.Each(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each walks the variables in insertion order until fn returns false.
func (v *Vars) Each(fn func(key string, value any) bool) {
	if v == nil || v.values == nil || fn == nil {
		return
	}
	for pair := v.values.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Merge copies every variable of other into v, overwriting existing keys.
func (v *Vars) Merge(other *Vars) *Vars {
	other.Each(func(key string, value any) bool {
		v.Set(key, value)
		return true
	})
	return v
}

// Clone returns a shallow copy.
func (v *Vars) Clone() *Vars {
	return NewVars().Merge(v)
}

// Map returns the variables as a plain map.
func (v *Vars) Map() map[string]any {
	out := make(map[string]any, v.Len())
	v.Each(func(key string, value any) bool {
		out[key] = value
		return true
	})
	return out
}
