// Package facet narrows candidate sets by independently chosen facet values
// and derives the option lists shown in facet pickers.
//
// Everything here is a pure function of its inputs and safe to call on every
// re-evaluation.
package facet

import (
	"sort"

	"github.com/okian/playmedia/internal/domain/model"
)

// Extractor reads a facet value from an entity. It returns false when the
// value cannot be computed, for example when the field is missing.
type Extractor func(model.Entity) (string, bool)

// Selection maps a facet key to its chosen value. An absent key or an empty
// value imposes no constraint.
type Selection map[string]string

// With returns a copy of s with key set to value.
func (s Selection) With(key, value string) Selection {
	out := make(Selection, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[key] = value
	return out
}

// Active returns the keys that carry a non-empty value, sorted.
func (s Selection) Active() []string {
	keys := make([]string, 0, len(s))
	for k, v := range s {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Filter keeps the entities of eligible that match every active facet of
// selection. A facet whose extractor is missing, or cannot compute a value
// for an entity, does not match. Order is preserved.
func Filter(eligible model.Collection, selection Selection, extractors map[string]Extractor) model.Collection {
	active := selection.Active()
	if len(active) == 0 {
		out := make(model.Collection, len(eligible))
		copy(out, eligible)
		return out
	}

	out := make(model.Collection, 0, len(eligible))
	for i := range eligible {
		if matches(eligible[i], active, selection, extractors) {
			out = append(out, eligible[i])
		}
	}
	return out
}

func matches(e model.Entity, active []string, selection Selection, extractors map[string]Extractor) bool {
	for _, key := range active {
		extract, ok := extractors[key]
		if !ok || extract == nil {
			return false
		}
		v, ok := extract(e)
		if !ok || v == "" || v != selection[key] {
			return false
		}
	}
	return true
}

// DeriveOptions returns the distinct values extract produces over eligible,
// in order of first appearance. Entities without a value are skipped.
func DeriveOptions(eligible model.Collection, extract Extractor) []string {
	if extract == nil {
		return []string{}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := range eligible {
		v, ok := extract(eligible[i])
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
