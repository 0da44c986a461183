package facet

import "github.com/okian/playmedia/internal/domain/model"

// Definition declares a facet: how to read its value and how to label it.
type Definition struct {
	Key     string
	Label   string
	Extract Extractor
	// Display labels the option an entity contributes. Nil means the value
	// is its own label.
	Display func(model.Entity) string
}

// Option is a single choice in a facet picker.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Descriptor is the renderable form of a facet and its current options.
type Descriptor struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// Extractors indexes the extractors of defs by key.
func Extractors(defs []Definition) map[string]Extractor {
	out := make(map[string]Extractor, len(defs))
	for _, d := range defs {
		out[d.Key] = d.Extract
	}
	return out
}

// Describe builds one descriptor per definition, in definition order, with
// options derived from eligible.
func Describe(eligible model.Collection, defs []Definition) []Descriptor {
	out := make([]Descriptor, 0, len(defs))
	for _, d := range defs {
		values := DeriveOptions(eligible, d.Extract)
		labels := labelsFor(eligible, d)
		opts := make([]Option, len(values))
		for i, v := range values {
			label := labels[v]
			if label == "" {
				label = v
			}
			opts[i] = Option{Value: v, Label: label}
		}
		out = append(out, Descriptor{ID: d.Key, Label: d.Label, Options: opts})
	}
	return out
}

// labelsFor maps each value to the first non-empty display label seen for it.
func labelsFor(eligible model.Collection, d Definition) map[string]string {
	labels := make(map[string]string)
	if d.Display == nil || d.Extract == nil {
		return labels
	}
	for i := range eligible {
		v, ok := d.Extract(eligible[i])
		if !ok || v == "" || labels[v] != "" {
			continue
		}
		labels[v] = d.Display(eligible[i])
	}
	return labels
}
