// Package types contains the view shapes returned by the picker service.
package types

import (
	"github.com/okian/playmedia/internal/domain/facet"
	"github.com/okian/playmedia/internal/domain/model"
)

// Paging limits.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Page selects a window of the visible set.
type Page struct {
	Offset int `schema:"offset" json:"offset"`
	Limit  int `schema:"limit,default:50" json:"limit"`
}

// Normalize clamps p to valid bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Paginate returns the window of c selected by p, after normalizing p.
// The result shares no backing array with c.
func Paginate(c model.Collection, p Page) model.Collection {
	p = p.Normalize()
	if p.Offset >= len(c) {
		return model.Collection{}
	}
	end := p.Offset + p.Limit
	if end > len(c) {
		end = len(c)
	}
	out := make(model.Collection, end-p.Offset)
	copy(out, c[p.Offset:end])
	return out
}

// Candidate is a visible entity with its selection flag.
type Candidate struct {
	model.Entity
	Selected bool `json:"selected"`
}

// SessionView is a snapshot of a picker session for rendering.
type SessionView struct {
	ID         string             `json:"id"`
	Kind       model.Kind         `json:"kind"`
	Loading    bool               `json:"loading"`
	Error      string             `json:"error,omitempty"`
	Generation uint64             `json:"generation"`
	Facets     []facet.Descriptor `json:"facets"`
	Active     map[string]string  `json:"active"`
	Eligible   int                `json:"eligible"`
	Total      int                `json:"total"`
	Page       Page               `json:"page"`
	Items      []Candidate        `json:"items"`
	Selected   []string           `json:"selected"`
	State      string             `json:"state"`
}

// ToggleResult reports the outcome of a toggle.
type ToggleResult struct {
	Accepted bool   `json:"accepted"`
	Selected bool   `json:"selected"`
	Count    int    `json:"count"`
	State    string `json:"state"`
}

// CommitResult reports what a commit wrote into the form field.
type CommitResult struct {
	Committed model.Collection `json:"committed"`
	Field     model.Collection `json:"field"`
}
