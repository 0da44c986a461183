// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Kind names the type of content an Entity represents.
type Kind string

// Supported entity kinds.
const (
	KindAthlete Kind = "athlete"
	KindSport   Kind = "sport"
	KindMedia   Kind = "media"
)

// ParseKind converts s into a Kind, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAthlete, KindSport, KindMedia:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// File carries media file metadata.
type File struct {
	URL    string `json:"url"`
	Type   string `json:"type,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Entity is a selectable content record: an athlete, a sport or a media asset.
// Only ID is interpreted by the selection core; the remaining fields are
// payload read by facet extractors and renderers.
type Entity struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	SportID     string `json:"sportId,omitempty"`
	SportName   string `json:"sportName,omitempty"` // resolved from SportID
	Description string `json:"description,omitempty"`
	File        *File  `json:"file,omitempty"`
}

// Collection is an ordered sequence of entities with unique ids.
type Collection []Entity

// IDs returns the entity ids in collection order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i := range c {
		ids[i] = c[i].ID
	}
	return ids
}

// Validate reports the first empty or duplicated id.
func (c Collection) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i := range c {
		id := c[i].ID
		if id == "" {
			return fmt.Errorf("%w: position %d", ErrEmptyID, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// IDSet is a set of entity identifiers. Treat it as immutable once built.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, skipping empty strings.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// IDSetOf collects the ids of c.
func IDSetOf(c Collection) IDSet {
	return NewIDSet(c.IDs()...)
}

// Has reports whether id is a member. A nil set has no members.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int { return len(s) }

// Slice returns the members sorted ascending.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
