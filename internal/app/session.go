package service

import (
	"fmt"

	"github.com/okian/playmedia/internal/adapters/repository"
	"github.com/okian/playmedia/internal/domain/candidate"
	"github.com/okian/playmedia/internal/domain/facet"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/selection"
	"github.com/okian/playmedia/pkg/metrics"
)

// Fetch is a completed data fetch as delivered to a Session.
type Fetch struct {
	Entities model.Collection
	Err      error
}

// Session is one picker screen: a candidate set, the facets narrowing it and
// the selection being built. It is owned by a single actor and holds no lock.
type Session struct {
	id         string
	kind       model.Kind
	field      repository.FieldRef
	exclusions model.IDSet
	defs       []facet.Definition
	extractors map[string]facet.Extractor

	// issued is the last refresh token handed out; generation counts
	// installed fetches and doubles as the eligible set version.
	issued     uint64
	generation uint64
	loading    bool
	err        error
	closed     bool

	eligible model.Collection
	tracker  *selection.Tracker

	facets       facet.Selection
	facetVersion uint64

	descriptors    []facet.Descriptor
	descriptorsFor uint64

	visible    model.Collection
	visibleFor [2]uint64
	visibleOK  bool
}

// NewSession creates an open session with an empty candidate set.
// exclusions are the ids already attached to field.
func NewSession(id string, kind model.Kind, field repository.FieldRef, exclusions model.IDSet) *Session {
	defs := facet.ForKind(kind)
	return &Session{
		id:             id,
		kind:           kind,
		field:          field,
		exclusions:     exclusions,
		defs:           defs,
		extractors:     facet.Extractors(defs),
		eligible:       model.Collection{},
		tracker:        selection.NewTracker(model.IDSet{}),
		facets:         facet.Selection{},
		descriptorsFor: ^uint64(0),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Kind returns the kind of entity being picked.
func (s *Session) Kind() model.Kind { return s.kind }

// Field returns the form field the session commits into.
func (s *Session) Field() repository.FieldRef { return s.field }

// Closed reports whether the session was committed or cancelled.
func (s *Session) Closed() bool { return s.closed }

// Loading reports whether a refresh is in flight.
func (s *Session) Loading() bool { return s.loading }

// Err returns the error of the last installed fetch, if any.
func (s *Session) Err() error { return s.err }

// Generation returns the number of fetches installed so far.
func (s *Session) Generation() uint64 { return s.generation }

// BeginRefresh marks a refresh as in flight and returns the token the result
// must be applied with. Issuing a new token makes every older one stale.
func (s *Session) BeginRefresh() uint64 {
	s.issued++
	if !s.closed {
		s.loading = true
	}
	return s.issued
}

// Abandon ends the refresh identified by token without installing anything.
// The current candidates stay in place.
func (s *Session) Abandon(token uint64) {
	if token == s.issued {
		s.loading = false
	}
	metrics.RecordRefresh("discarded")
}

// Apply installs f if token is the latest issued and the session is still
// open. It reports whether f was installed. A fetch carrying an error is
// installed as an empty collection. Selected ids that are no longer eligible
// are dropped.
func (s *Session) Apply(token uint64, f Fetch) bool {
	if s.closed || token != s.issued {
		metrics.RecordRefresh("discarded")
		return false
	}

	raw := f.Entities
	s.err = f.Err
	if f.Err != nil {
		raw = nil
		metrics.RecordRefresh("error")
	} else {
		metrics.RecordRefresh("ok")
	}

	s.generation++
	s.eligible = candidate.Prepare(raw, s.exclusions)
	s.tracker.Rebase(model.IDSetOf(s.eligible))
	s.loading = false
	return true
}

// Eligible returns the candidates left after exclusions. Callers must not
// modify the returned collection.
func (s *Session) Eligible() model.Collection { return s.eligible }

// FacetSelection returns a copy of the active facet values.
func (s *Session) FacetSelection() facet.Selection {
	out := make(facet.Selection, len(s.facets))
	for k, v := range s.facets {
		out[k] = v
	}
	return out
}

// SetFacet sets the value of one facet. An empty value clears it.
func (s *Session) SetFacet(key, value string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.extractors[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFacet, key)
	}
	if s.facets[key] == value {
		return nil
	}
	if value == "" {
		next := s.FacetSelection()
		delete(next, key)
		s.facets = next
	} else {
		s.facets = s.facets.With(key, value)
	}
	s.facetVersion++
	return nil
}

// ResetFacets clears every facet.
func (s *Session) ResetFacets() error {
	if s.closed {
		return ErrSessionClosed
	}
	if len(s.facets) == 0 {
		return nil
	}
	s.facets = facet.Selection{}
	s.facetVersion++
	return nil
}

// Visible returns the eligible candidates matching the active facets. The
// result is recomputed only when the eligible set or the facets changed.
// Callers must not modify it.
func (s *Session) Visible() model.Collection {
	key := [2]uint64{s.generation, s.facetVersion}
	if s.visibleOK && s.visibleFor == key {
		return s.visible
	}
	s.visible = facet.Filter(s.eligible, s.facets, s.extractors)
	s.visibleFor = key
	s.visibleOK = true
	metrics.RecordFacetEvaluation(len(s.visible))
	return s.visible
}

// Facets describes every facet with options derived from the eligible set.
// Descriptors are rebuilt only when the eligible set changes.
func (s *Session) Facets() []facet.Descriptor {
	if s.descriptorsFor == s.generation {
		return s.descriptors
	}
	s.descriptors = facet.Describe(s.eligible, s.defs)
	s.descriptorsFor = s.generation
	return s.descriptors
}

// IsSelected reports whether id is toggled on.
func (s *Session) IsSelected(id string) bool { return s.tracker.IsSelected(id) }

// Toggle flips the selection of id and reports whether it was accepted. Ids
// outside the eligible set, and toggles on a closed session, are ignored.
func (s *Session) Toggle(id string) bool {
	if s.closed {
		metrics.RecordToggle(false)
		return false
	}
	ok := s.tracker.Toggle(id)
	metrics.RecordToggle(ok)
	return ok
}

// Selection returns the selected ids, sorted.
func (s *Session) Selection() []string { return s.tracker.Selected() }

// State returns the coarse selection state.
func (s *Session) State() selection.State { return s.tracker.State() }

// Commit hands the selected entities, in eligible order, to accept and
// closes the session. If accept fails the session stays open.
func (s *Session) Commit(accept func(model.Collection) error) (model.Collection, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	payload := s.tracker.Commit(s.eligible)
	if accept != nil {
		if err := accept(payload); err != nil {
			return nil, err
		}
	}
	s.closed = true
	s.loading = false
	return payload, nil
}

// Cancel discards the selection and closes the session. Results of refreshes
// still in flight will be discarded.
func (s *Session) Cancel() {
	s.tracker.Clear()
	s.closed = true
	s.loading = false
}
