// Package selection tracks the multi-select toggle set of a picker session.
package selection

import (
	"sort"

	"github.com/okian/playmedia/internal/domain/model"
)

// State is the coarse state of a Tracker.
type State int

// Tracker states. There is no distinguished "all selected" state.
const (
	Empty State = iota
	Partial
)

func (s State) String() string {
	if s == Partial {
		return "partial"
	}
	return "empty"
}

// Tracker holds the ids toggled on by the user. Choices are stored against
// the full eligible set, so a selection survives facet changes that hide it.
//
// A Tracker is owned by a single session and is not safe for concurrent use.
type Tracker struct {
	eligible model.IDSet
	chosen   map[string]struct{}
}

// NewTracker creates an empty tracker accepting ids from eligible.
func NewTracker(eligible model.IDSet) *Tracker {
	return &Tracker{
		eligible: eligible,
		chosen:   make(map[string]struct{}),
	}
}

// Toggle flips the membership of id and reports whether the toggle was
// accepted. Ids outside the eligible set are ignored: a stale UI event for
// an item that is no longer eligible must not corrupt the selection.
func (t *Tracker) Toggle(id string) bool {
	if !t.eligible.Has(id) {
		return false
	}
	if _, ok := t.chosen[id]; ok {
		delete(t.chosen, id)
	} else {
		t.chosen[id] = struct{}{}
	}
	return true
}

// Clear empties the selection.
func (t *Tracker) Clear() {
	clear(t.chosen)
}

// IsSelected reports whether id is toggled on.
func (t *Tracker) IsSelected(id string) bool {
	_, ok := t.chosen[id]
	return ok
}

// Len returns the number of selected ids.
func (t *Tracker) Len() int { return len(t.chosen) }

// State returns Empty when nothing is selected and Partial otherwise.
func (t *Tracker) State() State {
	if len(t.chosen) == 0 {
		return Empty
	}
	return Partial
}

// Selected returns the selected ids, sorted.
func (t *Tracker) Selected() []string {
	out := make([]string, 0, len(t.chosen))
	for id := range t.chosen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Commit returns the entities of entities that are selected, in the order
// they appear in entities. It does not modify the tracker.
func (t *Tracker) Commit(entities model.Collection) model.Collection {
	out := make(model.Collection, 0, len(t.chosen))
	for i := range entities {
		if _, ok := t.chosen[entities[i].ID]; ok {
			out = append(out, entities[i])
		}
	}
	return out
}

// Rebase swaps in a new eligible set and drops selected ids that are no
// longer part of it. It returns the number of ids dropped.
func (t *Tracker) Rebase(eligible model.IDSet) int {
	t.eligible = eligible
	dropped := 0
	for id := range t.chosen {
		if !eligible.Has(id) {
			delete(t.chosen, id)
			dropped++
		}
	}
	return dropped
}
