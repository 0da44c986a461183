// Package candidate builds the eligible candidate set for a picker session.
package candidate

import "github.com/okian/playmedia/internal/domain/model"

// Prepare returns the entities of raw whose id is not in exclusions, in their
// original order. raw is never modified and the result is never nil.
func Prepare(raw model.Collection, exclusions model.IDSet) model.Collection {
	out := make(model.Collection, 0, len(raw))
	for i := range raw {
		if exclusions.Has(raw[i].ID) {
			continue
		}
		out = append(out, raw[i])
	}
	return out
}

// ResolveSports returns copies of athletes with SportName filled in from the
// sport whose id matches SportID. Athletes referencing an unknown sport keep
// an empty SportName.
func ResolveSports(athletes, sports model.Collection) model.Collection {
	names := make(map[string]string, len(sports))
	for i := range sports {
		names[sports[i].ID] = sports[i].Name
	}

	out := make(model.Collection, len(athletes))
	for i := range athletes {
		a := athletes[i]
		a.SportName = names[a.SportID]
		out[i] = a
	}
	return out
}
