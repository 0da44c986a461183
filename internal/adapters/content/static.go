package content

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/okian/playmedia/internal/domain/model"
)

// Static is a Source over collections loaded once, typically from a fixture
// file. It is safe for concurrent use because nothing mutates it.
type Static struct {
	AthleteList model.Collection `json:"athletes"`
	SportList   model.Collection `json:"sports"`
	MediaList   model.Collection `json:"media"`
}

// LoadFixture reads a JSON document of the form
// {"athletes": [...], "sports": [...], "media": [...]}.
// Entity kinds are filled in from the list they appear in.
func LoadFixture(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var s Static
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	for _, l := range []struct {
		c    model.Collection
		kind model.Kind
	}{{s.AthleteList, model.KindAthlete}, {s.SportList, model.KindSport}, {s.MediaList, model.KindMedia}} {
		for i := range l.c {
			l.c[i].Kind = l.kind
		}
		if err := l.c.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %s: %s: %w", path, l.kind, err)
		}
	}
	return &s, nil
}

// Athletes implements Source.
func (s *Static) Athletes(context.Context) (model.Collection, error) {
	return clone(s.AthleteList), nil
}

// Sports implements Source.
func (s *Static) Sports(context.Context) (model.Collection, error) {
	return clone(s.SportList), nil
}

// Media implements Source.
func (s *Static) Media(context.Context) (model.Collection, error) {
	return clone(s.MediaList), nil
}

func clone(c model.Collection) model.Collection {
	out := make(model.Collection, len(c))
	copy(out, c)
	return out
}
