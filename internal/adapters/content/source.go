// Package content fetches athletes, sports and media from the remote GraphQL
// content service.
package content

import (
	"context"
	"fmt"

	"github.com/okian/playmedia/internal/domain/model"
)

// Source delivers complete entity collections.
type Source interface {
	Athletes(ctx context.Context) (model.Collection, error)
	Sports(ctx context.Context) (model.Collection, error)
	Media(ctx context.Context) (model.Collection, error)
}

// Invalidator is implemented by sources that cache, so callers asking for
// fresh data can drop what is held for a kind.
type Invalidator interface {
	Invalidate(ctx context.Context, kind model.Kind) error
}

// Fetch dispatches to the Source method for kind.
func Fetch(ctx context.Context, src Source, kind model.Kind) (model.Collection, error) {
	switch kind {
	case model.KindAthlete:
		return src.Athletes(ctx)
	case model.KindSport:
		return src.Sports(ctx)
	case model.KindMedia:
		return src.Media(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
}
