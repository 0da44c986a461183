package content

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"github.com/okian/playmedia/internal/adapters/cache"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/pkg/logger"
	"github.com/okian/playmedia/pkg/metrics"
)

const keyPrefix = "content:"

var _ Invalidator = (*Cached)(nil)

// Cached is a cache-aside Source. Cache failures are logged and bypassed.
type Cached struct {
	next   Source
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

// NewCached wraps next with c. A nil logger falls back to the global one.
func NewCached(next Source, c cache.Cache, ttl time.Duration, l logger.Logger) *Cached {
	if l == nil {
		l = logger.Named("content-cache")
	}
	return &Cached{next: next, cache: c, ttl: ttl, logger: l}
}

// Athletes implements Source.
func (c *Cached) Athletes(ctx context.Context) (model.Collection, error) {
	return c.load(ctx, model.KindAthlete, c.next.Athletes)
}

// Sports implements Source.
func (c *Cached) Sports(ctx context.Context) (model.Collection, error) {
	return c.load(ctx, model.KindSport, c.next.Sports)
}

// Media implements Source.
func (c *Cached) Media(ctx context.Context) (model.Collection, error) {
	return c.load(ctx, model.KindMedia, c.next.Media)
}

// Invalidate drops the cached collection for kind.
func (c *Cached) Invalidate(ctx context.Context, kind model.Kind) error {
	return c.cache.Delete(ctx, keyPrefix+string(kind))
}

func (c *Cached) load(ctx context.Context, kind model.Kind, fetch func(context.Context) (model.Collection, error)) (model.Collection, error) {
	key := keyPrefix + string(kind)

	raw, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn(ctx, "cache read failed", logger.String("kind", string(kind)), logger.Error(err))
		metrics.RecordCacheLookup(string(kind), "error")
	case ok:
		var out model.Collection
		if err := sonic.Unmarshal(raw, &out); err == nil {
			metrics.RecordCacheLookup(string(kind), "hit")
			return out, nil
		}
		c.logger.Warn(ctx, "cached entry is corrupt", logger.String("kind", string(kind)))
		metrics.RecordCacheLookup(string(kind), "corrupt")
	default:
		metrics.RecordCacheLookup(string(kind), "miss")
	}

	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := sonic.Marshal(out)
	if err != nil {
		c.logger.Warn(ctx, "encode for cache failed", logger.String("kind", string(kind)), logger.Error(err))
		return out, nil
	}
	if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn(ctx, "cache write failed", logger.String("kind", string(kind)), logger.Error(err))
	}
	return out, nil
}
