package repository

import (
	"time"

	"github.com/okian/playmedia/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithSeed preloads field values.
func WithSeed(seed map[FieldRef]model.Collection) Option {
	return func(s *MemoryStore) {
		for ref, v := range seed {
			s.fields[ref] = clone(v)
		}
	}
}
