package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/pkg/metrics"
)

// MemoryStore is an in-memory FormStore. Values are copied on the way in and
// out so callers never share backing arrays with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	fields map[FieldRef]model.Collection
	closed bool

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a store and starts its metrics updater, which
// runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		fields:                make(map[FieldRef]model.Collection),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updateMetrics()
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.stopChan)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// Field implements FormStore.
func (s *MemoryStore) Field(_ context.Context, ref FieldRef) (model.Collection, error) {
	if err := ref.Validate(); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_field")
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return clone(s.fields[ref]), nil
}

// Set implements FormStore.
func (s *MemoryStore) Set(_ context.Context, ref FieldRef, value model.Collection) error {
	if err := ref.Validate(); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_field")
		return err
	}
	if err := value.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(value) == 0 {
		delete(s.fields, ref)
	} else {
		s.fields[ref] = clone(value)
	}
	metrics.RecordFormWrite("set")
	return nil
}

// Append implements FormStore.
func (s *MemoryStore) Append(_ context.Context, ref FieldRef, items model.Collection) (model.Collection, error) {
	if err := ref.Validate(); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_field")
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	cur := s.fields[ref]
	seen := model.IDSetOf(cur)
	next := clone(cur)
	for _, e := range items {
		if e.ID == "" || seen.Has(e.ID) {
			continue
		}
		seen[e.ID] = struct{}{}
		next = append(next, e)
	}
	if len(next) > 0 {
		s.fields[ref] = next
	}
	metrics.RecordFormWrite("append")
	return clone(next), nil
}

// Count implements FormStore.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	n := len(s.fields)
	s.mu.RUnlock()
	metrics.UpdateFormFields(n)
}

func clone(c model.Collection) model.Collection {
	out := make(model.Collection, len(c))
	copy(out, c)
	return out
}
