// Package service owns the picker sessions and connects them to the content
// source and the form store used by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/okian/playmedia/internal/adapters/content"
	"github.com/okian/playmedia/internal/adapters/repository"
	"github.com/okian/playmedia/internal/domain/candidate"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/types"
	"github.com/okian/playmedia/pkg/logger"
	"github.com/okian/playmedia/pkg/metrics"
)

// OpenRequest describes the picker to open.
type OpenRequest struct {
	Kind  model.Kind          `json:"kind"`
	Field repository.FieldRef `json:"field"`
}

// entry guards one session. HTTP requests for the same session are
// serialized here so the session itself stays lock-free.
type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// Service implements the API dependencies for the picker.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	// Collaborators
	source     content.Source
	forms      repository.FormStore
	ownedForms *repository.MemoryStore

	// Configuration
	maxSessions   int
	sessionTTL    time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the content source candidates are fetched from.
func WithSource(src content.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithForms sets the form store. Without it Start creates an in-memory one.
func WithForms(forms repository.FormStore) Option {
	return func(s *Service) {
		s.forms = forms
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL sets how long an untouched session survives.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithSweepInterval sets how often idle sessions are collected.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:      make(map[string]*entry),
		maxSessions:   1000,
		sessionTTL:    30 * time.Minute,
		sweepInterval: time.Minute,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the collaborators and launches the idle sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting picker service...")

	if s.forms == nil {
		s.ownedForms = repository.NewMemoryStore(ctx)
		s.forms = s.ownedForms
		s.logger.Info(ctx, "using in-memory form store")
	}

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.sweepLoop(ctx)

	s.started = true
	s.logger.Info(ctx, "picker service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop cancels every open session and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping picker service...")

	close(s.stopCh)
	for id, e := range s.sessions {
		e.mu.Lock()
		e.session.Cancel()
		e.mu.Unlock()
		delete(s.sessions, id)
	}
	metrics.UpdateSessionsActive(0)
	if s.ownedForms != nil {
		_ = s.ownedForms.Close()
		s.ownedForms = nil
		s.forms = nil
	}
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info(context.Background(), "picker service stopped")
}

// Forms returns the form store sessions read from and commit into.
func (s *Service) Forms() repository.FormStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forms
}

// Open creates a session for req, excluding what the field already holds,
// and loads its first candidate set.
func (s *Service) Open(ctx context.Context, req OpenRequest) (string, error) {
	if _, err := model.ParseKind(string(req.Kind)); err != nil {
		return "", err
	}
	forms, err := s.formsOrErr()
	if err != nil {
		return "", err
	}
	current, err := forms.Field(ctx, req.Field)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	sess := NewSession(id, req.Kind, req.Field, model.IDSetOf(current))

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("service", "too_many_sessions")
		return "", ErrTooManySessions
	}
	s.sessions[id] = &entry{session: sess, lastUsed: s.now()}
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSessionOpened()
	metrics.UpdateSessionsActive(active)
	s.logger.Debug(ctx, "session opened",
		logger.String("session", id),
		logger.String("kind", string(req.Kind)),
		logger.String("field", req.Field.String()),
		logger.Int("excluded", len(current)),
	)

	if err := s.refresh(ctx, id, false); err != nil && ctx.Err() == nil {
		s.remove(id)
		return "", err
	}
	return id, nil
}

// Refresh fetches a fresh candidate set for the session, bypassing any
// content cache. The fetch runs without holding the session; only the
// latest refresh is installed. Upstream failures degrade to an empty
// candidate set.
func (s *Service) Refresh(ctx context.Context, id string) error {
	return s.refresh(ctx, id, true)
}

func (s *Service) refresh(ctx context.Context, id string, fresh bool) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.session.Closed() {
		e.mu.Unlock()
		return ErrSessionClosed
	}
	token := e.session.BeginRefresh()
	kind := e.session.Kind()
	e.mu.Unlock()

	if fresh {
		s.invalidate(ctx, kind)
	}
	entities, fetchErr := s.fetch(ctx, kind)
	if ctx.Err() != nil {
		e.mu.Lock()
		e.session.Abandon(token)
		e.mu.Unlock()
		return ctx.Err()
	}
	if fetchErr != nil {
		s.logger.Warn(ctx, "candidate fetch failed",
			logger.String("session", id),
			logger.String("kind", string(kind)),
			logger.Error(fetchErr),
		)
	}

	e.mu.Lock()
	applied := e.session.Apply(token, Fetch{Entities: entities, Err: fetchErr})
	e.lastUsed = s.now()
	e.mu.Unlock()

	if !applied {
		s.logger.Debug(ctx, "refresh discarded",
			logger.String("session", id),
			logger.Uint64("token", token),
		)
	}
	return nil
}

// invalidate drops cached collections feeding kind when the source caches.
func (s *Service) invalidate(ctx context.Context, kind model.Kind) {
	inv, ok := s.source.(content.Invalidator)
	if !ok {
		return
	}
	kinds := []model.Kind{kind}
	if kind == model.KindAthlete {
		kinds = append(kinds, model.KindSport)
	}
	for _, k := range kinds {
		if err := inv.Invalidate(ctx, k); err != nil {
			s.logger.Warn(ctx, "cache invalidation failed", logger.String("kind", string(k)), logger.Error(err))
		}
	}
}

// fetch loads the raw candidates for kind. Athletes are fetched together
// with sports so that sport names can be resolved; a failed sports fetch
// leaves names empty.
func (s *Service) fetch(ctx context.Context, kind model.Kind) (model.Collection, error) {
	if kind != model.KindAthlete {
		return content.Fetch(ctx, s.source, kind)
	}

	var athletes, sports model.Collection
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		athletes, err = s.source.Athletes(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		sports, err = s.source.Sports(ctx)
		if err != nil {
			s.logger.Warn(ctx, "sport fetch failed, names left unresolved", logger.Error(err))
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return candidate.ResolveSports(athletes, sports), nil
}

// View renders one page of the session's visible candidates.
func (s *Service) View(id string, page types.Page) (types.SessionView, error) {
	var view types.SessionView
	err := s.withSession(id, func(sess *Session) error {
		view = render(sess, page)
		return nil
	})
	return view, err
}

// SetFacet sets one facet value. An empty value clears it.
func (s *Service) SetFacet(id, key, value string) error {
	return s.withSession(id, func(sess *Session) error {
		return sess.SetFacet(key, value)
	})
}

// SetFacets applies several facet values at once. Unknown keys reject the
// whole update.
func (s *Service) SetFacets(id string, values map[string]string) error {
	return s.withSession(id, func(sess *Session) error {
		before := sess.FacetSelection()
		for k, v := range values {
			if err := sess.SetFacet(k, v); err != nil {
				_ = sess.ResetFacets()
				for bk, bv := range before {
					_ = sess.SetFacet(bk, bv)
				}
				return err
			}
		}
		return nil
	})
}

// ResetFacets clears every facet.
func (s *Service) ResetFacets(id string) error {
	return s.withSession(id, func(sess *Session) error {
		return sess.ResetFacets()
	})
}

// Toggle flips the selection of entityID.
func (s *Service) Toggle(id, entityID string) (types.ToggleResult, error) {
	var res types.ToggleResult
	err := s.withSession(id, func(sess *Session) error {
		if sess.Closed() {
			return ErrSessionClosed
		}
		res.Accepted = sess.Toggle(entityID)
		res.Selected = sess.IsSelected(entityID)
		res.Count = len(sess.Selection())
		res.State = sess.State().String()
		return nil
	})
	return res, err
}

// Commit appends the selection to the session's form field and closes the
// session.
func (s *Service) Commit(ctx context.Context, id string) (types.CommitResult, error) {
	forms, err := s.formsOrErr()
	if err != nil {
		return types.CommitResult{}, err
	}

	var res types.CommitResult
	err = s.withSession(id, func(sess *Session) error {
		committed, err := sess.Commit(func(c model.Collection) error {
			field, err := forms.Append(ctx, sess.Field(), c)
			if err != nil {
				return fmt.Errorf("append to %s: %w", sess.Field(), err)
			}
			res.Field = field
			return nil
		})
		if err != nil {
			return err
		}
		res.Committed = committed
		return nil
	})
	if err != nil {
		return types.CommitResult{}, err
	}

	s.remove(id)
	metrics.RecordSessionCommitted(len(res.Committed))
	s.logger.Info(ctx, "session committed",
		logger.String("session", id),
		logger.Int("entities", len(res.Committed)),
	)
	return res, nil
}

// Cancel discards the session and its selection.
func (s *Service) Cancel(id string) error {
	err := s.withSession(id, func(sess *Session) error {
		sess.Cancel()
		return nil
	})
	if err != nil {
		return err
	}
	s.remove(id)
	metrics.RecordSessionCancelled()
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"maxSessions": s.maxSessions,
		"sessionTTL":  s.sessionTTL.String(),
		"sessions":    len(s.sessions),
	}
	if s.started && s.forms != nil {
		stats["formFields"] = s.forms.Count(context.Background())
	}
	metrics.UpdateSessionsActive(len(s.sessions))
	return stats
}

func (s *Service) formsOrErr() (repository.FormStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.forms, nil
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

func (s *Service) withSession(id string, fn func(*Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = s.now()
	return fn(e.session)
}

func (s *Service) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()
	metrics.UpdateSessionsActive(active)
}

func (s *Service) sweepLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info(ctx, "expired idle sessions", logger.Int("count", n))
			}
		}
	}
}

// Sweep cancels sessions idle for longer than the session TTL and returns
// how many were removed.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.sessionTTL)

	s.mu.Lock()
	var expired []*entry
	for id, e := range s.sessions {
		e.mu.Lock()
		if e.lastUsed.Before(cutoff) {
			e.session.Cancel()
			expired = append(expired, e)
			delete(s.sessions, id)
		}
		e.mu.Unlock()
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for range expired {
		metrics.RecordSessionExpired()
	}
	metrics.UpdateSessionsActive(active)
	return len(expired)
}

func render(sess *Session, page types.Page) types.SessionView {
	page = page.Normalize()
	visible := sess.Visible()
	window := types.Paginate(visible, page)

	items := make([]types.Candidate, len(window))
	for i, e := range window {
		items[i] = types.Candidate{Entity: e, Selected: sess.IsSelected(e.ID)}
	}

	view := types.SessionView{
		ID:         sess.ID(),
		Kind:       sess.Kind(),
		Loading:    sess.Loading(),
		Generation: sess.Generation(),
		Facets:     sess.Facets(),
		Active:     sess.FacetSelection(),
		Eligible:   len(sess.Eligible()),
		Total:      len(visible),
		Page:       page,
		Items:      items,
		Selected:   sess.Selection(),
		State:      sess.State().String(),
	}
	if err := sess.Err(); err != nil {
		view.Error = err.Error()
	}
	return view
}
