// Package soak drives a running picker service through complete editing
// sessions and checks that every commit lands in its form field.
package soak

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	service "github.com/okian/playmedia/internal/app"
	"github.com/okian/playmedia/internal/adapters/repository"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/types"
	"github.com/okian/playmedia/pkg/logger"
)

// ErrMismatch means a form field did not hold what its session committed.
var ErrMismatch = errors.New("committed selection not found in field")

// Config holds configuration for a soak run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Sessions int           // Number of picker sessions to run
	Workers  int           // Number of concurrent workers
	Picks    int           // Candidates toggled per session
	Timeout  time.Duration // HTTP request timeout
	Kind     model.Kind    // Entity kind to pick
	Verbose  bool          // Log every session
}

// Stats holds run statistics.
type Stats struct {
	Sessions  int
	Committed int
	Cancelled int
	Failed    int
	Toggles   int
	Entities  int
	Duration  time.Duration
}

type counters struct {
	committed, cancelled, failed, toggles, entities atomic.Int64
}

// Run executes cfg.Sessions sessions against cfg.BaseURL. Every fourth
// session is cancelled instead of committed and must leave its field empty.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Named("soak")
	start := time.Now()
	if cfg.Kind == "" {
		cfg.Kind = model.KindAthlete
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	log.Info(ctx, "starting soak run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.String("kind", string(cfg.Kind)),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405")
	var c counters
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(cfg.Workers)
	for i := 0; i < cfg.Sessions; i++ {
		p.Go(func(ctx context.Context) error {
			ref := repository.FieldRef{
				ContentType: repository.ContentEvent,
				ContentID:   fmt.Sprintf("soak-%s-%d", runID, i),
				Key:         string(cfg.Kind),
			}
			err := runSession(ctx, client, cfg, ref, i%4 == 3, &c)
			if err != nil {
				c.failed.Add(1)
				log.Warn(ctx, "session failed", logger.String("field", ref.String()), logger.Error(err))
				return err
			}
			if cfg.Verbose {
				log.Debug(ctx, "session done", logger.String("field", ref.String()))
			}
			return nil
		})
	}
	err := p.Wait()

	stats := Stats{
		Sessions:  cfg.Sessions,
		Committed: int(c.committed.Load()),
		Cancelled: int(c.cancelled.Load()),
		Failed:    int(c.failed.Load()),
		Toggles:   int(c.toggles.Load()),
		Entities:  int(c.entities.Load()),
		Duration:  time.Since(start),
	}
	displayFinalStats(ctx, log, stats)
	return stats, err
}

func runSession(ctx context.Context, client *Client, cfg Config, ref repository.FieldRef, cancel bool, c *counters) error {
	id, err := client.Open(ctx, service.OpenRequest{Kind: cfg.Kind, Field: ref})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	view, err := client.View(ctx, id, types.Page{})
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}

	// Narrow by the first option of the first facet that has one.
	for _, d := range view.Facets {
		if len(d.Options) == 0 {
			continue
		}
		if view, err = client.SetFacets(ctx, id, map[string]string{d.ID: d.Options[0].Value}); err != nil {
			return fmt.Errorf("set facet: %w", err)
		}
		break
	}

	var picked []string
	for _, it := range view.Items {
		if len(picked) == cfg.Picks {
			break
		}
		res, err := client.Toggle(ctx, id, it.ID)
		if err != nil {
			return fmt.Errorf("toggle: %w", err)
		}
		c.toggles.Add(1)
		if res.Accepted && res.Selected {
			picked = append(picked, it.ID)
		}
	}

	if _, err := client.ResetFacets(ctx, id); err != nil {
		return fmt.Errorf("reset facets: %w", err)
	}

	if cancel {
		if err := client.Cancel(ctx, id); err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
		c.cancelled.Add(1)
		return verifyField(ctx, client, ref, nil)
	}

	res, err := client.Commit(ctx, id)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.committed.Add(1)
	c.entities.Add(int64(len(res.Committed)))
	return verifyField(ctx, client, ref, res.Committed.IDs())
}

// verifyField checks that ref holds exactly want, in order.
func verifyField(ctx context.Context, client *Client, ref repository.FieldRef, want []string) error {
	got, err := client.Field(ctx, ref)
	if err != nil {
		return fmt.Errorf("read field: %w", err)
	}
	if ids := got.IDs(); !slices.Equal(ids, want) {
		return fmt.Errorf("%w: %s holds %v, committed %v", ErrMismatch, ref, ids, want)
	}
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats Stats) {
	var sessionsPerSecond float64
	if stats.Duration > 0 {
		sessionsPerSecond = float64(stats.Sessions) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("sessions", stats.Sessions),
		logger.Int("committed", stats.Committed),
		logger.Int("cancelled", stats.Cancelled),
		logger.Int("failed", stats.Failed),
		logger.Int("toggles", stats.Toggles),
		logger.Int("entities", stats.Entities),
		logger.Duration("duration", stats.Duration),
		logger.Float64("sessionsPerSecond", sessionsPerSecond),
	)
}
