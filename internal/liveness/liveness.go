// Package liveness sweeps the signs-of-life set: every observed user gets a
// periodic existence check, and users whose accounts have vanished are
// garbage-collected from the cache together with their tracked content.
package liveness

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacesedan/openmod/internal/cache"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/scheduler"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

const (
	// SweepBatchSize bounds the platform lookups of one sweep invocation.
	SweepBatchSize = 50

	// RecheckInterval is how long a confirmed-alive user stays unchecked.
	RecheckInterval = 24 * time.Hour

	// ContinuationDelay spaces out follow-up batches when one sweep cannot
	// cover the whole backlog.
	ContinuationDelay = 5 * time.Second
)

type Sweeper struct {
	store  store.Store
	reddit reddit.Client
	cache  *cache.Cache
	sched  scheduler.Scheduler
}

func NewSweeper(s store.Store, r reddit.Client, c *cache.Cache, sched scheduler.Scheduler) *Sweeper {
	return &Sweeper{
		store:  s,
		reddit: r,
		cache:  c,
		sched:  sched,
	}
}

// OnCheckSignsOfLife is the sweep job. It probes every user whose recheck
// time has arrived, in batches, rescheduling itself until the backlog is
// clear.
func (s *Sweeper) OnCheckSignsOfLife(ctx context.Context) error {
	due, err := s.store.ZRangeByScore(ctx, store.KeySignsOfLife, float64(temporal.Now()))
	if err != nil {
		return err
	}
	if len(due) == 0 {
		slog.Debug("[Liveness] Nobody is due for a check")
		return nil
	}

	batch := due
	if len(batch) > SweepBatchSize {
		batch = batch[:SweepBatchSize]
	}

	for _, m := range batch {
		if err := s.checkUser(ctx, m.Member); err != nil {
			slog.Error("[Liveness] Check failed",
				slog.String("user", m.Member),
				slog.String("error", err.Error()))
		}
	}

	remaining := len(due) - len(batch)
	slog.Debug("[Liveness] Checked users",
		slog.Int("count", len(batch)),
		slog.Int("remaining", remaining))

	if remaining > 0 {
		s.sched.RunAt(time.Now().Add(ContinuationDelay), func() {
			if err := s.OnCheckSignsOfLife(context.Background()); err != nil {
				slog.Error("[Liveness] Continuation sweep failed",
					slog.String("error", err.Error()))
			}
		})
	}
	return nil
}

func (s *Sweeper) checkUser(ctx context.Context, userID string) error {
	user, err := s.reddit.UserByID(ctx, userID)
	if err == nil && user != nil {
		// still with us, see them again in a day
		return s.store.ZAdd(ctx, store.KeySignsOfLife, store.ZMember{
			Member: userID,
			Score:  float64(temporal.Future(RecheckInterval)),
		})
	}

	slog.Debug("[Liveness] User is gone, collecting their content",
		slog.String("user", userID))
	return s.collect(ctx, userID)
}

// collect removes a vanished user's cached content, their tracking set,
// their own cached entity, and their liveness entry.
func (s *Sweeper) collect(ctx context.Context, userID string) error {
	tracked, err := s.store.ZRangeByScore(ctx, store.KeyTrackingSet(userID), float64(temporal.Future(cache.EntityTTL)))
	if err != nil {
		return err
	}
	for _, m := range tracked {
		if err := s.cache.Delete(ctx, m.Member); err != nil {
			return err
		}
	}

	if err := s.cache.DeleteTrackingSet(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		return err
	}
	return s.store.ZRem(ctx, store.KeySignsOfLife, userID)
}
