// Package pipeline drains the server-side ingestion queue and applies each
// replicated message: content messages feed the entity cache, deletions
// evict from it, mod actions become public extract posts, and settings
// snapshots are stored per reporting community.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spacesedan/openmod/internal/cache"
	"github.com/spacesedan/openmod/internal/dedup"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// DrainBatchSize bounds how many messages one cron invocation works
// through; the remainder is picked up on the next cadence.
const DrainBatchSize = 10

type Pipeline struct {
	store  store.Store
	reddit reddit.Client
	cache  *cache.Cache
	ledger *dedup.Ledger
}

func New(s store.Store, r reddit.Client, c *cache.Cache, ledger *dedup.Ledger) *Pipeline {
	return &Pipeline{
		store:  s,
		reddit: r,
		cache:  c,
		ledger: ledger,
	}
}

// OnProcessQueue is the cron-cadence drain job. Messages are processed in
// timestamp order and removed from the queue once handled; a handler
// failure is logged and the message dropped rather than left to poison the
// queue.
func (p *Pipeline) OnProcessQueue(ctx context.Context) error {
	members, err := p.store.ZRangeByScore(ctx, store.KeyEvents, float64(temporal.Now()))
	if err != nil {
		return err
	}
	if len(members) == 0 {
		slog.Debug("[Pipeline] No events ready for processing")
		return nil
	}

	batch := members
	if len(batch) > DrainBatchSize {
		batch = batch[:DrainBatchSize]
	}

	for _, m := range batch {
		if err := p.dispatch(ctx, m.Member); err != nil {
			slog.Error("[Pipeline] Failed to process event",
				slog.String("error", err.Error()))
		}
		if err := p.store.ZRem(ctx, store.KeyEvents, m.Member); err != nil {
			return err
		}
	}

	slog.Debug("[Pipeline] Processed events",
		slog.Int("count", len(batch)),
		slog.Int("remaining", len(members)-len(batch)))
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, raw string) error {
	var msg models.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		slog.Warn("[Pipeline] Dropping undecodable event",
			slog.String("error", err.Error()))
		return nil
	}

	switch msg.Type {
	case models.MessageCommentChanged:
		return p.handleCommentChanged(ctx, msg)
	case models.MessagePostChanged:
		return p.handlePostChanged(ctx, msg)
	case models.MessageCommentDelete, models.MessagePostDelete:
		return p.handleThingDelete(ctx, msg)
	case models.MessageModAction:
		return p.handleModAction(ctx, msg)
	case models.MessageSettingsUpdated:
		return p.handleSettingsUpdated(ctx, msg)
	default:
		// a newer peer may ship types this build does not know yet
		slog.Debug("[Pipeline] Ignoring event of unknown type",
			slog.String("type", string(msg.Type)))
		return nil
	}
}

// reportingSettings loads the stored snapshot of the community a message
// came from, defaulting when none has arrived yet.
func (p *Pipeline) reportingSettings(ctx context.Context, subredditID string) models.AppSettings {
	fields, err := p.store.HGetAll(ctx, store.KeySettings(subredditID))
	if err != nil || len(fields) == 0 {
		return models.DefaultSettings()
	}

	settings, err := models.SettingsFromHash(fields)
	if err != nil {
		slog.Warn("[Pipeline] Stored settings snapshot is unreadable, using defaults",
			slog.String("sid", subredditID),
			slog.String("error", err.Error()))
		return models.DefaultSettings()
	}
	return settings
}
