// Package capture turns platform notifications into protocol messages and
// queues them for transport. It is only active on instances operating as a
// client; everything here silently ignores notifications otherwise.
package capture

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spacesedan/openmod/internal/dedup"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/scheduler"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// SettingsSource yields the configuration snapshot for one job invocation.
type SettingsSource func(ctx context.Context) models.AppSettings

type Capture struct {
	store    store.Store
	ledger   *dedup.Ledger
	reddit   reddit.Client
	sched    scheduler.Scheduler
	settings SettingsSource
}

func New(s store.Store, ledger *dedup.Ledger, r reddit.Client, sched scheduler.Scheduler, settings SettingsSource) *Capture {
	return &Capture{
		store:    s,
		ledger:   ledger,
		reddit:   r,
		sched:    sched,
		settings: settings,
	}
}

func (c *Capture) enqueue(ctx context.Context, msg models.Message) error {
	member, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.store.ZAdd(ctx, store.KeyTransmissionQueue, store.ZMember{
		Member: string(member),
		Score:  float64(msg.TS),
	})
}

// OnCommentChanged handles comment submissions and edits.
func (c *Capture) OnCommentChanged(ctx context.Context, ev models.CommentEvent) {
	if !c.settings(ctx).IsClient() {
		return
	}

	if ev.Comment == nil || ev.Author == nil || ev.Subreddit == nil {
		slog.Error("[Capture] Unexpectedly encountered malformed comment event")
		return
	}

	duplicated, err := c.ledger.IsDuplicate(ctx, ev.Comment.ID)
	if err != nil {
		slog.Error("[Capture] Duplicate check failed",
			slog.String("id", ev.Comment.ID),
			slog.String("error", err.Error()))
		return
	}
	// edits are exempt: only the initial submission is suppressed
	if ev.IsSubmit() && duplicated {
		slog.Debug("[Capture] Comment submission is a duplicate",
			slog.String("id", ev.Comment.ID))
		return
	}

	ts := ev.Comment.LastModifiedAt
	if ts <= 0 {
		ts = ev.Comment.CreatedAt
	}

	msg := models.Message{
		Type: models.MessageCommentChanged,
		V:    models.ProtocolVersion,
		TID:  ev.Comment.ID,
		SID:  ev.Subreddit.ID,
		TS:   ts,
	}
	if err := c.enqueue(ctx, msg); err != nil {
		slog.Error("[Capture] Failed to queue comment change",
			slog.String("id", ev.Comment.ID),
			slog.String("error", err.Error()))
		return
	}
	slog.Debug("[Capture] Queued comment change", slog.String("id", ev.Comment.ID))
}

// OnPostChanged handles post submissions and edits.
func (c *Capture) OnPostChanged(ctx context.Context, ev models.PostEvent) {
	if !c.settings(ctx).IsClient() {
		return
	}

	if ev.Post == nil || ev.Author == nil || ev.Subreddit == nil {
		slog.Error("[Capture] Unexpectedly encountered malformed post event")
		return
	}

	duplicated, err := c.ledger.IsDuplicate(ctx, ev.Post.ID)
	if err != nil {
		slog.Error("[Capture] Duplicate check failed",
			slog.String("id", ev.Post.ID),
			slog.String("error", err.Error()))
		return
	}
	if ev.IsSubmit() && duplicated {
		slog.Debug("[Capture] Post submission is a duplicate",
			slog.String("id", ev.Post.ID))
		return
	}

	ts := ev.Post.UpdatedAt
	if ts <= 0 {
		ts = ev.Post.CreatedAt
	}

	msg := models.Message{
		Type: models.MessagePostChanged,
		V:    models.ProtocolVersion,
		TID:  ev.Post.ID,
		SID:  ev.Subreddit.ID,
		TS:   ts,
	}
	if err := c.enqueue(ctx, msg); err != nil {
		slog.Error("[Capture] Failed to queue post change",
			slog.String("id", ev.Post.ID),
			slog.String("error", err.Error()))
		return
	}
	slog.Debug("[Capture] Queued post change", slog.String("id", ev.Post.ID))
}

// OnThingDeleted handles content deletions. Only deletions performed by the
// content's own creator are forwarded; moderator removals are covered by
// the mod action path.
func (c *Capture) OnThingDeleted(ctx context.Context, ev models.DeleteEvent) {
	if !c.settings(ctx).IsClient() {
		return
	}

	if ev.Source != models.DeletionSourceUser {
		slog.Debug("[Capture] Deletion was not performed by the creator, looking the other way")
		return
	}

	if ev.Subreddit == nil || (ev.CommentID == "" && ev.PostID == "") {
		slog.Error("[Capture] Unexpectedly encountered malformed deletion event")
		return
	}

	ts := ev.DeletedAt
	if ts <= 0 {
		ts = temporal.Now()
	}

	msg := models.Message{
		V:   models.ProtocolVersion,
		SID: ev.Subreddit.ID,
		TS:  ts,
	}
	if ev.IsComment() {
		msg.Type = models.MessageCommentDelete
		msg.TID = ev.CommentID
	} else {
		msg.Type = models.MessagePostDelete
		msg.TID = ev.PostID
	}

	if err := c.enqueue(ctx, msg); err != nil {
		slog.Error("[Capture] Failed to queue deletion",
			slog.String("id", msg.TID),
			slog.String("error", err.Error()))
		return
	}
	slog.Debug("[Capture] Queued deletion", slog.String("id", msg.TID))
}
