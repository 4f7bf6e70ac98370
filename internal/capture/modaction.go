package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/openmod/internal/dedup"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// EnrichmentDelay gives the platform's own audit log time to catch up
// before the action is processed.
const EnrichmentDelay = time.Minute

// OnModAction stages a moderation action and schedules its enrichment.
// The moderation log is not reliably queryable for the target until
// shortly after the action fires, hence the deferral.
func (c *Capture) OnModAction(ctx context.Context, ev models.ModActionEvent) {
	if !c.settings(ctx).IsClient() {
		return
	}

	if ev.Action == "" || ev.Moderator == nil || ev.Subreddit == nil || ev.TargetUser == nil {
		slog.Error("[Capture] Unexpectedly encountered malformed modaction event")
		return
	}

	// mod actions carry no stable id, so one is derived from the payload
	fingerprint, err := dedup.Fingerprint(ev)
	if err != nil {
		slog.Error("[Capture] Failed to fingerprint modaction",
			slog.String("error", err.Error()))
		return
	}

	duplicated, err := c.ledger.IsDuplicate(ctx, fingerprint)
	if err != nil {
		slog.Error("[Capture] Duplicate check failed",
			slog.String("fingerprint", fingerprint),
			slog.String("error", err.Error()))
		return
	}
	if duplicated {
		slog.Debug("[Capture] Modaction is a duplicate",
			slog.String("fingerprint", fingerprint))
		return
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		slog.Error("[Capture] Failed to stage modaction",
			slog.String("error", err.Error()))
		return
	}
	if err := c.store.Set(ctx, store.KeyDelayedModAction(fingerprint), string(raw)); err != nil {
		slog.Error("[Capture] Failed to stage modaction",
			slog.String("error", err.Error()))
		return
	}

	ts := ev.ActionedAt
	if ts <= 0 {
		ts = temporal.Now()
	}

	c.sched.RunAt(time.Now().Add(EnrichmentDelay), func() {
		if err := c.ProcessDelayedModAction(context.Background(), fingerprint, ts); err != nil {
			slog.Error("[Capture] Delayed modaction processing failed",
				slog.String("fingerprint", fingerprint),
				slog.String("error", err.Error()))
		}
	})
	slog.Debug("[Capture] Queued delayed processing of modaction",
		slog.String("fingerprint", fingerprint))
}

// ProcessDelayedModAction loads a staged moderation action, applies the
// policy filters, attaches the moderation log, and queues the message.
// A filter hit drops the event silently, by design.
func (c *Capture) ProcessDelayedModAction(ctx context.Context, fingerprint string, ts int64) error {
	key := store.KeyDelayedModAction(fingerprint)

	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("[Capture] failed to retrieve delayed modaction %s", fingerprint)
	}
	if err := c.store.Del(ctx, key); err != nil {
		return err
	}

	var ev models.ModActionEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return fmt.Errorf("[Capture] failed to decode staged modaction: %w", err)
	}
	if ev.Action == "" || ev.Moderator == nil || ev.Subreddit == nil || ev.TargetUser == nil {
		slog.Error("[Capture] Unexpectedly encountered malformed staged modaction")
		return nil
	}

	action := models.ModActionType(ev.Action)
	if !models.IsSupportedModAction(action) {
		slog.Debug("[Capture] Modaction is not supported for forwarding",
			slog.String("action", ev.Action))
		return nil
	}

	settings := c.settings(ctx)

	moderator := reddit.BasicUserInfoByUsername(ctx, c.reddit, ev.Moderator.Name)
	if !settings.RecordAdminActions && moderator.IsAdmin {
		slog.Debug("[Capture] Modaction by admin is excluded",
			slog.String("moderator", ev.Moderator.Name))
		return nil
	}

	if !settings.RecordAutoModeratorActions && ev.Moderator.Name == "AutoModerator" {
		slog.Debug("[Capture] Modaction by AutoModerator is excluded")
		return nil
	}

	// the exclusion lists are comma-separated and validated at submission
	// time, so containment within the raw string suffices
	if settings.ExcludedModerators != "" && strings.Contains(settings.ExcludedModerators, ev.Moderator.Name) {
		slog.Debug("[Capture] Modaction by excluded moderator",
			slog.String("moderator", ev.Moderator.Name))
		return nil
	}

	if settings.ExcludedUsers != "" &&
		(strings.Contains(settings.ExcludedUsers, ev.TargetUser.Name) ||
			strings.Contains(settings.ExcludedUsers, ev.Moderator.Name)) {
		slog.Debug("[Capture] Modaction on excluded user",
			slog.String("target", ev.TargetUser.Name))
		return nil
	}

	if !settings.AllowsAction(action) {
		slog.Debug("[Capture] Modaction is not in the list of actions to forward",
			slog.String("action", ev.Action))
		return nil
	}

	subredditName, err := c.reddit.CurrentSubredditName(ctx)
	if err != nil || subredditName == "" {
		return fmt.Errorf("[Capture] i couldn't work out where i am - is reddit down?")
	}

	if ev.Moderator.Name == subredditName+"-ModTeam" {
		slog.Debug("[Capture] Modaction by the subreddit mod team is excluded")
		return nil
	}

	tid, err := ModeratedThingID(ctx, c.reddit, ev)
	if err != nil {
		return err
	}
	slog.Debug("[Capture] Got moderated thing id", slog.String("tid", tid))

	logEntries, err := c.moderationLog(ctx, subredditName, tid)
	if err != nil {
		slog.Warn("[Capture] Failed to fetch moderation log",
			slog.String("tid", tid),
			slog.String("error", err.Error()))
	}

	msg := models.Message{
		Type: models.MessageModAction,
		V:    models.ProtocolVersion,
		TID:  tid,
		SID:  ev.Subreddit.ID,
		TS:   ts,
		Sub:  action,
		Mod:  moderator.ID,
		Ctx:  settings.IncludeContext,
		Log:  logEntries,
	}
	if err := c.enqueue(ctx, msg); err != nil {
		return err
	}

	slog.Debug("[Capture] Queued modaction", slog.String("tid", tid))
	return nil
}

func (c *Capture) moderationLog(ctx context.Context, subreddit, thingID string) ([]models.ModLogEntry, error) {
	entries, err := c.reddit.ModerationLog(ctx, subreddit, thingID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ModLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.ModLogEntry{
			Type:          e.Type,
			ModeratorName: e.ModeratorName,
			Details:       e.Details,
			Description:   e.Description,
		})
	}
	return out, nil
}
