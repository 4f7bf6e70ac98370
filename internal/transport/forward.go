package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// settingsHashTTL bounds how long a forwarded settings hash is remembered;
// after it lapses the snapshot is forwarded again on the next cycle.
const settingsHashTTL = time.Hour

// SettingsSource yields the configuration snapshot for one job invocation.
type SettingsSource func(ctx context.Context) models.AppSettings

// Forwarder drains the transmission queue into the destination community's
// events document on a cron cadence.
type Forwarder struct {
	store    store.Store
	reddit   reddit.Client
	settings SettingsSource

	// version is this build's version string, checked against the
	// destination's version document before anything is sent.
	version string

	// homeSubredditID identifies the reporting community on settings
	// messages.
	homeSubredditID string
}

func NewForwarder(s store.Store, r reddit.Client, settings SettingsSource, version, homeSubredditID string) *Forwarder {
	return &Forwarder{
		store:           s,
		reddit:          r,
		settings:        settings,
		version:         version,
		homeSubredditID: homeSubredditID,
	}
}

// hasFeatureParity checks the destination's published version. Sending a
// payload shape the destination cannot parse would strand the batch, so
// forwarding pauses entirely until parity is restored.
func (f *Forwarder) hasFeatureParity(ctx context.Context, destination string) bool {
	page, err := f.reddit.WikiPage(ctx, destination, WP_VERSION)
	if err != nil || page == nil {
		return false
	}
	return versionAtLeast(page.Content, f.version)
}

// OnForwardEvents is the cron-cadence forward job.
func (f *Forwarder) OnForwardEvents(ctx context.Context) error {
	settings := f.settings(ctx)

	destination := strings.TrimSpace(settings.TargetSubreddit)
	if destination == "" {
		// not an error: the server operates with no destination configured
		slog.Debug("[Forwarder] No target subreddit configured, i assume i am the server and will not forward anything")
		return nil
	}

	if !f.hasFeatureParity(ctx, destination) {
		slog.Debug("[Forwarder] The target subreddit is not running a compatible version, pausing forwarding until it is",
			slog.String("destination", destination))
		return nil
	}

	members, err := f.store.ZRangeByScore(ctx, store.KeyTransmissionQueue, float64(temporal.Now()))
	if err != nil {
		return err
	}

	// the settings snapshot rides along whenever it has changed since the
	// last forward, at priority zero so it is applied first
	batch := members
	latestHash, err := settings.Hash()
	if err != nil {
		return err
	}
	lastKnownHash, _, err := f.store.Get(ctx, store.KeyLastKnownSettings)
	if err != nil {
		return err
	}
	if lastKnownHash != latestHash {
		if err := f.store.SetEx(ctx, store.KeyLastKnownSettings, latestHash, settingsHashTTL); err != nil {
			return err
		}

		snapshot := settings
		msg := models.Message{
			Type:     models.MessageSettingsUpdated,
			V:        models.SettingsProtocolVersion,
			SID:      f.homeSubredditID,
			TS:       0,
			Settings: &snapshot,
		}
		member, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		batch = append([]store.ZMember{{Member: string(member), Score: 0}}, batch...)

		slog.Debug("[Forwarder] The settings have changed and will be forwarded to the target subreddit")
	}

	if len(batch) == 0 {
		slog.Debug("[Forwarder] There are no events to forward")
		return nil
	}

	drained := make([]string, 0, len(members))
	for _, m := range members {
		drained = append(drained, m.Member)
	}
	if err := f.store.ZRem(ctx, store.KeyTransmissionQueue, drained...); err != nil {
		return err
	}
	slog.Debug("[Forwarder] Cleared events from the queue",
		slog.Int("count", len(drained)))

	lines := make([]string, 0, len(batch))
	for _, m := range batch {
		lines = append(lines, m.Member)
	}
	content, err := compress(strings.Join(lines, "\n"))
	if err != nil {
		return err
	}

	// no acknowledgement channel exists: a failed write here risks losing
	// the drained batch, so it surfaces as a hard error for this cycle
	if err := f.reddit.UpdateWikiPage(ctx, destination, WP_OPEN_MOD_EVENTS, content); err != nil {
		return fmt.Errorf("[Forwarder] failed to update the events page in %s: %w", destination, err)
	}

	slog.Debug("[Forwarder] Forwarded events",
		slog.Int("count", len(batch)),
		slog.String("destination", destination))
	return nil
}
