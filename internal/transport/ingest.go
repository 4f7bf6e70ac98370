package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
)

// Ingestor watches for revisions of the local events document and unpacks
// them into the processing queue. It runs on the server instance; the
// revision author check is what keeps arbitrary wiki editors from injecting
// messages.
type Ingestor struct {
	store  store.Store
	reddit reddit.Client

	// appAccount is the service account both instances run under. Only
	// revisions authored by it are trusted.
	appAccount string
}

func NewIngestor(s store.Store, r reddit.Client, appAccount string) *Ingestor {
	return &Ingestor{
		store:      s,
		reddit:     r,
		appAccount: appAccount,
	}
}

// OnWikiRevision handles a wikirevise moderation action by reading the
// events document and queuing its messages. Non-wiki actions pass through
// untouched.
func (i *Ingestor) OnWikiRevision(ctx context.Context, ev models.ModActionEvent) error {
	if ev.Action != "wikirevise" {
		return nil
	}
	if ev.Subreddit == nil || ev.Subreddit.Name == "" {
		slog.Error("[Ingestor] Unexpectedly encountered malformed wikirevise event")
		return nil
	}

	page, err := i.reddit.WikiPage(ctx, ev.Subreddit.Name, WP_OPEN_MOD_EVENTS)
	if err != nil {
		return err
	}
	if page == nil {
		// some other wiki page was revised, or this instance is the client
		slog.Debug("[Ingestor] No events page here, nothing for me to do")
		return nil
	}

	if page.RevisionAuthor != i.appAccount {
		slog.Warn("[Ingestor] Events page was revised by someone other than the app account, ignoring it",
			slog.String("author", page.RevisionAuthor))
		return nil
	}

	lastRevision, _, err := i.store.Get(ctx, store.KeyQueueLastRevision)
	if err != nil {
		return err
	}
	if page.RevisionID != "" && page.RevisionID == lastRevision {
		slog.Debug("[Ingestor] Already queued this revision",
			slog.String("revision", page.RevisionID))
		return nil
	}

	content := page.Content
	// older peers wrote the batch as plain JSON lines
	if !strings.HasPrefix(content, "{") {
		content, err = decompress(content)
		if err != nil {
			return err
		}
	}

	queued := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var msg models.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			slog.Warn("[Ingestor] Skipping undecodable message",
				slog.String("error", err.Error()))
			continue
		}

		if err := i.store.ZAdd(ctx, store.KeyEvents, store.ZMember{
			Member: line,
			Score:  float64(msg.TS),
		}); err != nil {
			return err
		}
		queued++
	}

	if err := i.store.Set(ctx, store.KeyQueueLastRevision, page.RevisionID); err != nil {
		return err
	}

	slog.Debug("[Ingestor] Queued incoming events",
		slog.Int("count", queued),
		slog.String("revision", page.RevisionID))
	return nil
}
