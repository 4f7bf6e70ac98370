package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
)

// handleCommentChanged caches a comment's current state. The comment is
// re-fetched here rather than shipped on the wire, so the cache always
// reflects what the platform serves at processing time.
func (p *Pipeline) handleCommentChanged(ctx context.Context, msg models.Message) error {
	comment, err := p.reddit.CommentByID(ctx, msg.TID)
	if err != nil {
		return err
	}
	if comment == nil {
		slog.Debug("[Pipeline] Comment is gone already, nothing to cache",
			slog.String("tid", msg.TID))
		return nil
	}

	// resubmissions of unedited content are no-ops; an edit always wins
	if !comment.Edited {
		duplicated, err := p.ledger.IsDuplicate(ctx, comment.ID)
		if err != nil {
			return err
		}
		if duplicated {
			slog.Debug("[Pipeline] Comment is already cached and unchanged",
				slog.String("tid", msg.TID))
			return nil
		}
	}

	author := reddit.BasicUserInfoByUsername(ctx, p.reddit, comment.AuthorName)

	if _, err := p.cache.PutComment(ctx, comment); err != nil {
		return err
	}
	if _, err := p.cache.PutUser(ctx, author); err != nil {
		return err
	}
	if err := p.cache.Track(ctx, author.ID, comment.ID, comment.CreatedAt); err != nil {
		return err
	}

	slog.Debug("[Pipeline] Cached comment", slog.String("tid", msg.TID))
	return nil
}

func (p *Pipeline) handlePostChanged(ctx context.Context, msg models.Message) error {
	post, err := p.reddit.PostByID(ctx, msg.TID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Debug("[Pipeline] Post is gone already, nothing to cache",
			slog.String("tid", msg.TID))
		return nil
	}

	if !post.Edited {
		duplicated, err := p.ledger.IsDuplicate(ctx, post.ID)
		if err != nil {
			return err
		}
		if duplicated {
			slog.Debug("[Pipeline] Post is already cached and unchanged",
				slog.String("tid", msg.TID))
			return nil
		}
	}

	author := reddit.BasicUserInfoByUsername(ctx, p.reddit, post.AuthorName)

	if _, err := p.cache.PutPost(ctx, post); err != nil {
		return err
	}
	if _, err := p.cache.PutUser(ctx, author); err != nil {
		return err
	}
	if err := p.cache.Track(ctx, author.ID, post.ID, post.CreatedAt); err != nil {
		return err
	}

	slog.Debug("[Pipeline] Cached post", slog.String("tid", msg.TID))
	return nil
}

// handleThingDelete evicts deleted content from the cache. Deletions are
// idempotent through their own marker namespace, since the same id has
// usually already passed through as a creation.
func (p *Pipeline) handleThingDelete(ctx context.Context, msg models.Message) error {
	duplicated, err := p.ledger.IsDuplicate(ctx, store.DeleteMarker(msg.TID))
	if err != nil {
		return err
	}
	if duplicated {
		slog.Debug("[Pipeline] Deletion already applied",
			slog.String("tid", msg.TID))
		return nil
	}

	if err := p.cache.Delete(ctx, msg.TID); err != nil {
		return err
	}
	slog.Debug("[Pipeline] Evicted deleted thing", slog.String("tid", msg.TID))
	return nil
}

// handleSettingsUpdated stores a reporting community's snapshot so that
// later extracts render with its preferences.
func (p *Pipeline) handleSettingsUpdated(ctx context.Context, msg models.Message) error {
	if msg.Settings == nil {
		return fmt.Errorf("[Pipeline] settings message without a snapshot from %s", msg.SID)
	}

	fields, err := msg.Settings.ToHash()
	if err != nil {
		return err
	}
	if err := p.store.HSetAll(ctx, store.KeySettings(msg.SID), fields); err != nil {
		return err
	}

	slog.Debug("[Pipeline] Stored settings snapshot", slog.String("sid", msg.SID))
	return nil
}
