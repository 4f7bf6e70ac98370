// Package cache maintains the TTL'd entity cache of comments, posts, users
// and subreddits, plus the per-author tracking sets used to locate what to
// garbage-collect when an author disappears.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// EntityTTL is the rolling expiry window; every read extends it.
const EntityTTL = 28 * 24 * time.Hour

type Cache struct {
	store  store.Store
	reddit reddit.Client
}

func New(s store.Store, r reddit.Client) *Cache {
	return &Cache{store: s, reddit: r}
}

func (c *Cache) putHash(ctx context.Context, thingID string, fields map[string]string) error {
	key := store.KeyCachedThing(thingID)
	if err := c.store.HSetAll(ctx, key, fields); err != nil {
		return err
	}
	if err := c.store.Expire(ctx, key, EntityTTL); err != nil {
		return err
	}
	slog.Debug("[Cache] Refreshed cached thing",
		slog.String("thing", thingID))
	return nil
}

func (c *Cache) readHash(ctx context.Context, thingID string) (map[string]string, bool) {
	key := store.KeyCachedThing(thingID)
	fields, err := c.store.HGetAll(ctx, key)
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	// a hit keeps the entity alive another window
	if err := c.store.Expire(ctx, key, EntityTTL); err != nil {
		slog.Warn("[Cache] Failed to refresh expiry",
			slog.String("thing", thingID),
			slog.String("error", err.Error()))
	}
	return fields, true
}

func (c *Cache) PutComment(ctx context.Context, comment *reddit.Comment) (models.CachedComment, error) {
	author := comment.AuthorID
	if author == "" {
		author = models.SpecialAccountNameToID[models.SpecialAccountDeleted]
	}

	data := models.CachedComment{
		Author:    author,
		Body:      comment.Body,
		Permalink: comment.Permalink,
	}

	err := c.putHash(ctx, comment.ID, map[string]string{
		"type":      string(models.CacheComment),
		"author":    data.Author,
		"body":      data.Body,
		"permalink": data.Permalink,
	})
	return data, err
}

// Comment returns the cached comment, hydrating from the platform on a
// miss. A failed hydration yields a placeholder, never an error.
func (c *Cache) Comment(ctx context.Context, id string) models.CachedComment {
	if fields, ok := c.readHash(ctx, id); ok {
		return models.CachedComment{
			Author:    fields["author"],
			Body:      fields["body"],
			Permalink: fields["permalink"],
		}
	}

	comment, err := c.reddit.CommentByID(ctx, id)
	if err != nil || comment == nil {
		slog.Debug("[Cache] Comment unavailable", slog.String("id", id))
		return models.CachedComment{
			Author:    models.SpecialAccountNameToID[models.SpecialAccountUnavailable],
			Body:      models.Unavailable,
			Permalink: models.Unavailable,
		}
	}

	data, err := c.PutComment(ctx, comment)
	if err != nil {
		slog.Warn("[Cache] Failed to cache comment",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
	return data
}

func (c *Cache) PutPost(ctx context.Context, post *reddit.Post) (models.CachedPost, error) {
	author := post.AuthorID
	if author == "" {
		author = models.SpecialAccountNameToID[models.SpecialAccountDeleted]
	}

	data := models.CachedPost{
		Author:    author,
		Title:     post.Title,
		Body:      post.Body,
		URL:       post.URL,
		Permalink: post.Permalink,
	}

	err := c.putHash(ctx, post.ID, map[string]string{
		"type":      string(models.CachePost),
		"author":    data.Author,
		"title":     data.Title,
		"body":      data.Body,
		"url":       data.URL,
		"permalink": data.Permalink,
	})
	return data, err
}

func (c *Cache) Post(ctx context.Context, id string) models.CachedPost {
	if fields, ok := c.readHash(ctx, id); ok {
		return models.CachedPost{
			Author:    fields["author"],
			Title:     fields["title"],
			Body:      fields["body"],
			URL:       fields["url"],
			Permalink: fields["permalink"],
		}
	}

	post, err := c.reddit.PostByID(ctx, id)
	if err != nil || post == nil {
		slog.Debug("[Cache] Post unavailable", slog.String("id", id))
		return models.CachedPost{
			Author:    models.SpecialAccountNameToID[models.SpecialAccountUnavailable],
			Title:     models.Unavailable,
			URL:       models.Unavailable,
			Permalink: models.Unavailable,
		}
	}

	data, err := c.PutPost(ctx, post)
	if err != nil {
		slog.Warn("[Cache] Failed to cache post",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
	return data
}

func (c *Cache) PutUser(ctx context.Context, user models.BasicUserData) (models.CachedUser, error) {
	data := models.CachedUser{
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		IsApp:    user.IsApp,
	}

	fields := map[string]string{
		"type":     string(models.CacheUser),
		"username": data.Username,
	}
	if data.IsAdmin {
		fields["isAdmin"] = "admin"
	}
	if data.IsApp {
		fields["isApp"] = "app"
	}

	if err := c.putHash(ctx, user.ID, fields); err != nil {
		return data, err
	}

	// keep a record that this user has been observed, so that everything
	// related to them can be removed should their account vanish. content
	// is tracked separately.
	err := c.store.ZAdd(ctx, store.KeySignsOfLife, store.ZMember{
		Member: user.ID,
		Score:  float64(temporal.Now()),
	})
	return data, err
}

func (c *Cache) User(ctx context.Context, id string) models.CachedUser {
	if fields, ok := c.readHash(ctx, id); ok {
		return models.CachedUser{
			Username: fields["username"],
			IsAdmin:  fields["isAdmin"] != "",
			IsApp:    fields["isApp"] != "",
		}
	}

	// falls back to the unavailable identity on its own, never fails
	user := reddit.BasicUserInfoByID(ctx, c.reddit, id)

	data, err := c.PutUser(ctx, user)
	if err != nil {
		slog.Warn("[Cache] Failed to cache user",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
	return data
}

func (c *Cache) PutSubreddit(ctx context.Context, info *reddit.SubredditInfo) (models.CachedSubreddit, error) {
	data := models.CachedSubreddit{Name: info.Name}
	err := c.putHash(ctx, info.ID, map[string]string{
		"type": string(models.CacheSubreddit),
		"name": data.Name,
	})
	return data, err
}

func (c *Cache) Subreddit(ctx context.Context, id string) models.CachedSubreddit {
	if fields, ok := c.readHash(ctx, id); ok {
		return models.CachedSubreddit{Name: fields["name"]}
	}

	info, err := c.reddit.SubredditInfoByID(ctx, id)
	if err != nil || info == nil {
		slog.Debug("[Cache] Subreddit unavailable", slog.String("id", id))
		return models.CachedSubreddit{Name: models.Unavailable}
	}

	data, err := c.PutSubreddit(ctx, info)
	if err != nil {
		slog.Warn("[Cache] Failed to cache subreddit",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
	return data
}

// Delete evicts the cached entity of a thing.
func (c *Cache) Delete(ctx context.Context, thingID string) error {
	return c.store.Del(ctx, store.KeyCachedThing(thingID))
}

// Track records a piece of content in its author's tracking set, scored by
// creation time.
func (c *Cache) Track(ctx context.Context, authorID, thingID string, createdAt int64) error {
	return c.store.ZAdd(ctx, store.KeyTrackingSet(authorID), store.ZMember{
		Member: thingID,
		Score:  float64(createdAt),
	})
}

// DeleteTrackingSet removes an author's entire tracking set.
func (c *Cache) DeleteTrackingSet(ctx context.Context, authorID string) error {
	return c.store.Del(ctx, store.KeyTrackingSet(authorID))
}
