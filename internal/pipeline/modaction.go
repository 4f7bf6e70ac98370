package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/openmod/internal/markdown"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/temporal"
)

// extractTarget is what a mod action message resolved to: exactly one of
// the content fields is meaningful, and user is always populated (either
// the content's author or the acted-on account).
type extractTarget struct {
	comment *models.CachedComment
	post    *models.CachedPost
	user    models.CachedUser
}

// handleModAction renders a replicated moderation action into a public
// extract post in the record community.
func (p *Pipeline) handleModAction(ctx context.Context, msg models.Message) error {
	action := msg.Sub
	if !models.IsSupportedModAction(action) {
		slog.Debug("[Pipeline] Ignoring modaction of unknown type",
			slog.String("action", string(action)))
		return nil
	}

	moderator := p.cache.User(ctx, msg.Mod)
	subreddit := p.cache.Subreddit(ctx, msg.SID)
	settings := p.reportingSettings(ctx, msg.SID)

	target := p.resolveTarget(ctx, action, msg.TID)

	title := extractTitle(action, moderator.Username, subreddit.Name, settings.UseMentions)
	body := p.renderExtract(msg, settings, subreddit, target, title)

	currentName, err := p.reddit.CurrentSubredditName(ctx)
	if err != nil || currentName == "" {
		return fmt.Errorf("[Pipeline] i couldn't work out where i am - is reddit down?")
	}

	post, err := p.reddit.SubmitPost(ctx, reddit.SubmitPostOptions{
		SubredditName: currentName,
		Title:         title,
		Text:          body,
	})
	if err != nil {
		return fmt.Errorf("[Pipeline] failed to submit extract for %s: %w", msg.TID, err)
	}

	if err := p.cache.RecordModAction(ctx, msg.TID, post.ID); err != nil {
		return err
	}
	if err := p.cache.PutExtract(ctx, post.ID, msg); err != nil {
		return err
	}

	slog.Debug("[Pipeline] Published extract",
		slog.String("tid", msg.TID),
		slog.String("post", post.ID))
	return nil
}

// resolveTarget loads whatever the action was taken against from the
// entity cache. Cache reads never fail, they degrade to unavailable
// placeholders, so neither does this.
func (p *Pipeline) resolveTarget(ctx context.Context, action models.ModActionType, tid string) extractTarget {
	switch {
	case models.IsCommentID(tid):
		comment := p.cache.Comment(ctx, tid)
		return extractTarget{
			comment: &comment,
			user:    p.cache.User(ctx, comment.Author),
		}
	case models.IsPostID(tid):
		post := p.cache.Post(ctx, tid)
		return extractTarget{
			post: &post,
			user: p.cache.User(ctx, post.Author),
		}
	case models.IsUserID(tid):
		return extractTarget{user: p.cache.User(ctx, tid)}
	default:
		slog.Warn("[Pipeline] Modaction has unrecognisable target, treating it as unavailable",
			slog.String("action", string(action)),
			slog.String("tid", tid))
		return extractTarget{user: models.CachedUser{Username: models.Unavailable}}
	}
}

// extractTitle renders "<moderator> <past simple> <preposition>
// <subreddit>", dropping the preposition where the phrase table leaves it
// empty.
func extractTitle(action models.ModActionType, moderator, subreddit string, useMentions bool) string {
	parts := []string{
		userRef(moderator, useMentions),
		models.ModActionPastSimple[action],
	}
	if preposition := models.ModActionPreposition[action]; preposition != "" {
		parts = append(parts, preposition)
	}
	parts = append(parts, subredditRef(subreddit, useMentions))
	return strings.Join(parts, " ")
}

func (p *Pipeline) renderExtract(msg models.Message, settings models.AppSettings, subreddit models.CachedSubreddit, target extractTarget, title string) string {
	b := markdown.NewBuilder()

	t := temporal.ToTime(msg.TS).UTC()
	b.Paragraph(fmt.Sprintf("On %d/%d/%d, at approximately %02d:%02d, %s.",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), title))

	b.H5(models.ModActionTargetNoun[msg.Sub])
	b.Paragraph(userRef(target.user.Username, settings.UseMentions))

	// the ctx flag is the reporting community's choice at capture time, so
	// it travels on the message rather than in the stored snapshot
	if msg.Ctx {
		switch {
		case target.post != nil:
			b.H5("Original Title")
			b.Blockquote(target.post.Title)
			if target.post.Body != "" && target.post.Body != models.Unavailable {
				b.H5("Original Body")
				b.Blockquote(target.post.Body)
			}
			if target.post.URL != "" && target.post.URL != models.Unavailable {
				b.H5("Original URL")
				b.Paragraph(target.post.URL)
			}
		case target.comment != nil:
			b.H5("Original Comment")
			b.Blockquote(target.comment.Body)
		}
	}

	if settings.IncludeFullLog && len(msg.Log) > 0 {
		rows := make([][]string, 0, len(msg.Log))
		for _, entry := range msg.Log {
			rows = append(rows, []string{
				entry.Type, entry.ModeratorName, entry.Details, entry.Description,
			})
		}
		b.H5("Moderation Log")
		b.Table([]string{"Action", "Moderator", "Details", "Description"}, rows)
	}

	b.H5("Permalink")
	b.Paragraph(permalinkFor(msg.Sub, subreddit.Name, target))

	b.HorizontalRule()
	b.Superscript(fmt.Sprintf("This content was automatically generated on behalf of r/%s; all times are in UTC.", subreddit.Name))

	return b.String()
}

// permalinkFor picks the best available link for the extract: the content
// itself, the moderator roster for moderator actions, the acted-on user's
// profile, or an unavailable marker when everything else is gone.
func permalinkFor(action models.ModActionType, subreddit string, target extractTarget) string {
	if target.comment != nil && linkUsable(target.comment.Permalink) {
		return absoluteLink(target.comment.Permalink)
	}
	if target.post != nil && linkUsable(target.post.Permalink) {
		return absoluteLink(target.post.Permalink)
	}
	if strings.Contains(string(action), "moderator") && subreddit != models.Unavailable {
		return fmt.Sprintf("https://reddit.com/mod/%s/moderators", subreddit)
	}
	if target.user.Username != "" && linkUsable(target.user.Username) {
		return fmt.Sprintf("https://reddit.com/u/%s", target.user.Username)
	}
	return models.Unavailable
}

func linkUsable(s string) bool {
	return s != "" && s != models.Unavailable
}

func absoluteLink(permalink string) string {
	if strings.HasPrefix(permalink, "/") {
		return "https://reddit.com" + permalink
	}
	return permalink
}

// userRef and subredditRef render names as mentions when the reporting
// community asked for them. Synthetic identities never get a mention, the
// platform would not resolve them.
func userRef(name string, useMentions bool) string {
	if name == "" {
		return models.Unavailable
	}
	if !useMentions || strings.ContainsAny(name, " [") {
		return name
	}
	return "u/" + name
}

func subredditRef(name string, useMentions bool) string {
	if name == "" || name == models.Unavailable {
		return models.Unavailable
	}
	if !useMentions {
		return name
	}
	return "r/" + name
}
