package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
)

// ModeratedThingID determines what a moderation action was taken against,
// from the action subtype's shape. Downstream messages assume one of these
// shapes, so an unrecognised subtype is a hard failure.
func ModeratedThingID(ctx context.Context, client reddit.Client, ev models.ModActionEvent) (string, error) {
	action := ev.Action
	if action == "" {
		return "", fmt.Errorf("[Capture] missing action in modaction event")
	}

	if strings.HasSuffix(action, "comment") {
		if ev.TargetComment == nil || ev.TargetComment.ID == "" {
			return "", fmt.Errorf("[Capture] missing target comment in modaction event")
		}
		slog.Debug("[Capture] Moderated thing is a comment")
		return ev.TargetComment.ID, nil
	}

	if strings.HasSuffix(action, "link") {
		if ev.TargetPost == nil || ev.TargetPost.ID == "" {
			return "", fmt.Errorf("[Capture] missing target post in modaction event")
		}
		slog.Debug("[Capture] Moderated thing is a post")
		return ev.TargetPost.ID, nil
	}

	if strings.HasSuffix(action, "user") || strings.Contains(action, "moderator") || strings.HasSuffix(action, "contributor") {
		if ev.TargetUser == nil || ev.TargetUser.Name == "" {
			return "", fmt.Errorf("[Capture] missing target user in modaction event")
		}
		// special accounts resolve to their synthetic identities here
		user := reddit.BasicUserInfoByUsername(ctx, client, ev.TargetUser.Name)
		slog.Debug("[Capture] Moderated thing is a user")
		return user.ID, nil
	}

	if strings.HasSuffix(action, "lock") {
		// could be either a post or a comment. the notification populates
		// both structures, so the comment id decides.
		if ev.TargetComment != nil && ev.TargetComment.ID != "" {
			slog.Debug("[Capture] Moderated thing is a comment")
			return ev.TargetComment.ID, nil
		}
		if ev.TargetPost == nil || ev.TargetPost.ID == "" {
			return "", fmt.Errorf("[Capture] missing target post in modaction event")
		}
		slog.Debug("[Capture] Moderated thing is a post")
		return ev.TargetPost.ID, nil
	}

	return "", fmt.Errorf("[Capture] unsupported action in modaction event: %s", action)
}
