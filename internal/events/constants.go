package events

import "time"

// Topics the platform publishes trigger notifications on. Mod actions
// carry both moderation activity and the wikirevise notifications the
// server ingests the transport from.
const (
	TOPIC_COMMENT_EVENTS = "openmod.comment-events"
	TOPIC_POST_EVENTS    = "openmod.post-events"
	TOPIC_DELETE_EVENTS  = "openmod.delete-events"
	TOPIC_MOD_ACTIONS    = "openmod.mod-actions"
)

const (
	MAX_RETRIES = 5
	RETRY_DELAY = 2 * time.Second
)
