package models

// The message passing protocol between client and server instances.
// The protocol is versioned to allow for future changes and is strictly
// additive, ensuring backwards compatibility: once a message type has
// shipped, its fields are never removed or repurposed.

type MessageType string

const (
	MessageCommentChanged  MessageType = "commentChanged"
	MessageCommentDelete   MessageType = "commentDelete"
	MessagePostChanged     MessageType = "postChanged"
	MessagePostDelete      MessageType = "postDelete"
	MessageModAction       MessageType = "modAction"
	MessageSettingsUpdated MessageType = "settingsUpdated"
)

const (
	// ProtocolVersion is carried by all content and mod action messages.
	ProtocolVersion = 2

	// SettingsProtocolVersion is carried by settingsUpdated messages, which
	// were added after the v2 content messages shipped.
	SettingsProtocolVersion = 3
)

// ModLogEntry is one row of the moderation log attached to a mod action
// message, captured from the reporting community at enrichment time.
type ModLogEntry struct {
	Type          string `json:"type"`
	ModeratorName string `json:"moderatorName"`
	Details       string `json:"details,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Message is one replicated event on the wire. Type discriminates the
// variant; fields beyond the common set are populated per variant and
// omitted otherwise.
type Message struct {
	Type MessageType `json:"type"`
	V    int         `json:"v"`

	// TID is the thing id of the object this message is about, e.g.
	// "t1_abc123" for a comment. For a mod action it is the moderated
	// thing id. Absent on settingsUpdated messages.
	TID string `json:"tid,omitempty"`

	// SID is the subreddit this message was received from.
	SID string `json:"sid"`

	// TS is the event instant in milliseconds since the epoch, and doubles
	// as the queue priority on both sides of the transport.
	TS int64 `json:"ts"`

	// Mod action fields (type == modAction).
	Sub ModActionType `json:"sub,omitempty"`
	Mod string        `json:"mod,omitempty"`
	Ctx bool          `json:"ctx,omitempty"`
	Log []ModLogEntry `json:"log,omitempty"`

	// Settings snapshot (type == settingsUpdated, v3).
	Settings *AppSettings `json:"settings,omitempty"`
}
