package models

// Platform notifications as delivered on the trigger bus. These mirror the
// shapes the platform publishes; the capture layer turns them into protocol
// messages.

type EntityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CommentRef struct {
	ID             string `json:"id"`
	CreatedAt      int64  `json:"createdAt"`
	LastModifiedAt int64  `json:"lastModifiedAt"`
}

type PostRef struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// CommentEvent notifies a comment submission or edit. PreviousBody is only
// present on edits, which is how the two variants are told apart.
type CommentEvent struct {
	Comment      *CommentRef `json:"comment"`
	Author       *EntityRef  `json:"author"`
	Subreddit    *EntityRef  `json:"subreddit"`
	PreviousBody *string     `json:"previousBody,omitempty"`
}

// IsSubmit reports whether this event is the initial submission rather
// than an edit.
func (e CommentEvent) IsSubmit() bool { return e.PreviousBody == nil }

// PostEvent notifies a post submission or edit, distinguished the same way
// as CommentEvent.
type PostEvent struct {
	Post         *PostRef   `json:"post"`
	Author       *EntityRef `json:"author"`
	Subreddit    *EntityRef `json:"subreddit"`
	PreviousBody *string    `json:"previousBody,omitempty"`
}

func (e PostEvent) IsSubmit() bool { return e.PreviousBody == nil }

// DeletionSourceUser marks a deletion performed by the content's own
// creator, as opposed to a moderator removal.
const DeletionSourceUser = 1

// DeleteEvent notifies a content deletion. Exactly one of CommentID and
// PostID is set.
type DeleteEvent struct {
	CommentID string     `json:"commentId,omitempty"`
	PostID    string     `json:"postId,omitempty"`
	Source    int        `json:"source"`
	Subreddit *EntityRef `json:"subreddit"`
	DeletedAt int64      `json:"deletedAt"`
}

func (e DeleteEvent) IsComment() bool { return e.CommentID != "" }

// ModActionEvent notifies a moderation action. The target fields are
// populated according to the action's shape; actions on content carry the
// affected comment or post, actions on users carry the target user.
type ModActionEvent struct {
	Action        string      `json:"action"`
	Moderator     *EntityRef  `json:"moderator"`
	TargetUser    *EntityRef  `json:"targetUser,omitempty"`
	TargetComment *CommentRef `json:"targetComment,omitempty"`
	TargetPost    *PostRef    `json:"targetPost,omitempty"`
	Subreddit     *EntityRef  `json:"subreddit"`
	ActionedAt    int64       `json:"actionedAt"`
}
