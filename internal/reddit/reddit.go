// Package reddit wraps the platform API the pipeline depends on. The
// concrete HTTP client lives in client.go; everything above it talks to the
// Client interface so handlers can be exercised without the platform.
package reddit

import "context"

type Comment struct {
	ID             string
	AuthorID       string
	AuthorName     string
	Body           string
	Permalink      string
	SubredditID    string
	Edited         bool
	CreatedAt      int64
	LastModifiedAt int64
}

type Post struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Title       string
	Body        string
	URL         string
	Permalink   string
	SubredditID string
	Edited      bool
	CreatedAt   int64
	UpdatedAt   int64
}

type User struct {
	ID       string
	Username string
	IsAdmin  bool
}

type SubredditInfo struct {
	ID   string
	Name string
}

type WikiPage struct {
	Content        string
	RevisionID     string
	RevisionAuthor string
}

type ModLogEntry struct {
	Type          string
	ModeratorName string
	Details       string
	Description   string
}

type SubmitPostOptions struct {
	SubredditName string
	Title         string
	Text          string
}

// Client is the platform API surface. Lookups return (nil, nil) when the
// entity does not exist or cannot be read; errors are reserved for
// transport-level failures.
type Client interface {
	CommentByID(ctx context.Context, id string) (*Comment, error)
	PostByID(ctx context.Context, id string) (*Post, error)
	UserByID(ctx context.Context, id string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	SubredditInfoByID(ctx context.Context, id string) (*SubredditInfo, error)

	// CurrentSubredditName resolves the community this instance runs in.
	CurrentSubredditName(ctx context.Context) (string, error)

	// ModerationLog returns the audit log entries for one moderated thing,
	// newest first.
	ModerationLog(ctx context.Context, subreddit, thingID string) ([]ModLogEntry, error)

	SubmitPost(ctx context.Context, opts SubmitPostOptions) (*Post, error)

	WikiPage(ctx context.Context, subreddit, page string) (*WikiPage, error)
	UpdateWikiPage(ctx context.Context, subreddit, page, content string) error
}
