package models

import "strings"

// Thing id prefixes as used by the platform: t1 comments, t2 users,
// t3 posts, t5 subreddits.

func IsCommentID(id string) bool   { return strings.HasPrefix(id, "t1_") }
func IsUserID(id string) bool      { return strings.HasPrefix(id, "t2_") }
func IsPostID(id string) bool      { return strings.HasPrefix(id, "t3_") }
func IsSubredditID(id string) bool { return strings.HasPrefix(id, "t5_") }

type CacheType string

const (
	CacheComment   CacheType = "comment"
	CachePost      CacheType = "post"
	CacheUser      CacheType = "user"
	CacheSubreddit CacheType = "subreddit"
)

// Unavailable marks a field whose value could not be resolved from the
// platform, e.g. because the entity vanished before hydration.
const Unavailable = "[ unavailable ]"

type CachedComment struct {
	Author    string
	Body      string
	Permalink string
}

type CachedPost struct {
	Author    string
	Title     string
	Body      string
	URL       string
	Permalink string
}

type CachedUser struct {
	Username string
	IsAdmin  bool
	IsApp    bool
}

type CachedSubreddit struct {
	Name string
}

// BasicUserData is the reduced user shape the pipeline works with, after
// special accounts have been resolved to their synthetic identities.
type BasicUserData struct {
	ID       string
	Username string
	IsAdmin  bool
	IsApp    bool
}

// Special account names the platform will not resolve through the normal
// user lookup APIs. They map to fixed synthetic ids instead.
const (
	SpecialAccountReddit           = "reddit"
	SpecialAccountRedditLegal      = "Reddit Legal"
	SpecialAccountAntiEvil         = "Anti-Evil Operations"
	SpecialAccountRedacted         = "[ redacted ]" // anti evil operations
	SpecialAccountDeleted          = "[ deleted ]"  // deleted/suspended
	SpecialAccountUnavailable      = Unavailable    // user not found
	SpecialAccountModCodeOfConduct = "ModCodeofConduct"
)

var SpecialAccountNameToID = map[string]string{
	SpecialAccountReddit:           "t2_spl_rddt",
	SpecialAccountRedditLegal:      "t2_spl_lgl",
	SpecialAccountAntiEvil:         "t2_spl_aeo",
	SpecialAccountRedacted:         "t2_spl_red",
	SpecialAccountDeleted:          "t2_spl_del",
	SpecialAccountUnavailable:      "t2_spl_uvl",
	SpecialAccountModCodeOfConduct: "t2_spl_mcc",
}

var SpecialAccountIDToName = func() map[string]string {
	m := make(map[string]string, len(SpecialAccountNameToID))
	for name, id := range SpecialAccountNameToID {
		m[id] = name
	}
	return m
}()
