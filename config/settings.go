package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/spacesedan/openmod/internal/models"
)

// SettingsFromEnv builds the community settings snapshot from the process
// environment. Handlers receive a snapshot per job invocation rather than
// reading ambient configuration mid-flight.
func SettingsFromEnv() models.AppSettings {
	s := models.DefaultSettings()

	s.TargetSubreddit = strings.TrimSpace(os.Getenv("OPENMOD_TARGET_SUBREDDIT"))
	s.RecordAdminActions = boolEnv("OPENMOD_RECORD_ADMIN_ACTIONS", s.RecordAdminActions)
	s.RecordAutoModeratorActions = boolEnv("OPENMOD_RECORD_AUTOMODERATOR_ACTIONS", s.RecordAutoModeratorActions)
	s.ExcludedModerators = os.Getenv("OPENMOD_EXCLUDED_MODERATORS")
	s.ExcludedUsers = os.Getenv("OPENMOD_EXCLUDED_USERS")
	s.IncludeContext = boolEnv("OPENMOD_INCLUDE_CONTEXT", s.IncludeContext)
	s.UseMentions = boolEnv("OPENMOD_USE_MENTIONS", s.UseMentions)
	s.IncludeFullLog = boolEnv("OPENMOD_INCLUDE_FULL_LOG", s.IncludeFullLog)

	if actions := os.Getenv("OPENMOD_MODERATION_ACTIONS"); actions != "" {
		s.ModerationActions = nil
		for _, a := range strings.Split(actions, ",") {
			if a = strings.TrimSpace(a); a != "" {
				s.ModerationActions = append(s.ModerationActions, a)
			}
		}
	}

	return s
}

// AppAccount is the service account the application acts as; wiki revisions
// not authored by it are rejected on ingest.
func AppAccount() string {
	return os.Getenv("OPENMOD_APP_ACCOUNT")
}

// HomeSubreddit is the community this instance is installed in.
func HomeSubreddit() string {
	return os.Getenv("OPENMOD_HOME_SUBREDDIT")
}

// HomeSubredditID is the t5 id of the home community, carried on outgoing
// settings messages so the server can key the snapshot consistently with
// the mod action messages that reference it.
func HomeSubredditID() string {
	return os.Getenv("OPENMOD_HOME_SUBREDDIT_ID")
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
