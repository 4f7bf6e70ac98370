package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AppSettings is the full configuration snapshot of one community. A client
// forwards its snapshot whenever it changes, so the server can render
// extracts using the reporting community's preferences.
type AppSettings struct {
	// TargetSubreddit is the community the public record is written to,
	// without the r/. Empty means this instance is not forwarding.
	TargetSubreddit string `json:"targetSubreddit"`

	RecordAdminActions         bool `json:"recordAdminActions"`
	RecordAutoModeratorActions bool `json:"recordAutoModeratorActions"`

	// ModerationActions is the allowlist of action types to record.
	ModerationActions []string `json:"moderationActions"`

	// ExcludedModerators and ExcludedUsers are comma-separated username
	// lists, validated at submission time. Matching is by substring
	// containment against the raw string.
	ExcludedModerators string `json:"excludedModerators"`
	ExcludedUsers      string `json:"excludedUsers"`

	IncludeContext bool `json:"includeContext"`
	UseMentions    bool `json:"useMentions"`
	IncludeFullLog bool `json:"includeFullLog"`
}

// DefaultSettings mirrors the defaults of the settings form.
func DefaultSettings() AppSettings {
	return AppSettings{
		RecordAdminActions:         true,
		RecordAutoModeratorActions: false,
		ModerationActions: []string{
			string(ActionRemoveLink), string(ActionSpamLink),
			string(ActionRemoveComment), string(ActionSpamComment),
			string(ActionBanUser), string(ActionMuteUser),
		},
		IncludeContext: false,
		UseMentions:    true,
		IncludeFullLog: false,
	}
}

// Hash is a content hash of the snapshot, used to detect settings changes
// between forwarding cycles.
func (s AppSettings) Hash() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("[AppSettings] failed to hash settings: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// IsClient reports whether this instance forwards events. Any configured
// destination means client mode.
func (s AppSettings) IsClient() bool {
	return strings.TrimSpace(s.TargetSubreddit) != ""
}

// IsServer reports whether this instance ingests events. An instance with
// no destination is the server; so is one whose destination is its own
// community, which records actions in the place they are generated.
func (s AppSettings) IsServer(currentSubreddit string) bool {
	destination := strings.TrimSpace(s.TargetSubreddit)
	if destination == "" {
		return true
	}
	return strings.EqualFold(destination, strings.TrimSpace(currentSubreddit))
}

// AllowsAction reports whether the action type is on the allowlist.
func (s AppSettings) AllowsAction(action ModActionType) bool {
	for _, a := range s.ModerationActions {
		if a == string(action) {
			return true
		}
	}
	return false
}

// ToHash flattens the snapshot into a string map for hash-typed storage,
// each field JSON-encoded.
func (s AppSettings) ToHash() (map[string]string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	hash := make(map[string]string, len(fields))
	for k, v := range fields {
		hash[k] = string(v)
	}
	return hash, nil
}

// SettingsFromHash is the inverse of ToHash.
func SettingsFromHash(hash map[string]string) (AppSettings, error) {
	fields := make(map[string]json.RawMessage, len(hash))
	for k, v := range hash {
		fields[k] = json.RawMessage(v)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return AppSettings{}, err
	}

	var s AppSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return AppSettings{}, err
	}
	return s, nil
}
