package models

type ModActionType string

const (
	// vInitial
	ActionRemoveLink       ModActionType = "removelink"
	ActionSpamLink         ModActionType = "spamlink"
	ActionApproveLink      ModActionType = "approvelink"
	ActionRemoveComment    ModActionType = "removecomment"
	ActionSpamComment      ModActionType = "spamcomment"
	ActionApproveComment   ModActionType = "approvecomment"
	ActionBanUser          ModActionType = "banuser"
	ActionUnbanUser        ModActionType = "unbanuser"
	ActionMuteUser         ModActionType = "muteuser"
	ActionUnmuteUser       ModActionType = "unmuteuser"
	ActionLockSubmission   ModActionType = "lock"
	ActionUnlockSubmission ModActionType = "unlock"

	// v1.3
	ActionAddModerator          ModActionType = "addmoderator"
	ActionInviteModerator       ModActionType = "invitemoderator"
	ActionAcceptModeratorInvite ModActionType = "acceptmoderatorinvite"
	ActionRemoveModerator       ModActionType = "removemoderator"
	ActionAddContributor        ModActionType = "addcontributor"
	ActionRemoveContributor     ModActionType = "removecontributor"
)

// SupportedModActions is the set of actions the protocol knows how to ship.
// Anything else is rejected before it reaches the transmission queue.
var SupportedModActions = []ModActionType{
	ActionRemoveLink, ActionSpamLink, ActionApproveLink,
	ActionRemoveComment, ActionSpamComment, ActionApproveComment,
	ActionBanUser, ActionUnbanUser, ActionMuteUser, ActionUnmuteUser,
	ActionLockSubmission, ActionUnlockSubmission,
	ActionAddModerator, ActionInviteModerator, ActionAcceptModeratorInvite,
	ActionRemoveModerator, ActionAddContributor, ActionRemoveContributor,
}

func IsSupportedModAction(action ModActionType) bool {
	for _, a := range SupportedModActions {
		if a == action {
			return true
		}
	}
	return false
}

// Phrase tables for rendering public extracts. Titles take the form
// "<moderator> <past simple> <preposition> <subreddit>".

var ModActionPastSimple = map[ModActionType]string{
	ActionRemoveLink:       "removed a post",
	ActionSpamLink:         "marked a post as spam",
	ActionApproveLink:      "approved a post",
	ActionRemoveComment:    "removed a comment",
	ActionSpamComment:      "marked a comment as spam",
	ActionApproveComment:   "approved a comment",
	ActionBanUser:          "banned a user",
	ActionUnbanUser:        "unbanned a user",
	ActionMuteUser:         "muted a user",
	ActionUnmuteUser:       "unmuted a user",
	ActionLockSubmission:   "locked a submission",
	ActionUnlockSubmission: "unlocked a submission",

	ActionAddModerator:          "added a moderator",
	ActionInviteModerator:       "invited a moderator",
	ActionAcceptModeratorInvite: "accepted an invitation to moderate",
	ActionRemoveModerator:       "removed a moderator",
	ActionAddContributor:        "added an approved submitter",
	ActionRemoveContributor:     "removed an approved submitter",
}

var ModActionPreposition = map[ModActionType]string{
	ActionRemoveLink:       "from",
	ActionSpamLink:         "in",
	ActionApproveLink:      "in",
	ActionRemoveComment:    "from",
	ActionSpamComment:      "in",
	ActionApproveComment:   "in",
	ActionBanUser:          "from",
	ActionUnbanUser:        "from",
	ActionMuteUser:         "in",
	ActionUnmuteUser:       "in",
	ActionLockSubmission:   "in",
	ActionUnlockSubmission: "in",

	ActionAddModerator:          "to",
	ActionInviteModerator:       "to",
	ActionAcceptModeratorInvite: "", // no preposition, the title writer accounts for this
	ActionRemoveModerator:       "from",
	ActionAddContributor:        "to",
	ActionRemoveContributor:     "from",
}

var ModActionTargetNoun = map[ModActionType]string{
	ActionRemoveLink:       "Author",
	ActionSpamLink:         "Author",
	ActionApproveLink:      "Author",
	ActionRemoveComment:    "Author",
	ActionSpamComment:      "Author",
	ActionApproveComment:   "Author",
	ActionBanUser:          "Banned User",
	ActionUnbanUser:        "Unbanned User",
	ActionMuteUser:         "Muted User",
	ActionUnmuteUser:       "Unmuted User",
	ActionLockSubmission:   "Author",
	ActionUnlockSubmission: "Author",

	ActionAddModerator:          "New Moderator",
	ActionInviteModerator:       "New Moderator",
	ActionAcceptModeratorInvite: "New Moderator",
	ActionRemoveModerator:       "Removed Moderator",
	ActionAddContributor:        "Newly Approved User",
	ActionRemoveContributor:     "Previously Approved User",
}
