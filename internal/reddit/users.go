package reddit

import (
	"context"
	"log/slog"

	"github.com/spacesedan/openmod/internal/models"
)

// Special platform accounts cannot be resolved through the user APIs, so
// they are recognised by name or synthetic id and mapped to fixed
// identities. Lookups that fail for ordinary accounts degrade to the
// "unavailable" identity rather than an error, so the pipeline never blocks
// on a vanished user.

func specialAccount(name string) models.BasicUserData {
	// the redacted label is anti evil operations wearing a trench coat
	if name == models.SpecialAccountRedacted {
		name = models.SpecialAccountAntiEvil
	}
	return models.BasicUserData{
		ID:       models.SpecialAccountNameToID[name],
		Username: name,
		IsAdmin:  true,
		IsApp:    false,
	}
}

func unavailableAccount() models.BasicUserData {
	return models.BasicUserData{
		ID:       models.SpecialAccountNameToID[models.SpecialAccountUnavailable],
		Username: models.SpecialAccountUnavailable,
		IsAdmin:  false,
		IsApp:    false,
	}
}

// BasicUserInfoByUsername resolves username to the reduced user shape.
func BasicUserInfoByUsername(ctx context.Context, client Client, username string) models.BasicUserData {
	if _, ok := models.SpecialAccountNameToID[username]; ok {
		slog.Debug("[Reddit] Found special account", slog.String("username", username))
		return specialAccount(username)
	}

	user, err := client.UserByUsername(ctx, username)
	if err != nil || user == nil {
		slog.Debug("[Reddit] User unavailable", slog.String("username", username))
		return unavailableAccount()
	}

	return models.BasicUserData{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		IsApp:    false,
	}
}

// BasicUserInfoByID resolves a t2 id to the reduced user shape.
func BasicUserInfoByID(ctx context.Context, client Client, id string) models.BasicUserData {
	if name, ok := models.SpecialAccountIDToName[id]; ok {
		slog.Debug("[Reddit] Found special account", slog.String("id", id))
		return specialAccount(name)
	}

	user, err := client.UserByID(ctx, id)
	if err != nil || user == nil {
		slog.Debug("[Reddit] User unavailable", slog.String("id", id))
		return unavailableAccount()
	}

	return models.BasicUserData{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		IsApp:    false,
	}
}
