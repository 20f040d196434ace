package service

import (
	"context"
	"errors"

	"github.com/message-manager-discord/backend/internal/database"
	"github.com/message-manager-discord/backend/internal/guildstate"
	"github.com/message-manager-discord/backend/internal/permissions"
)

// PermissionChecker resolves effective capability masks for users by loading
// permission documents and guild state, then delegating to the pure resolver.
type PermissionChecker struct {
	store database.PermissionStore
	state guildstate.Provider
}

// NewPermissionChecker creates a PermissionChecker.
func NewPermissionChecker(store database.PermissionStore, state guildstate.Provider) *PermissionChecker {
	return &PermissionChecker{store: store, state: state}
}

// ResolveFor computes a user's effective capability mask in a guild, narrowed
// to a channel when channelID is non-empty. Thread channels resolve against
// their parent channel's document.
func (p *PermissionChecker) ResolveFor(ctx context.Context, guildID, channelID, userID string) (permissions.Capability, error) {
	isAdmin, err := p.state.IsPlatformAdmin(ctx, guildID, userID)
	if err != nil {
		return 0, mapStateErr(err)
	}
	if isAdmin {
		return permissions.CapAll, nil
	}

	roleIDs, err := p.state.MemberRoleIDs(ctx, guildID, userID)
	if err != nil {
		return 0, mapStateErr(err)
	}

	guildDoc, err := p.store.GetGuildDoc(ctx, guildID)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}

	if channelID == "" {
		return permissions.Resolve(userID, roleIDs, guildDoc, nil, false), nil
	}

	effective, err := p.state.EffectiveChannel(ctx, guildID, channelID)
	if err != nil {
		return 0, mapStateErr(err)
	}
	channelDoc, err := p.store.GetChannelDoc(ctx, effective)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}

	return permissions.Resolve(userID, roleIDs, guildDoc, channelDoc, false), nil
}

// Require checks that the user holds every bit of required at the given
// scope, returning a permission-denied error naming the missing bits.
func (p *PermissionChecker) Require(ctx context.Context, guildID, channelID, userID string, required permissions.Capability) error {
	resolved, err := p.ResolveFor(ctx, guildID, channelID, userID)
	if err != nil {
		return err
	}
	if ok, missing := permissions.HasAll(resolved, required); !ok {
		return PermissionDenied(missing)
	}
	return nil
}

// mapStateErr translates guild-state provider failures into the service error
// taxonomy with actionable messages.
func mapStateErr(err error) error {
	switch {
	case errors.Is(err, guildstate.ErrGuildNotCached):
		return UpstreamUnavailable("this server is not known to the bot; try reinviting it")
	case errors.Is(err, guildstate.ErrGuildUnavailable):
		return UpstreamUnavailable("this server is temporarily unavailable; try again later")
	case errors.Is(err, guildstate.ErrRoleNotFound):
		return NotFound("ROLE_NOT_FOUND", "role not found in this server")
	case errors.Is(err, guildstate.ErrChannelNotFound):
		return NotFound("CHANNEL_NOT_FOUND", "channel not found in this server")
	default:
		return Internal("INTERNAL", "internal server error")
	}
}
