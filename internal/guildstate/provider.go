// Package guildstate defines the read-only view of platform guild state the
// permission core needs: role ordering, thread parentage, and the
// platform-level administrator capability. The Discord-backed implementation
// lives in internal/discord.
package guildstate

import (
	"context"
	"errors"
)

var (
	// ErrGuildNotCached means the guild is unknown to the local state cache,
	// usually because the bot was never (re)invited to it.
	ErrGuildNotCached = errors.New("guild not cached")

	// ErrGuildUnavailable means the platform reports the guild as temporarily
	// unavailable; callers should retry later.
	ErrGuildUnavailable = errors.New("guild temporarily unavailable")

	// ErrRoleNotFound means the role does not exist in the guild.
	ErrRoleNotFound = errors.New("role not found")

	// ErrChannelNotFound means the channel does not exist in the guild.
	ErrChannelNotFound = errors.New("channel not found")
)

// Provider resolves guild state needed by permission checks and mutations.
type Provider interface {
	// MemberRoleIDs returns the IDs of all roles the user holds in the guild.
	MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error)

	// IsPlatformAdmin reports whether the user holds the platform-level
	// administrator capability in the guild (or is the guild owner).
	IsPlatformAdmin(ctx context.Context, guildID, userID string) (bool, error)

	// HighestRolePosition returns the position of the highest role the user
	// holds in the guild's role ordering.
	HighestRolePosition(ctx context.Context, guildID, userID string) (int, error)

	// RolePosition returns the position of a role in the guild's role
	// ordering, or ErrRoleNotFound.
	RolePosition(ctx context.Context, guildID, roleID string) (int, error)

	// EffectiveChannel maps a channel to the channel that owns permission
	// documents: threads redirect to their parent, everything else maps to
	// itself.
	EffectiveChannel(ctx context.Context, guildID, channelID string) (string, error)
}
