// Package discord implements the permission core's external collaborators on
// top of a discordgo session: the guild-state provider and the
// interaction-response push transport.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	gocache "github.com/patrickmn/go-cache"

	"github.com/message-manager-discord/backend/internal/guildstate"
)

// StateProvider resolves guild state from the discordgo state cache, falling
// back to the REST API for members the gateway has not delivered yet. Role
// orderings are cached briefly since hierarchy checks hit them on every
// mutation.
type StateProvider struct {
	session   *discordgo.Session
	positions *gocache.Cache
}

// NewStateProvider creates a StateProvider over an open discordgo session.
func NewStateProvider(session *discordgo.Session) *StateProvider {
	return &StateProvider{
		session:   session,
		positions: gocache.New(30*time.Second, time.Minute),
	}
}

var _ guildstate.Provider = (*StateProvider)(nil)

func (p *StateProvider) guild(guildID string) (*discordgo.Guild, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", guildstate.ErrGuildNotCached, guildID)
	}
	if guild.Unavailable {
		return nil, fmt.Errorf("%w: %s", guildstate.ErrGuildUnavailable, guildID)
	}
	return guild, nil
}

func (p *StateProvider) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	member, err := p.session.State.Member(guildID, userID)
	if err == nil {
		return member, nil
	}
	member, err = p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching member %s in guild %s: %w", userID, guildID, err)
	}
	return member, nil
}

func (p *StateProvider) MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error) {
	if _, err := p.guild(guildID); err != nil {
		return nil, err
	}
	member, err := p.member(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (p *StateProvider) IsPlatformAdmin(ctx context.Context, guildID, userID string) (bool, error) {
	guild, err := p.guild(guildID)
	if err != nil {
		return false, err
	}
	if guild.OwnerID == userID {
		return true, nil
	}

	member, err := p.member(ctx, guildID, userID)
	if err != nil {
		return false, err
	}

	held := make(map[string]bool, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = true
	}
	for _, role := range guild.Roles {
		// The @everyone role shares the guild's ID and applies to everyone.
		if !held[role.ID] && role.ID != guildID {
			continue
		}
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true, nil
		}
	}
	return false, nil
}

// rolePositions returns a roleID → position snapshot for the guild, cached
// for a short TTL.
func (p *StateProvider) rolePositions(guildID string) (map[string]int, error) {
	if cached, ok := p.positions.Get(guildID); ok {
		return cached.(map[string]int), nil
	}

	guild, err := p.guild(guildID)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]int, len(guild.Roles))
	for _, role := range guild.Roles {
		snapshot[role.ID] = role.Position
	}
	p.positions.SetDefault(guildID, snapshot)
	return snapshot, nil
}

func (p *StateProvider) HighestRolePosition(ctx context.Context, guildID, userID string) (int, error) {
	positions, err := p.rolePositions(guildID)
	if err != nil {
		return 0, err
	}
	member, err := p.member(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, roleID := range member.Roles {
		if pos, ok := positions[roleID]; ok && pos > highest {
			highest = pos
		}
	}
	return highest, nil
}

func (p *StateProvider) RolePosition(ctx context.Context, guildID, roleID string) (int, error) {
	positions, err := p.rolePositions(guildID)
	if err != nil {
		return 0, err
	}
	pos, ok := positions[roleID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", guildstate.ErrRoleNotFound, roleID)
	}
	return pos, nil
}

func (p *StateProvider) EffectiveChannel(ctx context.Context, guildID, channelID string) (string, error) {
	channel, err := p.session.State.Channel(channelID)
	if err != nil {
		channel, err = p.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			var restErr *discordgo.RESTError
			if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == 404 {
				return "", fmt.Errorf("%w: %s", guildstate.ErrChannelNotFound, channelID)
			}
			return "", fmt.Errorf("fetching channel %s: %w", channelID, err)
		}
	}
	if channel.GuildID != guildID {
		return "", fmt.Errorf("%w: %s", guildstate.ErrChannelNotFound, channelID)
	}
	if channel.IsThread() {
		return channel.ParentID, nil
	}
	return channelID, nil
}
