package service

import (
	"context"
	"log/slog"

	"github.com/message-manager-discord/backend/internal/database"
	"github.com/message-manager-discord/backend/internal/guildstate"
	"github.com/message-manager-discord/backend/internal/models"
	"github.com/message-manager-discord/backend/internal/permissions"
	"github.com/message-manager-discord/backend/internal/session"
)

// DefaultMaxEntries is the per-scope quota on role + user entries.
const DefaultMaxEntries = 50

// Notifier receives a change notification after every successful mutation so
// other open management sessions refresh. Implemented by *session.Cache.
type Notifier interface {
	TriggerUpdate(ctx context.Context, target session.Target, excludeMessageID string) error
}

// Manager orchestrates permission mutations: it authorizes the caller,
// enforces hierarchy and quota invariants, applies the bit operation to the
// stored document, persists it whole, and notifies open sessions.
//
// Mutations are load-modify-store on whole documents with no optimistic
// concurrency guard; two concurrent mutations of the same document race
// last-write-wins.
type Manager struct {
	store      database.PermissionStore
	state      guildstate.Provider
	checker    *PermissionChecker
	notifier   Notifier
	maxEntries int
}

// NewManager creates a Manager. maxEntries <= 0 selects DefaultMaxEntries.
func NewManager(store database.PermissionStore, state guildstate.Provider, checker *PermissionChecker, notifier Notifier, maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{
		store:      store,
		state:      state,
		checker:    checker,
		notifier:   notifier,
		maxEntries: maxEntries,
	}
}

// MaxEntries returns the configured per-scope entry quota.
func (m *Manager) MaxEntries() int { return m.maxEntries }

type overrideOp int

const (
	opAllow overrideOp = iota
	opDeny
	opReset
)

// applyOp applies a bit operation to an allow/deny pair. Allow sets bits in
// allow and clears them from deny; Deny the reverse; Reset clears both.
func applyOp(o models.Override, op overrideOp, bits permissions.Capability) models.Override {
	b := uint64(bits)
	switch op {
	case opAllow:
		o.Allow |= b
		o.Deny &^= b
	case opDeny:
		o.Deny |= b
		o.Allow &^= b
	case opReset:
		o.Allow &^= b
		o.Deny &^= b
	}
	return o
}

// GuildRoleSet replaces a role's base capability mask at guild scope. Setting
// zero removes the entry. Returns the stored mask.
func (m *Manager) GuildRoleSet(ctx context.Context, guildID, actorID, roleID string, mask permissions.Capability, excludeMessageID string) (permissions.Capability, error) {
	if err := m.checker.Require(ctx, guildID, "", actorID, permissions.CapManagePermissions); err != nil {
		return 0, err
	}
	if err := m.checkHierarchy(ctx, guildID, actorID, roleID); err != nil {
		return 0, err
	}

	doc, err := m.loadGuildDoc(ctx, guildID)
	if err != nil {
		return 0, err
	}

	current, exists := doc.Roles[roleID]
	if permissions.Capability(current) == mask {
		return mask, nil
	}
	if !exists {
		if mask == 0 {
			return 0, nil
		}
		if doc.EntryCount() >= m.maxEntries {
			return 0, LimitExceeded(m.maxEntries)
		}
	}

	if mask == 0 {
		delete(doc.Roles, roleID)
	} else {
		doc.Roles[roleID] = uint64(mask)
	}
	if err := m.store.PutGuildDoc(ctx, guildID, doc); err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}

	m.notify(ctx, session.Target{TargetID: roleID, GuildID: guildID}, excludeMessageID)
	return mask, nil
}

// GuildUserAllow grants capability bits to a user at guild scope.
func (m *Manager) GuildUserAllow(ctx context.Context, guildID, actorID, userID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.guildUserApply(ctx, guildID, actorID, userID, bits, opAllow, excludeMessageID)
}

// GuildUserDeny revokes capability bits from a user at guild scope.
func (m *Manager) GuildUserDeny(ctx context.Context, guildID, actorID, userID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.guildUserApply(ctx, guildID, actorID, userID, bits, opDeny, excludeMessageID)
}

// GuildUserReset clears capability bits from both sides of a user's guild
// override, restoring inheritance for those bits.
func (m *Manager) GuildUserReset(ctx context.Context, guildID, actorID, userID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.guildUserApply(ctx, guildID, actorID, userID, bits, opReset, excludeMessageID)
}

// ChannelRoleAllow grants capability bits to a role in one channel.
func (m *Manager) ChannelRoleAllow(ctx context.Context, guildID, channelID, actorID, roleID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.channelApply(ctx, guildID, channelID, actorID, roleID, true, bits, opAllow, excludeMessageID)
}

// ChannelRoleDeny revokes capability bits from a role in one channel.
func (m *Manager) ChannelRoleDeny(ctx context.Context, guildID, channelID, actorID, roleID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.channelApply(ctx, guildID, channelID, actorID, roleID, true, bits, opDeny, excludeMessageID)
}

// ChannelRoleReset clears capability bits from both sides of a role's channel
// override.
func (m *Manager) ChannelRoleReset(ctx context.Context, guildID, channelID, actorID, roleID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.channelApply(ctx, guildID, channelID, actorID, roleID, true, bits, opReset, excludeMessageID)
}

// ChannelUserAllow grants capability bits to a user in one channel.
func (m *Manager) ChannelUserAllow(ctx context.Context, guildID, channelID, actorID, userID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.channelApply(ctx, guildID, channelID, actorID, userID, false, bits, opAllow, excludeMessageID)
}

// ChannelUserDeny revokes capability bits from a user in one channel.
func (m *Manager) ChannelUserDeny(ctx context.Context, guildID, channelID, actorID, userID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.channelApply(ctx, guildID, channelID, actorID, userID, false, bits, opDeny, excludeMessageID)
}

// ChannelUserReset clears capability bits from both sides of a user's channel
// override.
func (m *Manager) ChannelUserReset(ctx context.Context, guildID, channelID, actorID, userID string, bits permissions.Capability, excludeMessageID string) (models.Override, error) {
	return m.channelApply(ctx, guildID, channelID, actorID, userID, false, bits, opReset, excludeMessageID)
}

func (m *Manager) guildUserApply(ctx context.Context, guildID, actorID, userID string, bits permissions.Capability, op overrideOp, excludeMessageID string) (models.Override, error) {
	if err := m.checker.Require(ctx, guildID, "", actorID, permissions.CapManagePermissions); err != nil {
		return models.Override{}, err
	}

	doc, err := m.loadGuildDoc(ctx, guildID)
	if err != nil {
		return models.Override{}, err
	}

	entry, exists := doc.Users[userID]
	if bits == 0 {
		return entry, nil
	}

	updated := applyOp(entry, op, bits)
	if updated == entry {
		return entry, nil
	}
	if !exists && !updated.IsZero() && doc.EntryCount() >= m.maxEntries {
		return entry, LimitExceeded(m.maxEntries)
	}

	if updated.IsZero() {
		delete(doc.Users, userID)
	} else {
		doc.Users[userID] = updated
	}
	if err := m.store.PutGuildDoc(ctx, guildID, doc); err != nil {
		return entry, Internal("INTERNAL", "internal server error")
	}

	m.notify(ctx, session.Target{TargetID: userID, GuildID: guildID}, excludeMessageID)
	return updated, nil
}

func (m *Manager) channelApply(ctx context.Context, guildID, channelID, actorID, targetID string, isRole bool, bits permissions.Capability, op overrideOp, excludeMessageID string) (models.Override, error) {
	if err := m.checker.Require(ctx, guildID, channelID, actorID, permissions.CapManagePermissions); err != nil {
		return models.Override{}, err
	}
	if isRole {
		if err := m.checkHierarchy(ctx, guildID, actorID, targetID); err != nil {
			return models.Override{}, err
		}
	}

	// Threads never own a document; mutate the parent channel's.
	effective, err := m.state.EffectiveChannel(ctx, guildID, channelID)
	if err != nil {
		return models.Override{}, mapStateErr(err)
	}

	doc, err := m.store.GetChannelDoc(ctx, effective)
	if err != nil {
		return models.Override{}, Internal("INTERNAL", "internal server error")
	}
	if doc == nil {
		doc = models.NewChannelPermissionDoc()
	}

	entries := doc.Users
	if isRole {
		entries = doc.Roles
	}

	entry, exists := entries[targetID]
	if bits == 0 {
		return entry, nil
	}

	updated := applyOp(entry, op, bits)
	if updated == entry {
		return entry, nil
	}
	if !exists && !updated.IsZero() && doc.EntryCount() >= m.maxEntries {
		return entry, LimitExceeded(m.maxEntries)
	}

	if updated.IsZero() {
		delete(entries, targetID)
	} else {
		entries[targetID] = updated
	}
	if err := m.store.PutChannelDoc(ctx, effective, guildID, doc); err != nil {
		return entry, Internal("INTERNAL", "internal server error")
	}

	m.notify(ctx, session.Target{TargetID: targetID, ChannelID: effective, GuildID: guildID}, excludeMessageID)
	return updated, nil
}

// loadGuildDoc reads the guild document, creating an empty one lazily.
func (m *Manager) loadGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error) {
	doc, err := m.store.GetGuildDoc(ctx, guildID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if doc == nil {
		doc = models.NewGuildPermissionDoc()
	}
	return doc, nil
}

// checkHierarchy enforces the anti-escalation rule: the target role must sit
// strictly below the caller's highest role in the guild's role ordering.
func (m *Manager) checkHierarchy(ctx context.Context, guildID, actorID, roleID string) error {
	targetPos, err := m.state.RolePosition(ctx, guildID, roleID)
	if err != nil {
		return mapStateErr(err)
	}
	highest, err := m.state.HighestRolePosition(ctx, guildID, actorID)
	if err != nil {
		return mapStateErr(err)
	}
	if targetPos >= highest {
		return RoleHierarchyError("you can only manage permissions for roles below your highest role")
	}
	return nil
}

// notify tells the session cache that a target's permission state changed.
// Push failures are logged, never surfaced: the mutation already committed.
func (m *Manager) notify(ctx context.Context, target session.Target, excludeMessageID string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.TriggerUpdate(ctx, target, excludeMessageID); err != nil {
		slog.Error("permission update push failed",
			"targetID", target.TargetID, "channelID", target.ChannelID,
			"guildID", target.GuildID, "error", err)
	}
}
