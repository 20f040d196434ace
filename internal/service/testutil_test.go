package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/message-manager-discord/backend/internal/guildstate"
	"github.com/message-manager-discord/backend/internal/models"
	"github.com/message-manager-discord/backend/internal/session"
)

var errRoleMissing = fmt.Errorf("%w: mock", guildstate.ErrRoleNotFound)

// ---------------------------------------------------------------------------
// Mock permission store
// ---------------------------------------------------------------------------

// mockStore implements database.PermissionStore in memory, with optional
// function overrides and write counters.
type mockStore struct {
	mu          sync.Mutex
	guildDocs   map[string]*models.GuildPermissionDoc
	channelDocs map[string]*models.ChannelPermissionDoc
	guildPuts   int
	channelPuts int

	GetGuildDocFn func(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error)
	PutGuildDocFn func(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error
}

func newMockStore() *mockStore {
	return &mockStore{
		guildDocs:   make(map[string]*models.GuildPermissionDoc),
		channelDocs: make(map[string]*models.ChannelPermissionDoc),
	}
}

func (s *mockStore) GetGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error) {
	if s.GetGuildDocFn != nil {
		return s.GetGuildDocFn(ctx, guildID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guildDocs[guildID], nil
}

func (s *mockStore) PutGuildDoc(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error {
	if s.PutGuildDocFn != nil {
		return s.PutGuildDocFn(ctx, guildID, doc)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guildPuts++
	s.guildDocs[guildID] = doc
	return nil
}

func (s *mockStore) GetChannelDoc(ctx context.Context, channelID string) (*models.ChannelPermissionDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelDocs[channelID], nil
}

func (s *mockStore) PutChannelDoc(ctx context.Context, channelID, guildID string, doc *models.ChannelPermissionDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelPuts++
	s.channelDocs[channelID] = doc
	return nil
}

// ---------------------------------------------------------------------------
// Mock guild-state provider
// ---------------------------------------------------------------------------

// mockState implements guildstate.Provider from plain maps. threadParents
// maps thread channel IDs to their parents; unlisted channels map to
// themselves.
type mockState struct {
	memberRoles   map[string][]string // userID → role IDs
	admins        map[string]bool     // userID → platform admin
	rolePositions map[string]int      // roleID → position
	threadParents map[string]string   // channelID → parent channel ID

	IsPlatformAdminFn func(ctx context.Context, guildID, userID string) (bool, error)
	MemberRoleIDsFn   func(ctx context.Context, guildID, userID string) ([]string, error)
}

func newMockState() *mockState {
	return &mockState{
		memberRoles:   make(map[string][]string),
		admins:        make(map[string]bool),
		rolePositions: make(map[string]int),
		threadParents: make(map[string]string),
	}
}

func (s *mockState) MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error) {
	if s.MemberRoleIDsFn != nil {
		return s.MemberRoleIDsFn(ctx, guildID, userID)
	}
	return s.memberRoles[userID], nil
}

func (s *mockState) IsPlatformAdmin(ctx context.Context, guildID, userID string) (bool, error) {
	if s.IsPlatformAdminFn != nil {
		return s.IsPlatformAdminFn(ctx, guildID, userID)
	}
	return s.admins[userID], nil
}

func (s *mockState) HighestRolePosition(ctx context.Context, guildID, userID string) (int, error) {
	highest := 0
	for _, roleID := range s.memberRoles[userID] {
		if pos, ok := s.rolePositions[roleID]; ok && pos > highest {
			highest = pos
		}
	}
	return highest, nil
}

func (s *mockState) RolePosition(ctx context.Context, guildID, roleID string) (int, error) {
	pos, ok := s.rolePositions[roleID]
	if !ok {
		return 0, errRoleMissing
	}
	return pos, nil
}

func (s *mockState) EffectiveChannel(ctx context.Context, guildID, channelID string) (string, error) {
	if parent, ok := s.threadParents[channelID]; ok {
		return parent, nil
	}
	return channelID, nil
}

// ---------------------------------------------------------------------------
// Mock notifier
// ---------------------------------------------------------------------------

type notification struct {
	Target  session.Target
	Exclude string
}

type mockNotifier struct {
	mu            sync.Mutex
	notifications []notification
	err           error
}

func (n *mockNotifier) TriggerUpdate(ctx context.Context, target session.Target, excludeMessageID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification{Target: target, Exclude: excludeMessageID})
	return n.err
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications)
}
