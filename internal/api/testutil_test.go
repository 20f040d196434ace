package api

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/message-manager-discord/backend/internal/guildstate"
	"github.com/message-manager-discord/backend/internal/models"
	"github.com/message-manager-discord/backend/internal/permissions"
	"github.com/message-manager-discord/backend/internal/service"
	"github.com/message-manager-discord/backend/internal/session"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID string) {
	c.Set("user_id", userID)
}

// ---------------------------------------------------------------------------
// Mock permission store
// ---------------------------------------------------------------------------

type mockStore struct {
	mu          sync.Mutex
	guildDocs   map[string]*models.GuildPermissionDoc
	channelDocs map[string]*models.ChannelPermissionDoc
}

func newMockStore() *mockStore {
	return &mockStore{
		guildDocs:   make(map[string]*models.GuildPermissionDoc),
		channelDocs: make(map[string]*models.ChannelPermissionDoc),
	}
}

func (m *mockStore) GetGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guildDocs[guildID], nil
}

func (m *mockStore) PutGuildDoc(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guildDocs[guildID] = doc
	return nil
}

func (m *mockStore) GetChannelDoc(ctx context.Context, channelID string) (*models.ChannelPermissionDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channelDocs[channelID], nil
}

func (m *mockStore) PutChannelDoc(ctx context.Context, channelID, guildID string, doc *models.ChannelPermissionDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelDocs[channelID] = doc
	return nil
}

// ---------------------------------------------------------------------------
// Mock guild state provider
// ---------------------------------------------------------------------------

type mockState struct {
	memberRoles   map[string][]string // guildID:userID -> role IDs
	admins        map[string]bool     // guildID:userID
	rolePositions map[string]int      // guildID:roleID
}

func newMockState() *mockState {
	return &mockState{
		memberRoles:   make(map[string][]string),
		admins:        make(map[string]bool),
		rolePositions: make(map[string]int),
	}
}

func (m *mockState) MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error) {
	return m.memberRoles[guildID+":"+userID], nil
}

func (m *mockState) IsPlatformAdmin(ctx context.Context, guildID, userID string) (bool, error) {
	return m.admins[guildID+":"+userID], nil
}

func (m *mockState) HighestRolePosition(ctx context.Context, guildID, userID string) (int, error) {
	highest := 0
	for _, roleID := range m.memberRoles[guildID+":"+userID] {
		if pos, ok := m.rolePositions[guildID+":"+roleID]; ok && pos > highest {
			highest = pos
		}
	}
	return highest, nil
}

func (m *mockState) RolePosition(ctx context.Context, guildID, roleID string) (int, error) {
	pos, ok := m.rolePositions[guildID+":"+roleID]
	if !ok {
		return 0, guildstate.ErrRoleNotFound
	}
	return pos, nil
}

func (m *mockState) EffectiveChannel(ctx context.Context, guildID, channelID string) (string, error) {
	return channelID, nil
}

// ---------------------------------------------------------------------------
// Mock notifier
// ---------------------------------------------------------------------------

type mockNotifier struct {
	mu      sync.Mutex
	targets []session.Target
}

func (m *mockNotifier) TriggerUpdate(ctx context.Context, target session.Target, excludeMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = append(m.targets, target)
	return nil
}

// ---------------------------------------------------------------------------
// Handler fixture
// ---------------------------------------------------------------------------

// newTestHandler builds a PermissionHandler over in-memory state. The actor
// "100" holds role "mod" (position 5) which grants MANAGE_PERMISSIONS in
// guild "g1".
func newTestHandler() (*PermissionHandler, *mockStore, *mockState) {
	return newTestHandlerWithLimit(service.DefaultMaxEntries)
}

func newTestHandlerWithLimit(maxEntries int) (*PermissionHandler, *mockStore, *mockState) {
	store := newMockStore()
	state := newMockState()

	state.memberRoles["g1:100"] = []string{"mod"}
	state.rolePositions["g1:mod"] = 5

	doc := models.NewGuildPermissionDoc()
	doc.Roles["mod"] = uint64(permissions.CapManagePermissions)
	store.guildDocs["g1"] = doc

	checker := service.NewPermissionChecker(store, state)
	manager := service.NewManager(store, state, checker, &mockNotifier{}, maxEntries)
	return NewPermissionHandler(manager, checker), store, state
}
