package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/message-manager-discord/backend/internal/models"
	redisclient "github.com/message-manager-discord/backend/internal/redis"
)

func newTestRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

// memStore is an in-memory PermissionStore that counts reads.
type memStore struct {
	guildDocs   map[string]*models.GuildPermissionDoc
	channelDocs map[string]*models.ChannelPermissionDoc
	guildReads  int
	chanReads   int
}

func newMemStore() *memStore {
	return &memStore{
		guildDocs:   make(map[string]*models.GuildPermissionDoc),
		channelDocs: make(map[string]*models.ChannelPermissionDoc),
	}
}

func (s *memStore) GetGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error) {
	s.guildReads++
	return s.guildDocs[guildID], nil
}

func (s *memStore) PutGuildDoc(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error {
	s.guildDocs[guildID] = doc
	return nil
}

func (s *memStore) GetChannelDoc(ctx context.Context, channelID string) (*models.ChannelPermissionDoc, error) {
	s.chanReads++
	return s.channelDocs[channelID], nil
}

func (s *memStore) PutChannelDoc(ctx context.Context, channelID, guildID string, doc *models.ChannelPermissionDoc) error {
	s.channelDocs[channelID] = doc
	return nil
}

func TestCachedStore_GuildDocReadThrough(t *testing.T) {
	store := newMemStore()
	doc := models.NewGuildPermissionDoc()
	doc.Roles["r1"] = 0b11
	store.guildDocs["g1"] = doc

	cached := NewCachedStore(store, newTestRedis(t))
	ctx := context.Background()

	got, err := cached.GetGuildDoc(ctx, "g1")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if got == nil || got.Roles["r1"] != 0b11 {
		t.Fatalf("first read returned wrong doc: %+v", got)
	}
	if store.guildReads != 1 {
		t.Fatalf("expected one store read, got %d", store.guildReads)
	}

	// Second read is served from Redis.
	got, err = cached.GetGuildDoc(ctx, "g1")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if got == nil || got.Roles["r1"] != 0b11 {
		t.Fatalf("second read returned wrong doc: %+v", got)
	}
	if store.guildReads != 1 {
		t.Errorf("second read should hit the cache, store reads = %d", store.guildReads)
	}
}

func TestCachedStore_AbsentDocIsCached(t *testing.T) {
	store := newMemStore()
	cached := NewCachedStore(store, newTestRedis(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc, err := cached.GetChannelDoc(ctx, "c1")
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if doc != nil {
			t.Fatalf("read %d: expected nil doc, got %+v", i, doc)
		}
	}
	if store.chanReads != 1 {
		t.Errorf("absence should be cached after the first read, store reads = %d", store.chanReads)
	}
}

func TestCachedStore_PutInvalidates(t *testing.T) {
	store := newMemStore()
	cached := NewCachedStore(store, newTestRedis(t))
	ctx := context.Background()

	doc := models.NewGuildPermissionDoc()
	doc.Roles["r1"] = 0b01
	store.guildDocs["g1"] = doc

	if _, err := cached.GetGuildDoc(ctx, "g1"); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	updated := models.NewGuildPermissionDoc()
	updated.Roles["r1"] = 0b10
	if err := cached.PutGuildDoc(ctx, "g1", updated); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := cached.GetGuildDoc(ctx, "g1")
	if err != nil {
		t.Fatalf("read after put: %v", err)
	}
	if got.Roles["r1"] != 0b10 {
		t.Errorf("read after put should see the new doc, got %d", got.Roles["r1"])
	}
}

func TestCachedStore_ChannelPutInvalidates(t *testing.T) {
	store := newMemStore()
	cached := NewCachedStore(store, newTestRedis(t))
	ctx := context.Background()

	// Warm the negative cache, then create the document.
	if _, err := cached.GetChannelDoc(ctx, "c1"); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	doc := models.NewChannelPermissionDoc()
	doc.Users["u1"] = models.Override{Allow: 0b1}
	if err := cached.PutChannelDoc(ctx, "c1", "g1", doc); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := cached.GetChannelDoc(ctx, "c1")
	if err != nil {
		t.Fatalf("read after put: %v", err)
	}
	if got == nil || got.Users["u1"].Allow != 0b1 {
		t.Errorf("read after put should see the created doc, got %+v", got)
	}
}
