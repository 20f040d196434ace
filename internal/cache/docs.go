// Package cache provides a Redis read-through decorator for the permission
// document store. Reads consult Redis first; writes go straight to the
// underlying store and invalidate the cached entry. Redis failures degrade to
// plain store access and are logged, never surfaced.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/message-manager-discord/backend/internal/database"
	"github.com/message-manager-discord/backend/internal/models"
	"github.com/message-manager-discord/backend/internal/redis"
)

// nullDoc is cached for guilds/channels that have no document, so repeated
// lookups of override-free channels skip the database.
var nullDoc = []byte("null")

// CachedStore wraps a PermissionStore with a Redis read-through cache.
type CachedStore struct {
	store database.PermissionStore
	redis *redis.Client
}

// NewCachedStore creates a CachedStore over the given store and Redis client.
func NewCachedStore(store database.PermissionStore, rdb *redis.Client) *CachedStore {
	return &CachedStore{store: store, redis: rdb}
}

var _ database.PermissionStore = (*CachedStore)(nil)

func (c *CachedStore) GetGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error) {
	raw, err := c.redis.GetGuildDoc(ctx, guildID)
	if err == nil {
		var doc *models.GuildPermissionDoc
		if err := json.Unmarshal(raw, &doc); err == nil {
			if doc != nil {
				doc.Normalize()
			}
			return doc, nil
		}
		slog.Warn("discarding undecodable cached guild doc", "guildID", guildID)
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		slog.Error("guild doc cache read failed", "guildID", guildID, "error", err)
	}

	doc, err := c.store.GetGuildDoc(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, guildID, doc == nil, doc, c.redis.SetGuildDoc)
	return doc, nil
}

func (c *CachedStore) PutGuildDoc(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error {
	if err := c.store.PutGuildDoc(ctx, guildID, doc); err != nil {
		return err
	}
	if err := c.redis.DeleteGuildDoc(ctx, guildID); err != nil {
		slog.Error("guild doc cache invalidation failed", "guildID", guildID, "error", err)
	}
	return nil
}

func (c *CachedStore) GetChannelDoc(ctx context.Context, channelID string) (*models.ChannelPermissionDoc, error) {
	raw, err := c.redis.GetChannelDoc(ctx, channelID)
	if err == nil {
		var doc *models.ChannelPermissionDoc
		if err := json.Unmarshal(raw, &doc); err == nil {
			if doc != nil {
				doc.Normalize()
			}
			return doc, nil
		}
		slog.Warn("discarding undecodable cached channel doc", "channelID", channelID)
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		slog.Error("channel doc cache read failed", "channelID", channelID, "error", err)
	}

	doc, err := c.store.GetChannelDoc(ctx, channelID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, channelID, doc == nil, doc, c.redis.SetChannelDoc)
	return doc, nil
}

func (c *CachedStore) PutChannelDoc(ctx context.Context, channelID, guildID string, doc *models.ChannelPermissionDoc) error {
	if err := c.store.PutChannelDoc(ctx, channelID, guildID, doc); err != nil {
		return err
	}
	if err := c.redis.DeleteChannelDoc(ctx, channelID); err != nil {
		slog.Error("channel doc cache invalidation failed", "channelID", channelID, "error", err)
	}
	return nil
}

// fill stores a freshly loaded document (or its absence) in Redis.
func (c *CachedStore) fill(ctx context.Context, id string, absent bool, doc any, set func(context.Context, string, []byte) error) {
	raw := nullDoc
	if !absent {
		encoded, err := json.Marshal(doc)
		if err != nil {
			slog.Error("encoding doc for cache failed", "id", id, "error", err)
			return
		}
		raw = encoded
	}
	if err := set(ctx, id, raw); err != nil {
		slog.Error("doc cache fill failed", "id", id, "error", err)
	}
}
