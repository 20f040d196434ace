package database

import (
	"context"

	"github.com/message-manager-discord/backend/internal/models"
)

// PermissionStore reads and writes whole permission documents. A nil document
// with a nil error means the guild or channel has no overrides at all.
//
// Writes are plain upserts; two concurrent writers to the same document race
// last-write-wins at the database's native consistency level.
type PermissionStore interface {
	GetGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error)
	PutGuildDoc(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error
	GetChannelDoc(ctx context.Context, channelID string) (*models.ChannelPermissionDoc, error)
	PutChannelDoc(ctx context.Context, channelID, guildID string, doc *models.ChannelPermissionDoc) error
}
