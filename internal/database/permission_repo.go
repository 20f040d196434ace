package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/message-manager-discord/backend/internal/models"
)

type permissionRepo struct {
	pool *pgxpool.Pool
}

// NewPermissionStore creates a Postgres-backed PermissionStore.
func NewPermissionStore(pool *pgxpool.Pool) PermissionStore {
	return &permissionRepo{pool: pool}
}

func (r *permissionRepo) GetGuildDoc(ctx context.Context, guildID string) (*models.GuildPermissionDoc, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM guild_permissions WHERE guild_id = $1`, guildID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading guild permission doc: %w", err)
	}

	var doc models.GuildPermissionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding guild permission doc: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}

func (r *permissionRepo) PutGuildDoc(ctx context.Context, guildID string, doc *models.GuildPermissionDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding guild permission doc: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO guild_permissions (guild_id, doc)
		 VALUES ($1, $2)
		 ON CONFLICT (guild_id)
		 DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		guildID, raw,
	)
	if err != nil {
		return fmt.Errorf("storing guild permission doc: %w", err)
	}
	return nil
}

func (r *permissionRepo) GetChannelDoc(ctx context.Context, channelID string) (*models.ChannelPermissionDoc, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM channel_permissions WHERE channel_id = $1`, channelID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading channel permission doc: %w", err)
	}

	var doc models.ChannelPermissionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding channel permission doc: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}

func (r *permissionRepo) PutChannelDoc(ctx context.Context, channelID, guildID string, doc *models.ChannelPermissionDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding channel permission doc: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO channel_permissions (channel_id, guild_id, doc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id)
		 DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		channelID, guildID, raw,
	)
	if err != nil {
		return fmt.Errorf("storing channel permission doc: %w", err)
	}
	return nil
}
