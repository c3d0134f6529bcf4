package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// GuildRepository handles per-guild feature toggles.
type GuildRepository struct {
	pool *pgxpool.Pool
}

// NewGuildRepository creates a new GuildRepository instance.
func NewGuildRepository(pool *pgxpool.Pool) *GuildRepository {
	return &GuildRepository{pool: pool}
}

// Get returns the guild config, falling back to the given default for
// unknown guilds.
func (r *GuildRepository) Get(ctx context.Context, guildID int64, defaultAllowRob bool) (*model.GuildConfig, error) {
	const query = `SELECT guild_id, allow_rob FROM guild_configs WHERE guild_id = $1`

	var cfg model.GuildConfig
	err := r.pool.QueryRow(ctx, query, guildID).Scan(&cfg.GuildID, &cfg.AllowRob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.GuildConfig{GuildID: guildID, AllowRob: defaultAllowRob}, nil
		}
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	return &cfg, nil
}

// SetAllowRob upserts the robbery toggle for a guild.
func (r *GuildRepository) SetAllowRob(ctx context.Context, guildID int64, allow bool) error {
	const query = `
		INSERT INTO guild_configs (guild_id, allow_rob)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET allow_rob = $2
	`
	if _, err := r.pool.Exec(ctx, query, guildID, allow); err != nil {
		return fmt.Errorf("failed to set guild config: %w", err)
	}
	return nil
}
