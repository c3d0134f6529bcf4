package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// EffectRepository handles timed status effects. An effect's lifetime
// is duration ticks; expiry is measured against wall-clock time so a
// stalled ticker never extends an effect.
type EffectRepository struct {
	pool *pgxpool.Pool
}

// NewEffectRepository creates a new EffectRepository instance.
func NewEffectRepository(pool *pgxpool.Pool) *EffectRepository {
	return &EffectRepository{pool: pool}
}

// Apply upserts an effect. Re-triggering refreshes the duration
// instead of stacking.
func (r *EffectRepository) Apply(ctx context.Context, q Querier, userID int64, effectID model.EffectID, durationTicks int64) error {
	const query = `
		INSERT INTO current_effects (user_id, effect_id, duration, ticks, applied_at)
		VALUES ($1, $2, $3, $3, NOW())
		ON CONFLICT (user_id, effect_id) DO UPDATE
		SET duration = $3, ticks = $3, applied_at = NOW()
	`
	if _, err := q.Exec(ctx, query, userID, effectID, durationTicks); err != nil {
		return fmt.Errorf("failed to apply effect: %w", err)
	}
	return nil
}

// Remove deletes one effect from a user.
func (r *EffectRepository) Remove(ctx context.Context, q Querier, userID int64, effectID model.EffectID) error {
	const query = `
		DELETE FROM current_effects
		WHERE user_id = $1 AND effect_id = $2
	`
	if _, err := q.Exec(ctx, query, userID, effectID); err != nil {
		return fmt.Errorf("failed to remove effect: %w", err)
	}
	return nil
}

// Has reports whether a user carries the effect and it has not yet
// expired, given the tick length in seconds.
func (r *EffectRepository) Has(ctx context.Context, userID int64, effectID model.EffectID, tickSeconds float64) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM current_effects
			WHERE user_id = $1 AND effect_id = $2
			  AND EXTRACT(EPOCH FROM applied_at) + (duration * $3) > EXTRACT(EPOCH FROM clock_timestamp())
		)
	`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, userID, effectID, tickSeconds).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check effect: %w", err)
	}
	return ok, nil
}

// DeleteExpired removes every effect whose elapsed wall-clock time has
// reached duration ticks. Returns the number of rows removed.
func (r *EffectRepository) DeleteExpired(ctx context.Context, q Querier, tickSeconds float64) (int64, error) {
	const query = `
		DELETE FROM current_effects
		WHERE EXTRACT(EPOCH FROM applied_at) + (duration * $1) <= EXTRACT(EPOCH FROM clock_timestamp())
	`
	tag, err := q.Exec(ctx, query, tickSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired effects: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListActive returns every still-running effect.
func (r *EffectRepository) ListActive(ctx context.Context, q Querier, tickSeconds float64) ([]model.CurrentEffect, error) {
	const query = `
		SELECT user_id, effect_id, duration, ticks, applied_at
		FROM current_effects
		WHERE EXTRACT(EPOCH FROM applied_at) + (duration * $1) > EXTRACT(EPOCH FROM clock_timestamp())
	`
	rows, err := q.Query(ctx, query, tickSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to list active effects: %w", err)
	}
	defer rows.Close()

	var effects []model.CurrentEffect
	for rows.Next() {
		var e model.CurrentEffect
		if err := rows.Scan(&e.UserID, &e.EffectID, &e.Duration, &e.Ticks, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan effect: %w", err)
		}
		effects = append(effects, e)
	}
	return effects, rows.Err()
}

// ListByUser returns a user's current effects regardless of expiry.
func (r *EffectRepository) ListByUser(ctx context.Context, userID int64) ([]model.CurrentEffect, error) {
	const query = `
		SELECT user_id, effect_id, duration, ticks, applied_at
		FROM current_effects
		WHERE user_id = $1
		ORDER BY effect_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user effects: %w", err)
	}
	defer rows.Close()

	var effects []model.CurrentEffect
	for rows.Next() {
		var e model.CurrentEffect
		if err := rows.Scan(&e.UserID, &e.EffectID, &e.Duration, &e.Ticks, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan effect: %w", err)
		}
		effects = append(effects, e)
	}
	return effects, rows.Err()
}
