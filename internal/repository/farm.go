package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// Farming errors.
var (
	ErrNotPlantable = errors.New("item is not plantable")
)

// FarmRepository handles farm reference data and growing sessions.
type FarmRepository struct {
	pool *pgxpool.Pool
}

// NewFarmRepository creates a new FarmRepository instance.
func NewFarmRepository(pool *pgxpool.Pool) *FarmRepository {
	return &FarmRepository{pool: pool}
}

// GetDefinitionByInput resolves the farm definition for a plantable
// item. Returns ErrNotPlantable when the item has none.
func (r *FarmRepository) GetDefinitionByInput(ctx context.Context, inputID int64) (*model.FarmDefinition, error) {
	const query = `
		SELECT farm_id, input_id, duration FROM farm_info
		WHERE input_id = $1
	`
	var def model.FarmDefinition
	err := r.pool.QueryRow(ctx, query, inputID).Scan(&def.FarmID, &def.InputID, &def.Duration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotPlantable
		}
		return nil, fmt.Errorf("failed to get farm definition: %w", err)
	}
	return &def, nil
}

// GetRewards lists the reward lines of a farm definition.
func (r *FarmRepository) GetRewards(ctx context.Context, farmID int64) ([]model.FarmReward, error) {
	const query = `
		SELECT farm_id, output_id, output_amount FROM farm_rewards
		WHERE farm_id = $1
	`
	rows, err := r.pool.Query(ctx, query, farmID)
	if err != nil {
		return nil, fmt.Errorf("failed to get farm rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.FarmReward
	for rows.Next() {
		var rw model.FarmReward
		if err := rows.Scan(&rw.FarmID, &rw.OutputID, &rw.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan farm reward: %w", err)
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

// CountSessions counts a user's active growing sessions.
func (r *FarmRepository) CountSessions(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM farm_sessions WHERE user_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count farm sessions: %w", err)
	}
	return count, nil
}

// ListSessions returns a user's sessions ordered by creation.
func (r *FarmRepository) ListSessions(ctx context.Context, userID int64) ([]model.FarmSession, error) {
	const query = `
		SELECT session_id, user_id, farm_id, created_at, duration, finished_at
		FROM farm_sessions
		WHERE user_id = $1
		ORDER BY session_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list farm sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.FarmSession
	for rows.Next() {
		var s model.FarmSession
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.FarmID, &s.CreatedAt, &s.Duration, &s.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan farm session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// InsertSession records a new planting.
func (r *FarmRepository) InsertSession(ctx context.Context, q Querier, userID, farmID int64, createdAt time.Time, duration int64, finishedAt time.Time) (int64, error) {
	const query = `
		INSERT INTO farm_sessions (user_id, farm_id, created_at, duration, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING session_id
	`
	var sessionID int64
	err := q.QueryRow(ctx, query, userID, farmID, createdAt, duration, finishedAt).Scan(&sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert farm session: %w", err)
	}
	return sessionID, nil
}

// DeleteSession removes a harvested session.
func (r *FarmRepository) DeleteSession(ctx context.Context, q Querier, sessionID int64) error {
	const query = `DELETE FROM farm_sessions WHERE session_id = $1`

	if _, err := q.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete farm session: %w", err)
	}
	return nil
}
