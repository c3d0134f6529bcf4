package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LotteryRepository stores pending lottery entries. Each used ticket
// becomes one row; the draw consumes them.
type LotteryRepository struct {
	pool *pgxpool.Pool
}

// NewLotteryRepository creates a new LotteryRepository instance.
func NewLotteryRepository(pool *pgxpool.Pool) *LotteryRepository {
	return &LotteryRepository{pool: pool}
}

// AddEntries inserts n entries for a user.
func (r *LotteryRepository) AddEntries(ctx context.Context, q Querier, userID int64, n int64) error {
	const query = `
		INSERT INTO lottery (user_id, created_at)
		SELECT $1, NOW() FROM generate_series(1, $2)
	`
	if _, err := q.Exec(ctx, query, userID, n); err != nil {
		return fmt.Errorf("failed to add lottery entries: %w", err)
	}
	return nil
}

// CountEntries returns how many entries a user holds.
func (r *LotteryRepository) CountEntries(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM lottery WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lottery entries: %w", err)
	}
	return count, nil
}
