package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// LedgerRepository records coin movements for auditing. Every transfer
// of coins between users (gifts, robberies, market settlements) leaves
// a row here; balances themselves live on the users table.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Record writes one movement. Called inside the same transaction as the
// balance change it describes.
func (r *LedgerRepository) Record(ctx context.Context, q Querier, userID, amount int64, kind string, description *string) error {
	const query = `
		INSERT INTO coin_ledger (user_id, amount, kind, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := q.Exec(ctx, query, userID, amount, kind, description); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

// History returns a user's movements, newest first.
func (r *LedgerRepository) History(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	const query = `
		SELECT id, user_id, amount, kind, description, created_at
		FROM coin_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Kind, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// NetSince sums a user's movements from the given time onward.
func (r *LedgerRepository) NetSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0)
		FROM coin_ledger
		WHERE user_id = $1 AND created_at >= $2
	`
	var net int64
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&net); err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return net, nil
}
