package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// Trade errors.
var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository handles market sell listings.
type TradeRepository struct {
	pool *pgxpool.Pool
}

// NewTradeRepository creates a new TradeRepository instance.
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

const tradeColumns = "id, user_id, item_id, quantity, price, created_at"

func scanTrade(row pgx.Row) (*model.Trade, error) {
	var t model.Trade
	err := row.Scan(&t.ID, &t.UserID, &t.ItemID, &t.Quantity, &t.Price, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Insert creates a listing and returns its ID.
func (r *TradeRepository) Insert(ctx context.Context, q Querier, sellerID, itemID, quantity, price int64) (int64, error) {
	const query = `
		INSERT INTO trades (user_id, item_id, quantity, price, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`
	var tradeID int64
	err := q.QueryRow(ctx, query, sellerID, itemID, quantity, price).Scan(&tradeID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade: %w", err)
	}
	return tradeID, nil
}

// GetByID retrieves a listing without locking it.
func (r *TradeRepository) GetByID(ctx context.Context, tradeID int64) (*model.Trade, error) {
	const query = `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	trade, err := scanTrade(r.pool.QueryRow(ctx, query, tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

// GetForUpdate retrieves a listing under a row lock. Must run inside
// a transaction; every buy/withdraw mutation goes through this.
func (r *TradeRepository) GetForUpdate(ctx context.Context, q Querier, tradeID int64) (*model.Trade, error) {
	const query = `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1 FOR UPDATE`

	trade, err := scanTrade(q.QueryRow(ctx, query, tradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to lock trade: %w", err)
	}
	return trade, nil
}

// DecrementOrDelete removes quantity from a listing, deleting the row
// when it reaches zero.
func (r *TradeRepository) DecrementOrDelete(ctx context.Context, q Querier, tradeID, quantity int64) error {
	const update = `
		UPDATE trades SET quantity = quantity - $2
		WHERE id = $1 AND quantity > $2
	`
	tag, err := q.Exec(ctx, update, tradeID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement trade: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	const del = `DELETE FROM trades WHERE id = $1 AND quantity = $2`
	tag, err = q.Exec(ctx, del, tradeID, quantity)
	if err != nil {
		return fmt.Errorf("failed to delete sold-out trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTradeNotFound
	}
	return nil
}

// Delete removes a listing outright (withdrawal).
func (r *TradeRepository) Delete(ctx context.Context, q Querier, tradeID int64) error {
	const query = `DELETE FROM trades WHERE id = $1`

	tag, err := q.Exec(ctx, query, tradeID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTradeNotFound
	}
	return nil
}

// List returns listings newest first.
func (r *TradeRepository) List(ctx context.Context, limit int) ([]model.Trade, error) {
	const query = `
		SELECT ` + tradeColumns + ` FROM trades
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.ItemID, &t.Quantity, &t.Price, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ListByUser returns one seller's listings.
func (r *TradeRepository) ListByUser(ctx context.Context, userID int64) ([]model.Trade, error) {
	const query = `
		SELECT ` + tradeColumns + ` FROM trades
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.ItemID, &t.Quantity, &t.Price, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
