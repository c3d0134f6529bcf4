package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// Inventory errors.
var (
	ErrInsufficientItems = errors.New("insufficient items")
)

// InventoryRepository handles per-user item stacks.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository creates a new InventoryRepository instance.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Add credits quantity to a stack, creating it if missing.
func (r *InventoryRepository) Add(ctx context.Context, q Querier, userID, itemID, quantity int64) error {
	const query = `
		INSERT INTO inventory (user_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = inventory.quantity + $3
	`
	if _, err := q.Exec(ctx, query, userID, itemID, quantity); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	return nil
}

// Remove debits quantity from a stack, deleting the row when the stack
// is fully consumed. Fails with ErrInsufficientItems when the user
// holds less than quantity.
func (r *InventoryRepository) Remove(ctx context.Context, q Querier, userID, itemID, quantity int64) error {
	held, err := r.QuantityForUpdate(ctx, q, userID, itemID)
	if err != nil {
		return err
	}
	if held < quantity {
		return ErrInsufficientItems
	}
	if held == quantity {
		const del = `DELETE FROM inventory WHERE user_id = $1 AND item_id = $2`
		if _, err := q.Exec(ctx, del, userID, itemID); err != nil {
			return fmt.Errorf("failed to delete item stack: %w", err)
		}
		return nil
	}
	const update = `
		UPDATE inventory SET quantity = quantity - $3
		WHERE user_id = $1 AND item_id = $2
	`
	if _, err := q.Exec(ctx, update, userID, itemID, quantity); err != nil {
		return fmt.Errorf("failed to decrement item stack: %w", err)
	}
	return nil
}

// Quantity returns the held quantity, 0 when no stack exists.
func (r *InventoryRepository) Quantity(ctx context.Context, q Querier, userID, itemID int64) (int64, error) {
	const query = `
		SELECT quantity FROM inventory
		WHERE user_id = $1 AND item_id = $2
	`
	var quantity int64
	err := q.QueryRow(ctx, query, userID, itemID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get quantity: %w", err)
	}
	return quantity, nil
}

// QuantityForUpdate reads a stack under a row lock. Missing stacks
// report 0 without locking anything.
func (r *InventoryRepository) QuantityForUpdate(ctx context.Context, q Querier, userID, itemID int64) (int64, error) {
	const query = `
		SELECT quantity FROM inventory
		WHERE user_id = $1 AND item_id = $2
		FOR UPDATE
	`
	var quantity int64
	err := q.QueryRow(ctx, query, userID, itemID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to lock item stack: %w", err)
	}
	return quantity, nil
}

// ListByUser returns all non-empty stacks for a user.
func (r *InventoryRepository) ListByUser(ctx context.Context, userID int64) ([]model.InventoryEntry, error) {
	const query = `
		SELECT user_id, item_id, quantity FROM inventory
		WHERE user_id = $1 AND quantity > 0
		ORDER BY item_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var entries []model.InventoryEntry
	for rows.Next() {
		var e model.InventoryEntry
		if err := rows.Scan(&e.UserID, &e.ItemID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan inventory entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TotalItems sums every stack a user holds. Drives the inventory
// overload penalty on energy gains.
func (r *InventoryRepository) TotalItems(ctx context.Context, q Querier, userID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory
		WHERE user_id = $1
	`
	var total int64
	if err := q.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum inventory: %w", err)
	}
	return total, nil
}

// BestWeapon returns the strongest weapon a user holds (by max damage),
// or nil when unarmed.
func (r *InventoryRepository) BestWeapon(ctx context.Context, userID int64) (*model.Weapon, int64, error) {
	const query = `
		SELECT w.item_id, w.damage_min, w.damage_max, w.crit_rate, w.break_chance,
		       w.needs_ammo, COALESCE(w.ammo_item_id, 0), COALESCE(w.mag_capacity, 0), w.weapon_type,
		       i.quantity
		FROM inventory i
		INNER JOIN item_weapons w ON i.item_id = w.item_id
		WHERE i.user_id = $1 AND i.quantity > 0
		ORDER BY w.damage_max DESC
		LIMIT 1
	`
	var w model.Weapon
	var quantity int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.ItemID, &w.DamageMin, &w.DamageMax, &w.CritRate, &w.BreakChance,
		&w.NeedsAmmo, &w.AmmoItemID, &w.MagCapacity, &w.WeaponType,
		&quantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to find weapon: %w", err)
	}
	return &w, quantity, nil
}

// HasMiningTool reports whether the user holds any item carrying a
// mining_tool effect.
func (r *InventoryRepository) HasMiningTool(ctx context.Context, userID int64) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM inventory i
			INNER JOIN item_effects ie ON i.item_id = ie.item_id
			WHERE i.user_id = $1 AND ie.effect = 'mining_tool' AND i.quantity > 0
		)
	`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check mining tool: %w", err)
	}
	return ok, nil
}
