package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// Catalog errors.
var (
	ErrItemNotFound   = errors.New("item not found")
	ErrWeaponNotFound = errors.New("weapon not found")
)

// CatalogRepository reads static reference data: the item catalog,
// on-use item effects, and weapon stat blocks.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository instance.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetItem retrieves an item by ID.
func (r *CatalogRepository) GetItem(ctx context.Context, itemID int64) (*model.Item, error) {
	const query = `
		SELECT id, name, description, icon, is_usable FROM items
		WHERE id = $1
	`
	var item model.Item
	err := r.pool.QueryRow(ctx, query, itemID).Scan(
		&item.ID, &item.Name, &item.Description, &item.Icon, &item.IsUsable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// FindItemByName resolves a case-insensitive partial name match.
func (r *CatalogRepository) FindItemByName(ctx context.Context, query string) (*model.Item, error) {
	const sql = `
		SELECT id, name, description, icon, is_usable FROM items
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY LENGTH(name)
		LIMIT 1
	`
	var item model.Item
	err := r.pool.QueryRow(ctx, sql, query).Scan(
		&item.ID, &item.Name, &item.Description, &item.Icon, &item.IsUsable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

// GetItemEffects returns the on-use effects of an item with their
// kinds resolved to the typed enum.
func (r *CatalogRepository) GetItemEffects(ctx context.Context, itemID int64) ([]model.ItemEffect, error) {
	const query = `
		SELECT item_id, effect, value, value_type FROM item_effects
		WHERE item_id = $1
	`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item effects: %w", err)
	}
	defer rows.Close()

	var effects []model.ItemEffect
	for rows.Next() {
		var e model.ItemEffect
		if err := rows.Scan(&e.ItemID, &e.RawKind, &e.RawValue, &e.ValueType); err != nil {
			return nil, fmt.Errorf("failed to scan item effect: %w", err)
		}
		e.Kind = model.ParseEffectKind(e.RawKind)
		if e.ValueType == "int" {
			if v, err := strconv.ParseInt(e.RawValue, 10, 64); err == nil {
				e.Value = v
			}
		}
		effects = append(effects, e)
	}
	return effects, rows.Err()
}

// GetWeapon returns the weapon stat block of an item.
func (r *CatalogRepository) GetWeapon(ctx context.Context, itemID int64) (*model.Weapon, error) {
	const query = `
		SELECT item_id, damage_min, damage_max, crit_rate, break_chance,
		       needs_ammo, COALESCE(ammo_item_id, 0), COALESCE(mag_capacity, 0), weapon_type
		FROM item_weapons
		WHERE item_id = $1
	`
	var w model.Weapon
	err := r.pool.QueryRow(ctx, query, itemID).Scan(
		&w.ItemID, &w.DamageMin, &w.DamageMax, &w.CritRate, &w.BreakChance,
		&w.NeedsAmmo, &w.AmmoItemID, &w.MagCapacity, &w.WeaponType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWeaponNotFound
		}
		return nil, fmt.Errorf("failed to get weapon: %w", err)
	}
	return &w, nil
}
