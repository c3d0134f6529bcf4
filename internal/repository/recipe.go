package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// Recipe errors.
var (
	ErrRecipeNotFound = errors.New("recipe not found")
)

// RecipeRepository reads crafting reference data.
type RecipeRepository struct {
	pool *pgxpool.Pool
}

// NewRecipeRepository creates a new RecipeRepository instance.
func NewRecipeRepository(pool *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{pool: pool}
}

// GetByID retrieves a recipe header.
func (r *RecipeRepository) GetByID(ctx context.Context, recipeID int64) (*model.Recipe, error) {
	const query = `SELECT id, name FROM recipes WHERE id = $1`

	var rec model.Recipe
	err := r.pool.QueryRow(ctx, query, recipeID).Scan(&rec.ID, &rec.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &rec, nil
}

// FindByResultItem lists every recipe producing the given item.
func (r *RecipeRepository) FindByResultItem(ctx context.Context, itemID int64) ([]model.Recipe, error) {
	const query = `
		SELECT DISTINCT r.id, r.name
		FROM recipes r
		INNER JOIN recipe_results rr ON rr.recipe_id = r.id
		WHERE rr.item_id = $1
		ORDER BY r.id
	`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		var rec model.Recipe
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// GetRequirements lists a recipe's input lines.
func (r *RecipeRepository) GetRequirements(ctx context.Context, recipeID int64) ([]model.RecipeRequirement, error) {
	const query = `
		SELECT recipe_id, item_id, quantity, is_consumed
		FROM recipe_requirements
		WHERE recipe_id = $1
		ORDER BY item_id
	`
	rows, err := r.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe requirements: %w", err)
	}
	defer rows.Close()

	var reqs []model.RecipeRequirement
	for rows.Next() {
		var req model.RecipeRequirement
		if err := rows.Scan(&req.RecipeID, &req.ItemID, &req.Quantity, &req.IsConsumed); err != nil {
			return nil, fmt.Errorf("failed to scan recipe requirement: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// GetResults lists a recipe's output lines.
func (r *RecipeRepository) GetResults(ctx context.Context, recipeID int64) ([]model.RecipeResult, error) {
	const query = `
		SELECT recipe_id, item_id, quantity
		FROM recipe_results
		WHERE recipe_id = $1
		ORDER BY item_id
	`
	rows, err := r.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe results: %w", err)
	}
	defer rows.Close()

	var results []model.RecipeResult
	for rows.Next() {
		var res model.RecipeResult
		if err := rows.Scan(&res.RecipeID, &res.ItemID, &res.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
