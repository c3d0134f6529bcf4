package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
)

// Craft service errors.
var (
	ErrNoRecipe         = errors.New("no recipe produces this item")
	ErrAmbiguousRecipe  = errors.New("multiple recipes produce this item")
	ErrMissingMaterials = errors.New("required materials not available")
	ErrInvalidCraftSpec = errors.New("amount must be a number or 'max'")
)

// CraftResult summarizes a completed craft.
type CraftResult struct {
	RecipeID   int64
	RecipeName string
	Multiplier int64
	Outputs    []model.RecipeResult
}

// CraftService resolves recipes and fabricates items. Requirements
// marked not-consumed (tools like the furnace) must be held but
// survive the craft.
type CraftService struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	inventory *repository.InventoryRepository
	recipes   *repository.RecipeRepository
	locks     *lock.UserLock
}

// NewCraftService creates a new CraftService instance.
func NewCraftService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	inventory *repository.InventoryRepository,
	recipes *repository.RecipeRepository,
	locks *lock.UserLock,
) *CraftService {
	return &CraftService{
		pool:      pool,
		users:     users,
		inventory: inventory,
		recipes:   recipes,
		locks:     locks,
	}
}

// RecipesFor lists the recipes that produce an item. Callers use this
// to disambiguate when CraftByItem reports ErrAmbiguousRecipe.
func (s *CraftService) RecipesFor(ctx context.Context, itemID int64) ([]model.Recipe, error) {
	return s.recipes.FindByResultItem(ctx, itemID)
}

// CraftByItem crafts the item's sole recipe. Fails with
// ErrAmbiguousRecipe when more than one recipe produces the item.
func (s *CraftService) CraftByItem(ctx context.Context, userID, itemID int64, amountSpec string) (*CraftResult, error) {
	recipes, err := s.recipes.FindByResultItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	switch len(recipes) {
	case 0:
		return nil, ErrNoRecipe
	case 1:
		return s.Craft(ctx, userID, recipes[0].ID, amountSpec)
	default:
		return nil, ErrAmbiguousRecipe
	}
}

// Craft fabricates amountSpec batches of a recipe. "max" (or "all")
// crafts as many as the consumed materials allow.
func (s *CraftService) Craft(ctx context.Context, userID, recipeID int64, amountSpec string) (*CraftResult, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrNoRecipe
		}
		return nil, err
	}
	reqs, err := s.recipes.GetRequirements(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNoRecipe
	}
	results, err := s.recipes.GetResults(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	multiplier, err := s.resolveMultiplier(ctx, userID, reqs, amountSpec)
	if err != nil {
		return nil, err
	}
	if multiplier < 1 {
		return nil, ErrMissingMaterials
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin craft tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Validate every requirement, reusable tools included.
	for _, req := range reqs {
		held, err := s.inventory.QuantityForUpdate(ctx, tx, userID, req.ItemID)
		if err != nil {
			return nil, err
		}
		needed := req.Quantity
		if req.IsConsumed {
			needed *= multiplier
		}
		if held < needed {
			return nil, ErrMissingMaterials
		}
	}

	for _, req := range reqs {
		if !req.IsConsumed {
			continue
		}
		if err := s.inventory.Remove(ctx, tx, userID, req.ItemID, req.Quantity*multiplier); err != nil {
			return nil, err
		}
	}

	crafted := make([]model.RecipeResult, 0, len(results))
	for _, res := range results {
		qty := res.Quantity * multiplier
		if err := s.inventory.Add(ctx, tx, userID, res.ItemID, qty); err != nil {
			return nil, err
		}
		crafted = append(crafted, model.RecipeResult{RecipeID: recipeID, ItemID: res.ItemID, Quantity: qty})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit craft tx: %w", err)
	}

	return &CraftResult{RecipeID: recipeID, RecipeName: recipe.Name, Multiplier: multiplier, Outputs: crafted}, nil
}

// resolveMultiplier turns the amount spec into a batch count. The max
// batch count is bounded only by consumed requirements; a single held
// tool supports any number of batches.
func (s *CraftService) resolveMultiplier(ctx context.Context, userID int64, reqs []model.RecipeRequirement, amountSpec string) (int64, error) {
	spec := strings.ToLower(strings.TrimSpace(amountSpec))
	if spec != "max" && spec != "all" {
		n, err := strconv.ParseInt(spec, 10, 64)
		if err != nil {
			return 0, ErrInvalidCraftSpec
		}
		if n < 1 {
			return 0, ErrInvalidCraftSpec
		}
		return n, nil
	}

	var maxCraftable int64 = -1
	for _, req := range reqs {
		if !req.IsConsumed {
			continue
		}
		held, err := s.inventory.Quantity(ctx, s.pool, userID, req.ItemID)
		if err != nil {
			return 0, err
		}
		batches := held / req.Quantity
		if maxCraftable < 0 || batches < maxCraftable {
			maxCraftable = batches
		}
	}
	if maxCraftable < 0 {
		// Every requirement is a reusable tool; one batch.
		maxCraftable = 1
	}
	return maxCraftable, nil
}
