// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"hawk-economy-core/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Apply schema and seed data
	err = RunMigrations(ctx, pool)
	require.NoError(t, err)

	// Return cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_Ensure(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	// First call creates the account with default stats
	user, err := repo.Ensure(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.ID)
	assert.Equal(t, int64(0), user.Coins)
	assert.Equal(t, 100, user.Energy)
	assert.Equal(t, 100, user.EnergyMax)
	assert.Equal(t, 100, user.Mood)
	assert.False(t, user.CreatedAt.IsZero())

	// Second call must not reset mutated state
	_, err = repo.AddCoins(ctx, pool, 12345, 500)
	require.NoError(t, err)

	user, err = repo.Ensure(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(500), user.Coins)
}

func TestUserRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, 12345)
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.ID)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_Coins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, 12345)
	require.NoError(t, err)

	// Credit
	coins, err := repo.AddCoins(ctx, pool, 12345, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), coins)

	// Debit within balance
	coins, err = repo.DebitCoins(ctx, pool, 12345, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(600), coins)

	// Debit past balance must fail and leave coins untouched
	_, err = repo.DebitCoins(ctx, pool, 12345, 601)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(600), user.Coins)

	// Debit from a missing account
	_, err = repo.DebitCoins(ctx, pool, 99999, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_EnergyClamping(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, 12345)
	require.NoError(t, err)

	// Gain at full energy stays at the cap
	energy, err := repo.AddEnergy(ctx, pool, 12345, 50)
	require.NoError(t, err)
	assert.Equal(t, 100, energy)

	// Loss past zero floors at zero
	energy, err = repo.AddEnergy(ctx, pool, 12345, -150)
	require.NoError(t, err)
	assert.Equal(t, 0, energy)

	// Raising the cap does not change current energy
	energyMax, err := repo.RaiseEnergyMax(ctx, pool, 12345, 10)
	require.NoError(t, err)
	assert.Equal(t, 110, energyMax)

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, 0, user.Energy)
}

func TestUserRepository_SpendEnergy(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, 12345)
	require.NoError(t, err)

	ok, err := repo.SpendEnergy(ctx, pool, 12345, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	// Not enough left for another 60
	ok, err = repo.SpendEnergy(ctx, pool, 12345, 60)
	require.NoError(t, err)
	assert.False(t, ok)

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, 40, user.Energy)
}

func TestUserRepository_TopByCoins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	balances := map[int64]int64{1: 300, 2: 900, 3: 100, 4: 900}
	for id, coins := range balances {
		_, err := repo.Ensure(ctx, id)
		require.NoError(t, err)
		_, err = repo.AddCoins(ctx, pool, id, coins)
		require.NoError(t, err)
	}

	top, err := repo.TopByCoins(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	// Wealthiest first, ties broken by ID
	assert.Equal(t, int64(2), top[0].ID)
	assert.Equal(t, int64(4), top[1].ID)
	assert.Equal(t, int64(1), top[2].ID)
}

// ============================================================================
// InventoryRepository Tests
// ============================================================================

func TestInventoryRepository_AddAndRemove(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	invRepo := NewInventoryRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 12345)
	require.NoError(t, err)

	// Add stacks
	err = invRepo.Add(ctx, pool, 12345, model.ItemStone, 5)
	require.NoError(t, err)
	err = invRepo.Add(ctx, pool, 12345, model.ItemStone, 3)
	require.NoError(t, err)

	qty, err := invRepo.Quantity(ctx, pool, 12345, model.ItemStone)
	require.NoError(t, err)
	assert.Equal(t, int64(8), qty)

	// Partial removal decrements
	err = invRepo.Remove(ctx, pool, 12345, model.ItemStone, 3)
	require.NoError(t, err)

	qty, err = invRepo.Quantity(ctx, pool, 12345, model.ItemStone)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)

	// Removing more than held fails without side effects
	err = invRepo.Remove(ctx, pool, 12345, model.ItemStone, 6)
	assert.ErrorIs(t, err, ErrInsufficientItems)

	// Removing the full stack deletes the row
	err = invRepo.Remove(ctx, pool, 12345, model.ItemStone, 5)
	require.NoError(t, err)

	qty, err = invRepo.Quantity(ctx, pool, 12345, model.ItemStone)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)

	entries, err := invRepo.ListByUser(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInventoryRepository_BestWeapon(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	invRepo := NewInventoryRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 12345)
	require.NoError(t, err)

	// Unarmed
	weapon, _, err := invRepo.BestWeapon(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, weapon)

	// Sword only
	err = invRepo.Add(ctx, pool, 12345, model.ItemSword, 1)
	require.NoError(t, err)

	weapon, qty, err := invRepo.BestWeapon(ctx, 12345)
	require.NoError(t, err)
	require.NotNil(t, weapon)
	assert.Equal(t, model.ItemSword, weapon.ItemID)
	assert.Equal(t, int64(1), qty)

	// Revolver outdamages the sword
	err = invRepo.Add(ctx, pool, 12345, model.ItemRevolver, 1)
	require.NoError(t, err)

	weapon, _, err = invRepo.BestWeapon(ctx, 12345)
	require.NoError(t, err)
	require.NotNil(t, weapon)
	assert.Equal(t, model.ItemRevolver, weapon.ItemID)
	assert.True(t, weapon.NeedsAmmo)
	assert.Equal(t, model.ItemBullet, weapon.AmmoItemID)
}

func TestInventoryRepository_HasMiningTool(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	invRepo := NewInventoryRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 12345)
	require.NoError(t, err)

	has, err := invRepo.HasMiningTool(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, has)

	err = invRepo.Add(ctx, pool, 12345, model.ItemWoodenPickaxe, 1)
	require.NoError(t, err)

	has, err = invRepo.HasMiningTool(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, has)
}

// ============================================================================
// CatalogRepository Tests
// ============================================================================

func TestCatalogRepository_Lookups(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	item, err := repo.GetItem(ctx, model.ItemBread)
	require.NoError(t, err)
	assert.Equal(t, "Bread", item.Name)
	assert.True(t, item.IsUsable)

	_, err = repo.GetItem(ctx, 9999)
	assert.ErrorIs(t, err, ErrItemNotFound)

	// Shortest name wins on partial match
	item, err = repo.FindItemByName(ctx, "pickaxe")
	require.NoError(t, err)
	assert.Equal(t, model.ItemPickaxe, item.ID)

	effects, err := repo.GetItemEffects(ctx, model.ItemBread)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, model.EffectKindAddEnergy, effects[0].Kind)
	assert.Equal(t, int64(10), effects[0].Value)

	weapon, err := repo.GetWeapon(ctx, model.ItemRevolver)
	require.NoError(t, err)
	assert.Equal(t, "gun", weapon.WeaponType)

	_, err = repo.GetWeapon(ctx, model.ItemBread)
	assert.ErrorIs(t, err, ErrWeaponNotFound)
}

// ============================================================================
// EffectRepository Tests
// ============================================================================

func TestEffectRepository_ApplyRefreshesDuration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	effRepo := NewEffectRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 12345)
	require.NoError(t, err)

	err = effRepo.Apply(ctx, pool, 12345, model.EffectRest, 10)
	require.NoError(t, err)

	// Re-applying overwrites duration instead of inserting a second row
	err = effRepo.Apply(ctx, pool, 12345, model.EffectRest, 99)
	require.NoError(t, err)

	effects, err := effRepo.ListByUser(ctx, 12345)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, int64(99), effects[0].Duration)
}

func TestEffectRepository_Expiry(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	effRepo := NewEffectRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 12345)
	require.NoError(t, err)

	// 2 ticks of 1 second each
	err = effRepo.Apply(ctx, pool, 12345, model.EffectRest, 2)
	require.NoError(t, err)

	has, err := effRepo.Has(ctx, 12345, model.EffectRest, 1)
	require.NoError(t, err)
	assert.True(t, has)

	time.Sleep(2100 * time.Millisecond)

	has, err = effRepo.Has(ctx, 12345, model.EffectRest, 1)
	require.NoError(t, err)
	assert.False(t, has)

	removed, err := effRepo.DeleteExpired(ctx, pool, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	effects, err := effRepo.ListByUser(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, effects)
}

// ============================================================================
// TradeRepository Tests
// ============================================================================

func TestTradeRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	tradeRepo := NewTradeRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 1)
	require.NoError(t, err)

	tradeID, err := tradeRepo.Insert(ctx, pool, 1, model.ItemStone, 10, 5)
	require.NoError(t, err)

	trade, err := tradeRepo.GetByID(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), trade.Quantity)
	assert.Equal(t, int64(5), trade.Price)

	// Partial purchase decrements
	err = tradeRepo.DecrementOrDelete(ctx, pool, tradeID, 4)
	require.NoError(t, err)

	trade, err = tradeRepo.GetByID(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), trade.Quantity)

	// Buying out the rest deletes the listing
	err = tradeRepo.DecrementOrDelete(ctx, pool, tradeID, 6)
	require.NoError(t, err)

	_, err = tradeRepo.GetByID(ctx, tradeID)
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestTradeRepository_BuyAtomicity(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	tradeRepo := NewTradeRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 1)
	require.NoError(t, err)
	_, err = userRepo.Ensure(ctx, 2)
	require.NoError(t, err)

	tradeID, err := tradeRepo.Insert(ctx, pool, 1, model.ItemStone, 10, 5)
	require.NoError(t, err)

	// A failing purchase rolls everything back
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	_, err = tradeRepo.GetForUpdate(ctx, tx, tradeID)
	require.NoError(t, err)
	err = tradeRepo.DecrementOrDelete(ctx, tx, tradeID, 4)
	require.NoError(t, err)
	// Buyer has no coins, the debit fails mid-transaction
	_, err = userRepo.DebitCoins(ctx, tx, 2, 20)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, tx.Rollback(ctx))

	trade, err := tradeRepo.GetByID(ctx, tradeID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), trade.Quantity)
}

// ============================================================================
// FarmRepository Tests
// ============================================================================

func TestFarmRepository_Sessions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	farmRepo := NewFarmRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Ensure(ctx, 12345)
	require.NoError(t, err)

	def, err := farmRepo.GetDefinitionByInput(ctx, model.ItemRiceSeed)
	require.NoError(t, err)
	assert.Equal(t, int64(10), def.Duration)

	_, err = farmRepo.GetDefinitionByInput(ctx, model.ItemStone)
	assert.ErrorIs(t, err, ErrNotPlantable)

	rewards, err := farmRepo.GetRewards(ctx, def.FarmID)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, model.ItemRiceEar, rewards[0].OutputID)

	now := time.Now()
	sessionID, err := farmRepo.InsertSession(ctx, pool, 12345, def.FarmID, now, def.Duration, now.Add(5*time.Minute))
	require.NoError(t, err)

	count, err := farmRepo.CountSessions(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = farmRepo.DeleteSession(ctx, pool, sessionID)
	require.NoError(t, err)

	count, err = farmRepo.CountSessions(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// ============================================================================
// RelationshipRepository Tests
// ============================================================================

func TestRelationshipRepository_Edges(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	relRepo := NewRelationshipRepository(pool)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := userRepo.Ensure(ctx, id)
		require.NoError(t, err)
	}

	// Marriage edge is canonical regardless of argument order
	err := relRepo.InsertMarriage(ctx, pool, 2, 1)
	require.NoError(t, err)

	married, err := relRepo.AreMarried(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, married)

	partners, err := relRepo.Partners(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, partners)

	err = relRepo.DeleteMarriage(ctx, pool, 1, 2)
	require.NoError(t, err)
	err = relRepo.DeleteMarriage(ctx, pool, 1, 2)
	assert.ErrorIs(t, err, ErrEdgeNotFound)

	// Parent edges are directed
	err = relRepo.InsertParent(ctx, pool, 1, 3)
	require.NoError(t, err)

	isParent, err := relRepo.IsParentOf(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, isParent)

	isParent, err = relRepo.IsParentOf(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, isParent)

	parents, err := relRepo.ParentsOf(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, parents)

	children, err := relRepo.ChildrenOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, children)
}

// ============================================================================
// GuildRepository Tests
// ============================================================================

func TestGuildRepository_DefaultAndOverride(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGuildRepository(pool)
	ctx := context.Background()

	// Unknown guild falls back to the given default
	cfg, err := repo.Get(ctx, 777, true)
	require.NoError(t, err)
	assert.True(t, cfg.AllowRob)

	err = repo.SetAllowRob(ctx, 777, false)
	require.NoError(t, err)

	cfg, err = repo.Get(ctx, 777, true)
	require.NoError(t, err)
	assert.False(t, cfg.AllowRob)
}
