// Tests use testcontainers-go to spin up a PostgreSQL container.
package adventure

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
	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
)

func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

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

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = repository.RunMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

func integrationEngine(pool *pgxpool.Pool) *Engine {
	return NewEngine(
		pool,
		repository.NewUserRepository(pool),
		repository.NewInventoryRepository(pool),
		repository.NewCatalogRepository(pool),
		repository.NewEffectRepository(pool),
		lock.NewUserLock(),
		Config{TickSeconds: 30},
	)
}

func lootDummy(health int) *Enemy {
	return &Enemy{Name: "crate", Type: EnemyLoot, Health: health}
}

func TestBrokenWeaponConsumedOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	inv := repository.NewInventoryRepository(pool)
	engine := integrationEngine(pool)

	_, err := users.Ensure(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, inv.Add(ctx, pool, 1, model.ItemSword, 3))

	// Battle one ends with the equipped sword already broken.
	engine.sessions[1] = &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		weapon:          &model.Weapon{ItemID: model.ItemSword, DamageMin: 4, DamageMax: 9},
		weaponBroken:    true,
		inBattle:        true,
		enemy:           lootDummy(5),
		enemyHealth:     5,
	}

	result, err := engine.BattleAction(ctx, 1, ActionSkip)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, result.Outcome)

	swords, err := inv.Quantity(ctx, pool, 1, model.ItemSword)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swords)

	// The session continues bare-handed; the break must not settle again.
	sess := engine.sessions[1]
	require.NotNil(t, sess)
	assert.False(t, sess.weaponBroken)
	assert.Nil(t, sess.weapon)

	sess.inBattle = true
	sess.enemy = lootDummy(5)
	sess.enemyHealth = 5

	result, err = engine.BattleAction(ctx, 1, ActionSkip)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, result.Outcome)

	swords, err = inv.Quantity(ctx, pool, 1, model.ItemSword)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swords)
}
