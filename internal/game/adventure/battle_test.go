package adventure

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/pkg/lock"
)

func testEngine(seed int64) *Engine {
	return &Engine{
		locks:        lock.NewUserLock(),
		spawnChance:  SpawnChance,
		escapeChance: EscapeChance,
		playerHealth: DefaultPlayerHealth,
		sessions:     make(map[int64]*session),
		rng:          rand.New(rand.NewSource(seed)),
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil, nil, lock.NewUserLock(), Config{})
	assert.Equal(t, int64(DefaultInjuryTicks), e.injuryTicks)
	assert.Equal(t, SpawnChance, e.spawnChance)
	assert.Equal(t, EscapeChance, e.escapeChance)
	assert.Equal(t, DefaultPlayerHealth, e.playerHealth)

	e = NewEngine(nil, nil, nil, nil, nil, lock.NewUserLock(), Config{
		TickSeconds:  60,
		InjuryTicks:  20,
		SpawnChance:  0.25,
		EscapeChance: 0.9,
		PlayerHealth: 150,
	})
	assert.Equal(t, int64(20), e.injuryTicks)
	assert.Equal(t, 0.25, e.spawnChance)
	assert.Equal(t, 0.9, e.escapeChance)
	assert.Equal(t, 150, e.playerHealth)
}

func hostileDummy(health, damage int) *Enemy {
	return &Enemy{Name: "dummy", Type: EnemyHostile, Health: health, Damage: damage}
}

func TestRosterSanity(t *testing.T) {
	require.Len(t, Roster, 14)
	for _, enemy := range Roster {
		assert.Positive(t, enemy.Health, enemy.Name)
		if enemy.Type == EnemyHostile {
			assert.Positive(t, enemy.Damage, enemy.Name)
		} else {
			assert.Equal(t, EnemyLoot, enemy.Type, enemy.Name)
			assert.Zero(t, enemy.Damage, enemy.Name)
		}
		assert.NotEmpty(t, enemy.Loot, enemy.Name)
		for _, entry := range enemy.Loot {
			assert.LessOrEqual(t, entry.AmountMin, entry.AmountMax, enemy.Name)
			assert.Greater(t, entry.Chance, 0.0, enemy.Name)
			assert.LessOrEqual(t, entry.Chance, 1.0, enemy.Name)
		}
	}
}

func TestDefendHalvesEnemyDamage(t *testing.T) {
	e := testEngine(1)
	sess := &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		enemy:           hostileDummy(50, 10),
		enemyHealth:     50,
		defending:       true,
	}
	// No parry, no crit possible on the dummy.
	result := &TurnResult{}
	e.resolveEnemyAttack(sess, result)

	assert.Equal(t, 5, result.EnemyDamage)
	assert.Equal(t, 95, sess.playerHealth)
}

func TestEnemyDamageFloorsPlayerAtZero(t *testing.T) {
	e := testEngine(1)
	sess := &session{
		playerHealth:    3,
		playerMaxHealth: 100,
		enemy:           hostileDummy(50, 10),
		enemyHealth:     50,
	}
	result := &TurnResult{}
	e.resolveEnemyAttack(sess, result)

	assert.Equal(t, 0, sess.playerHealth)
}

func TestLootEnemyNeverAttacks(t *testing.T) {
	e := testEngine(1)
	sess := &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		enemy:           &Enemy{Name: "chest", Type: EnemyLoot, Health: 5},
		enemyHealth:     5,
	}
	result := &TurnResult{}
	e.resolveEnemyAttack(sess, result)

	assert.Zero(t, result.EnemyDamage)
	assert.Equal(t, 100, sess.playerHealth)
}

func TestSkipOnlyAgainstLootEnemies(t *testing.T) {
	e := testEngine(1)
	e.sessions[1] = &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		inBattle:        true,
		enemy:           hostileDummy(50, 10),
		enemyHealth:     50,
	}

	_, err := e.BattleAction(context.Background(), 1, ActionSkip)
	assert.ErrorIs(t, err, ErrCannotSkip)
}

func TestBattleActionRequiresBattle(t *testing.T) {
	e := testEngine(1)

	_, err := e.BattleAction(context.Background(), 1, ActionAttack)
	assert.ErrorIs(t, err, ErrNoSession)

	e.sessions[1] = &session{playerHealth: 100, playerMaxHealth: 100}
	_, err = e.BattleAction(context.Background(), 1, ActionAttack)
	assert.ErrorIs(t, err, ErrNotInBattle)
}

func TestFistsFallbackAfterBreak(t *testing.T) {
	e := testEngine(42)
	weapon := &model.Weapon{ItemID: model.ItemSword, DamageMin: 4, DamageMax: 9, WeaponType: "melee"}
	sess := &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		weapon:          weapon,
		weaponBroken:    true,
		enemy:           hostileDummy(50, 10),
		enemyHealth:     50,
	}

	result := &TurnResult{}
	require.NoError(t, e.resolveAttack(sess, result))

	// Fists deal 1-3, doubled at most once on crit.
	assert.GreaterOrEqual(t, result.PlayerDamage, 1)
	assert.LessOrEqual(t, result.PlayerDamage, 6)
}

func TestAttackOutOfAmmo(t *testing.T) {
	e := testEngine(1)
	gun := &model.Weapon{
		ItemID: model.ItemRevolver, DamageMin: 6, DamageMax: 14,
		NeedsAmmo: true, AmmoItemID: model.ItemBullet, MagCapacity: 6,
		WeaponType: "gun",
	}
	sess := &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		weapon:          gun,
		magAmmo:         0,
		enemy:           hostileDummy(50, 10),
		enemyHealth:     50,
	}

	err := e.resolveAttack(sess, &TurnResult{})
	assert.ErrorIs(t, err, ErrOutOfAmmo)
}

func TestReloadTopsUpMag(t *testing.T) {
	e := testEngine(1)
	gun := &model.Weapon{
		ItemID: model.ItemRevolver, DamageMin: 6, DamageMax: 14,
		NeedsAmmo: true, AmmoItemID: model.ItemBullet, MagCapacity: 6,
		WeaponType: "gun",
	}
	sess := &session{weapon: gun, magAmmo: 2, ammoReserve: 3}

	assert.Equal(t, 3, e.resolveReload(sess))
	assert.Equal(t, 5, sess.magAmmo)
	assert.Equal(t, 0, sess.ammoReserve)

	// Nothing left to load.
	assert.Equal(t, 0, e.resolveReload(sess))
}

func TestShotsFiredTracksMag(t *testing.T) {
	e := testEngine(7)
	gun := &model.Weapon{
		ItemID: model.ItemRevolver, DamageMin: 6, DamageMax: 14,
		NeedsAmmo: true, AmmoItemID: model.ItemBullet, MagCapacity: 6,
		WeaponType: "gun",
	}
	sess := &session{
		playerHealth:    100,
		playerMaxHealth: 100,
		weapon:          gun,
		magAmmo:         3,
		enemy:           hostileDummy(1000, 1),
		enemyHealth:     1000,
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, e.resolveAttack(sess, &TurnResult{}))
	}
	assert.Equal(t, 0, sess.magAmmo)
	assert.Equal(t, 3, sess.shotsFired)
}

func TestBattleTerminationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		health := rapid.IntRange(1, 60).Draw(t, "enemyHealth")
		damage := rapid.IntRange(1, 25).Draw(t, "enemyDamage")

		e := testEngine(seed)
		sess := &session{
			playerHealth:    100,
			playerMaxHealth: 100,
			enemy:           hostileDummy(health, damage),
			enemyHealth:     health,
		}

		// Strictly positive damage on both sides forces termination.
		for turn := 0; turn < 10000; turn++ {
			result := &TurnResult{}
			if err := e.resolveAttack(sess, result); err != nil {
				t.Fatalf("attack failed: %v", err)
			}
			if sess.enemyHealth <= 0 {
				return
			}
			e.resolveEnemyAttack(sess, result)
			if sess.playerHealth <= 0 {
				return
			}
		}
		t.Fatalf("battle did not terminate")
	})
}
