// Package adventure implements the turn-based excursion and battle
// loop. Sessions are process-local: health, mag contents, and pending
// loot live in memory until the player returns home.
package adventure

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
)

// Adventure constants.
const (
	DefaultPlayerHealth = 100
	SpawnChance         = 0.5
	EscapeChance        = 0.6

	// DefaultInjuryTicks keeps a defeated player out of action for
	// five minutes at the standard 30s tick.
	DefaultInjuryTicks = 10

	fistsDamageMin = 1
	fistsDamageMax = 3
	fistsCritRate  = 0.1
)

// Adventure errors.
var (
	ErrInjured            = errors.New("too injured to adventure")
	ErrAlreadyAdventuring = errors.New("an adventure is already in progress")
	ErrNoSession          = errors.New("no adventure in progress")
	ErrNotInBattle        = errors.New("not currently in a battle")
	ErrStillInBattle      = errors.New("cannot do that mid-battle")
	ErrOutOfAmmo          = errors.New("out of ammo")
	ErrCannotSkip         = errors.New("this enemy will not let you pass")
	ErrNotEnoughEnergy    = errors.New("not enough energy to move forward")
	ErrNotHealing         = errors.New("item has no healing effect")
)

// Action is a player battle move.
type Action int

// Battle actions.
const (
	ActionAttack Action = iota
	ActionReload
	ActionDefend
	ActionSkip
	ActionRun
)

// Outcome is a finished battle's terminal state.
type Outcome string

// Battle outcomes.
const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeEscaped Outcome = "escaped"
	OutcomeSkipped Outcome = "skipped"
)

// LootStack is one accumulated drop awaiting the trip home.
type LootStack struct {
	ItemID int64
	Amount int64
}

// session is one user's excursion state. The same struct backs the
// safe zone and the battle; inBattle switches between them.
type session struct {
	playerHealth    int
	playerMaxHealth int

	weapon       *model.Weapon
	weaponBroken bool
	magAmmo      int
	ammoReserve  int
	shotsFired   int

	inBattle    bool
	enemy       *Enemy
	enemyHealth int
	defending   bool
	doubleBreak bool

	loot []LootStack
}

// TurnResult reports what happened during one battle turn.
type TurnResult struct {
	PlayerDamage int
	Crit         bool
	WeaponBroke  bool
	Reloaded     int
	RunFailed    bool

	EnemyDamage int
	EnemyCrit   bool
	Parried     bool
	Dodged      bool

	PlayerHealth int
	EnemyHealth  int

	Outcome Outcome
	Loot    []LootStack
}

// State is a snapshot of the excursion for callers.
type State struct {
	PlayerHealth    int
	PlayerMaxHealth int
	WeaponItemID    int64
	MagAmmo         int
	InBattle        bool
	EnemyName       string
	EnemyHealth     int
	PendingLoot     []LootStack
}

// Config carries the combat tunables. Zero values fall back to the
// package defaults.
type Config struct {
	TickSeconds  float64
	InjuryTicks  int64
	SpawnChance  float64
	EscapeChance float64
	PlayerHealth int
}

// Engine runs adventures.
type Engine struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	inventory *repository.InventoryRepository
	catalog   *repository.CatalogRepository
	effects   *repository.EffectRepository
	locks     *lock.UserLock

	tickSeconds  float64
	injuryTicks  int64
	spawnChance  float64
	escapeChance float64
	playerHealth int

	mu       sync.Mutex
	sessions map[int64]*session
	rng      *rand.Rand
}

// NewEngine creates a new adventure Engine instance.
func NewEngine(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	inventory *repository.InventoryRepository,
	catalog *repository.CatalogRepository,
	effects *repository.EffectRepository,
	locks *lock.UserLock,
	cfg Config,
) *Engine {
	if cfg.InjuryTicks <= 0 {
		cfg.InjuryTicks = DefaultInjuryTicks
	}
	if cfg.SpawnChance <= 0 {
		cfg.SpawnChance = SpawnChance
	}
	if cfg.EscapeChance <= 0 {
		cfg.EscapeChance = EscapeChance
	}
	if cfg.PlayerHealth <= 0 {
		cfg.PlayerHealth = DefaultPlayerHealth
	}
	return &Engine{
		pool:         pool,
		users:        users,
		inventory:    inventory,
		catalog:      catalog,
		effects:      effects,
		locks:        locks,
		tickSeconds:  cfg.TickSeconds,
		injuryTicks:  cfg.InjuryTicks,
		spawnChance:  cfg.SpawnChance,
		escapeChance: cfg.EscapeChance,
		playerHealth: cfg.PlayerHealth,
		sessions:     make(map[int64]*session),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartAdventure opens a safe-zone session with the user's strongest
// weapon equipped. A gun with an empty reserve cannot be taken out.
func (e *Engine) StartAdventure(ctx context.Context, userID int64) (*State, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	if _, err := e.users.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	injured, err := e.effects.Has(ctx, userID, model.EffectInjured, e.tickSeconds)
	if err != nil {
		return nil, err
	}
	if injured {
		return nil, ErrInjured
	}

	e.mu.Lock()
	_, active := e.sessions[userID]
	e.mu.Unlock()
	if active {
		return nil, ErrAlreadyAdventuring
	}

	weapon, _, err := e.inventory.BestWeapon(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess := &session{
		playerHealth:    e.playerHealth,
		playerMaxHealth: e.playerHealth,
		weapon:          weapon,
	}
	if weapon != nil && weapon.NeedsAmmo {
		reserve, err := e.inventory.Quantity(ctx, e.pool, userID, weapon.AmmoItemID)
		if err != nil {
			return nil, err
		}
		if reserve == 0 {
			return nil, ErrOutOfAmmo
		}
		sess.magAmmo = int(min64(int64(weapon.MagCapacity), reserve))
		sess.ammoReserve = int(reserve) - sess.magAmmo
	}

	e.mu.Lock()
	e.sessions[userID] = sess
	e.mu.Unlock()

	log.Info().Int64("user_id", userID).Msg("Adventure started")
	return e.snapshot(sess), nil
}

// MoveForward spends 1 energy and rolls an encounter. Returns the
// battle state when an enemy spawns, nil when the zone stays quiet.
func (e *Engine) MoveForward(ctx context.Context, userID int64) (*State, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	sess, err := e.getSession(userID, false)
	if err != nil {
		return nil, err
	}

	ok, err := e.users.SpendEnergy(ctx, e.pool, userID, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotEnoughEnergy
	}

	if e.roll() >= e.spawnChance {
		return nil, nil
	}

	e.mu.Lock()
	enemy := &Roster[e.rng.Intn(len(Roster))]
	e.mu.Unlock()

	sess.inBattle = true
	sess.enemy = enemy
	sess.enemyHealth = enemy.Health
	sess.defending = false
	sess.doubleBreak = false

	return e.snapshot(sess), nil
}

// BattleAction resolves one turn of the current battle.
func (e *Engine) BattleAction(ctx context.Context, userID int64, action Action) (*TurnResult, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	sess, err := e.getSession(userID, true)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{}

	switch action {
	case ActionAttack:
		if err := e.resolveAttack(sess, result); err != nil {
			return nil, err
		}
	case ActionReload:
		result.Reloaded = e.resolveReload(sess)
	case ActionDefend:
		sess.defending = true
		sess.doubleBreak = true
	case ActionSkip:
		if sess.enemy.Type != EnemyLoot {
			return nil, ErrCannotSkip
		}
		return e.endBattle(ctx, userID, sess, OutcomeSkipped, result)
	case ActionRun:
		if e.roll() < e.escapeChance {
			return e.endBattle(ctx, userID, sess, OutcomeEscaped, result)
		}
		result.RunFailed = true
	default:
		return nil, fmt.Errorf("unknown battle action %d", action)
	}

	if sess.enemyHealth <= 0 {
		return e.endBattle(ctx, userID, sess, OutcomeVictory, result)
	}

	e.resolveEnemyAttack(sess, result)
	if sess.playerHealth <= 0 {
		return e.endBattle(ctx, userID, sess, OutcomeDefeat, result)
	}

	// Halving covers only the turn defense was declared; the doubled
	// break chance holds until the next swing.
	sess.defending = false

	result.PlayerHealth = sess.playerHealth
	result.EnemyHealth = sess.enemyHealth
	return result, nil
}

// resolveAttack rolls the player's damage. A broken weapon falls back
// to fists.
func (e *Engine) resolveAttack(sess *session, result *TurnResult) error {
	weapon := sess.weapon
	if weapon != nil && sess.weaponBroken {
		weapon = nil
	}

	var damage int
	if weapon == nil {
		damage = fistsDamageMin + e.intn(fistsDamageMax-fistsDamageMin+1)
		if e.roll() < fistsCritRate {
			damage *= 2
			result.Crit = true
		}
	} else {
		if weapon.NeedsAmmo {
			if sess.magAmmo <= 0 {
				return ErrOutOfAmmo
			}
			sess.magAmmo--
			sess.shotsFired++
		}

		damage = weapon.DamageMin + e.intn(weapon.DamageMax-weapon.DamageMin+1)

		breakChance := weapon.BreakChance
		if sess.doubleBreak {
			breakChance *= 2
		}
		sess.doubleBreak = false
		if e.roll() < breakChance {
			sess.weaponBroken = true
			result.WeaponBroke = true
		}
		if e.roll() < weapon.CritRate {
			damage *= 2
			result.Crit = true
		}
	}

	result.PlayerDamage = damage
	sess.enemyHealth -= damage
	if sess.enemyHealth < 0 {
		sess.enemyHealth = 0
	}
	return nil
}

// resolveReload tops the mag up from the session's reserve.
func (e *Engine) resolveReload(sess *session) int {
	weapon := sess.weapon
	if weapon == nil || !weapon.NeedsAmmo {
		return 0
	}
	take := weapon.MagCapacity - sess.magAmmo
	if take > sess.ammoReserve {
		take = sess.ammoReserve
	}
	sess.magAmmo += take
	sess.ammoReserve -= take
	return take
}

// resolveEnemyAttack rolls the enemy's counter. Loot enemies never
// strike back.
func (e *Engine) resolveEnemyAttack(sess *session, result *TurnResult) {
	enemy := sess.enemy
	if enemy.Damage <= 0 {
		return
	}

	if e.roll() < enemy.ParryChance {
		result.Parried = true
		return
	}
	ranged := sess.weapon != nil && !sess.weaponBroken && sess.weapon.WeaponType == "gun"
	if ranged && e.roll() < enemy.BulletproofChance {
		result.Dodged = true
		return
	}

	damage := enemy.Damage
	if sess.defending {
		damage /= 2
	}
	if e.roll() < enemy.CritChance {
		damage *= 2
		result.EnemyCrit = true
	}

	result.EnemyDamage = damage
	sess.playerHealth -= damage
	if sess.playerHealth < 0 {
		sess.playerHealth = 0
	}
}

// endBattle settles the fight: rolls loot into the session, persists
// weapon breakage and net ammo spent, and on defeat applies the
// injury and sends the player home empty-handed.
func (e *Engine) endBattle(ctx context.Context, userID int64, sess *session, outcome Outcome, result *TurnResult) (*TurnResult, error) {
	if outcome == OutcomeVictory || outcome == OutcomeSkipped {
		for _, entry := range sess.enemy.Loot {
			if e.roll() >= entry.Chance {
				continue
			}
			amount := entry.AmountMin + int64(e.intn(int(entry.AmountMax-entry.AmountMin+1)))
			sess.loot = append(sess.loot, LootStack{ItemID: entry.ItemID, Amount: amount})
			result.Loot = append(result.Loot, LootStack{ItemID: entry.ItemID, Amount: amount})
		}
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settle tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if sess.weaponBroken && sess.weapon != nil {
		if err := e.inventory.Remove(ctx, tx, userID, sess.weapon.ItemID, 1); err != nil &&
			!errors.Is(err, repository.ErrInsufficientItems) {
			return nil, err
		}
	}
	if sess.shotsFired > 0 && sess.weapon != nil && sess.weapon.NeedsAmmo {
		if err := e.inventory.Remove(ctx, tx, userID, sess.weapon.AmmoItemID, int64(sess.shotsFired)); err != nil &&
			!errors.Is(err, repository.ErrInsufficientItems) {
			return nil, err
		}
		sess.shotsFired = 0
	}
	if outcome == OutcomeDefeat {
		if err := e.effects.Apply(ctx, tx, userID, model.EffectInjured, e.injuryTicks); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settle tx: %w", err)
	}

	// The broken weapon is destroyed exactly once; the player fights
	// with fists until they go home and re-equip.
	if sess.weaponBroken {
		sess.weaponBroken = false
		sess.weapon = nil
		sess.magAmmo = 0
		sess.ammoReserve = 0
	}

	if outcome == OutcomeDefeat {
		// Defeat forfeits the accumulated loot.
		e.mu.Lock()
		delete(e.sessions, userID)
		e.mu.Unlock()
	} else {
		sess.inBattle = false
		sess.enemy = nil
		sess.defending = false
		sess.doubleBreak = false
	}

	log.Info().
		Int64("user_id", userID).
		Str("outcome", string(outcome)).
		Msg("Battle finished")

	result.Outcome = outcome
	result.PlayerHealth = sess.playerHealth
	result.EnemyHealth = sess.enemyHealth
	return result, nil
}

// UseHealingItem consumes one healing item in the safe zone and
// restores session health.
func (e *Engine) UseHealingItem(ctx context.Context, userID int64, itemName string) (int, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	sess, err := e.getSession(userID, false)
	if err != nil {
		return 0, err
	}

	item, err := e.catalog.FindItemByName(ctx, itemName)
	if err != nil {
		return 0, err
	}
	itemEffects, err := e.catalog.GetItemEffects(ctx, item.ID)
	if err != nil {
		return 0, err
	}

	var heal int64
	for _, eff := range itemEffects {
		if eff.Kind == model.EffectKindHeal {
			heal = eff.Value
			break
		}
	}
	if heal == 0 {
		return 0, ErrNotHealing
	}

	if err := e.inventory.Remove(ctx, e.pool, userID, item.ID, 1); err != nil {
		return 0, err
	}

	sess.playerHealth += int(heal)
	if sess.playerHealth > sess.playerMaxHealth {
		sess.playerHealth = sess.playerMaxHealth
	}
	return sess.playerHealth, nil
}

// ReturnHome flushes the session's accumulated loot into persistent
// inventory and closes the excursion.
func (e *Engine) ReturnHome(ctx context.Context, userID int64) ([]LootStack, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	sess, err := e.getSession(userID, false)
	if err != nil {
		return nil, err
	}

	if len(sess.loot) > 0 {
		tx, err := e.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to begin return tx: %w", err)
		}
		defer tx.Rollback(ctx)

		for _, stack := range sess.loot {
			if err := e.inventory.Add(ctx, tx, userID, stack.ItemID, stack.Amount); err != nil {
				return nil, err
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit return tx: %w", err)
		}
	}

	loot := sess.loot
	e.mu.Lock()
	delete(e.sessions, userID)
	e.mu.Unlock()

	log.Info().Int64("user_id", userID).Int("loot_stacks", len(loot)).Msg("Returned home")
	return loot, nil
}

// Session returns the current excursion snapshot.
func (e *Engine) Session(userID int64) (*State, error) {
	e.mu.Lock()
	sess, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	return e.snapshot(sess), nil
}

func (e *Engine) getSession(userID int64, wantBattle bool) (*session, error) {
	e.mu.Lock()
	sess, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	if wantBattle && !sess.inBattle {
		return nil, ErrNotInBattle
	}
	if !wantBattle && sess.inBattle {
		return nil, ErrStillInBattle
	}
	return sess, nil
}

func (e *Engine) snapshot(sess *session) *State {
	st := &State{
		PlayerHealth:    sess.playerHealth,
		PlayerMaxHealth: sess.playerMaxHealth,
		MagAmmo:         sess.magAmmo,
		InBattle:        sess.inBattle,
		EnemyHealth:     sess.enemyHealth,
		PendingLoot:     append([]LootStack(nil), sess.loot...),
	}
	if sess.weapon != nil {
		st.WeaponItemID = sess.weapon.ItemID
	}
	if sess.enemy != nil {
		st.EnemyName = sess.enemy.Name
	}
	return st
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) intn(n int) int {
	if n <= 1 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
