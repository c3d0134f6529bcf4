// Package mining implements the depth-based mining excursion.
package mining

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

// Mining constants.
const (
	EnergyCost    = 10
	AscendStep    = 5
	DescendStep   = 5
	EventCooldown = 5 * time.Minute

	caveInEnergyLoss    = 20
	gasPocketEnergyLoss = 30
	gasPocketMoodLoss   = 10
	lakeEnergyGain      = 20
	lakeMoodGain        = 5
	richVeinMultiplier  = 3
	treasureDiamondOre  = 10
	treasureGoldBars    = 5
)

// Mining errors.
var (
	ErrNoPickaxe       = errors.New("a pickaxe is required to mine")
	ErrNotEnoughEnergy = errors.New("not enough energy to mine")
)

// LootDrop is one item stack dug up in a single mining action.
type LootDrop struct {
	ItemID   int64
	Quantity int64
}

// Event describes the random event that fired during a dig, if any.
type Event struct {
	Type EventType
}

// Result summarizes one mining action.
type Result struct {
	Event *Event
	Loot  []LootDrop
	Depth int
	Zone  string
}

// Engine runs mining excursions. Depth and event cooldowns are
// process-local session state keyed by user; they reset on restart.
type Engine struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	inventory *repository.InventoryRepository
	locks     *lock.UserLock

	energyCost    int
	eventCooldown time.Duration

	mu        sync.Mutex
	depths    map[int64]int
	cooldowns map[cooldownKey]time.Time

	rng *rand.Rand
}

type cooldownKey struct {
	userID int64
	event  EventType
}

// NewEngine creates a new mining Engine instance. Non-positive
// tunables fall back to the package defaults.
func NewEngine(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	inventory *repository.InventoryRepository,
	locks *lock.UserLock,
	energyCost int,
	eventCooldown time.Duration,
) *Engine {
	if energyCost <= 0 {
		energyCost = EnergyCost
	}
	if eventCooldown <= 0 {
		eventCooldown = EventCooldown
	}
	return &Engine{
		pool:          pool,
		users:         users,
		inventory:     inventory,
		locks:         locks,
		energyCost:    energyCost,
		eventCooldown: eventCooldown,
		depths:        make(map[int64]int),
		cooldowns:     make(map[cooldownKey]time.Time),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Depth returns a user's current depth in meters.
func (e *Engine) Depth(userID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.depths[userID]
}

// Ascend climbs toward the surface. Depth never goes below zero.
func (e *Engine) Ascend(userID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	depth := e.depths[userID] - AscendStep
	if depth < 0 {
		depth = 0
	}
	e.depths[userID] = depth
	return depth
}

// Descend climbs deeper.
func (e *Engine) Descend(userID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.depths[userID] += DescendStep
	return e.depths[userID]
}

// Mine performs one dig at the user's current depth: roll at most one
// event, pay the energy cost, roll the zone loot table, then sink
// 1-3 meters deeper.
func (e *Engine) Mine(ctx context.Context, userID int64) (*Result, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	user, err := e.users.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Energy < e.energyCost {
		return nil, ErrNotEnoughEnergy
	}

	hasTool, err := e.inventory.HasMiningTool(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasTool {
		return nil, ErrNoPickaxe
	}

	depth := e.Depth(userID)

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin mining tx: %w", err)
	}
	defer tx.Rollback(ctx)

	event, err := e.rollEvent(ctx, tx, userID, depth)
	if err != nil {
		return nil, err
	}
	if event != nil && event.Type == EventCaveIn {
		depth = 0
	}

	if _, err := e.users.AddEnergy(ctx, tx, userID, -e.energyCost); err != nil {
		return nil, err
	}

	multiplier := int64(1)
	if event != nil && event.Type == EventRichVein {
		multiplier = richVeinMultiplier
	}

	var loot []LootDrop
	for _, entry := range LootTable(depth) {
		if e.roll() > entry.Chance {
			continue
		}
		if err := e.inventory.Add(ctx, tx, userID, entry.ItemID, multiplier); err != nil {
			return nil, err
		}
		loot = append(loot, LootDrop{ItemID: entry.ItemID, Quantity: multiplier})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit mining tx: %w", err)
	}

	if event == nil || event.Type != EventCaveIn {
		depth += 1 + e.intn(3)
	}
	e.mu.Lock()
	e.depths[userID] = depth
	e.mu.Unlock()

	log.Debug().
		Int64("user_id", userID).
		Int("depth", depth).
		Int("loot_stacks", len(loot)).
		Msg("Mining action completed")

	return &Result{Event: event, Loot: loot, Depth: depth, Zone: ZoneForDepth(depth)}, nil
}

// rollEvent checks the depth's event table in order; the first
// independent roll that hits and is off cooldown fires.
func (e *Engine) rollEvent(ctx context.Context, q repository.Querier, userID int64, depth int) (*Event, error) {
	for _, candidate := range EventTable(depth) {
		if e.roll() >= candidate.Chance {
			continue
		}
		if !e.cooldownReady(userID, candidate.Type) {
			continue
		}
		if err := e.applyEvent(ctx, q, userID, candidate.Type); err != nil {
			return nil, err
		}
		e.setCooldown(userID, candidate.Type)
		return &Event{Type: candidate.Type}, nil
	}
	return nil, nil
}

func (e *Engine) applyEvent(ctx context.Context, q repository.Querier, userID int64, event EventType) error {
	switch event {
	case EventCaveIn:
		_, err := e.users.AddEnergy(ctx, q, userID, -caveInEnergyLoss)
		return err
	case EventGasPocket:
		if _, err := e.users.AddEnergy(ctx, q, userID, -gasPocketEnergyLoss); err != nil {
			return err
		}
		_, err := e.users.AddMood(ctx, q, userID, -gasPocketMoodLoss)
		return err
	case EventUndergroundLake:
		if _, err := e.users.AddEnergy(ctx, q, userID, lakeEnergyGain); err != nil {
			return err
		}
		_, err := e.users.AddMood(ctx, q, userID, lakeMoodGain)
		return err
	case EventTreasureRoom:
		if err := e.inventory.Add(ctx, q, userID, model.ItemDiamondOre, treasureDiamondOre); err != nil {
			return err
		}
		return e.inventory.Add(ctx, q, userID, model.ItemGoldBar, treasureGoldBars)
	case EventRichVein:
		// Applied by the caller as a loot multiplier.
		return nil
	}
	return nil
}

func (e *Engine) cooldownReady(userID int64, event EventType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	last, ok := e.cooldowns[cooldownKey{userID, event}]
	return !ok || time.Since(last) >= e.eventCooldown
}

func (e *Engine) setCooldown(userID int64, event EventType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldowns[cooldownKey{userID, event}] = time.Now()
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}
