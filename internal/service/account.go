// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/amount"
	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
)

// Account service errors.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSelfTarget       = errors.New("cannot target yourself")
	ErrInvalidAmount    = errors.New("invalid amount: must be positive")
	ErrItemNotOwned     = errors.New("you do not own this item")
	ErrItemNotUsable    = errors.New("item is not usable")
	ErrNotEnoughItems   = errors.New("not enough items")
	ErrNotEnoughEnergy  = errors.New("not enough energy")
	ErrUnstackable      = errors.New("item can only be used one at a time")
	ErrProtectionActive = errors.New("protection effect already active")
	ErrRobDisabled      = errors.New("robbery disabled in this guild")
	ErrRobProtected     = errors.New("target wallet is protected")
	ErrUnknownRobMode   = errors.New("unknown rob mode")
)

// Rob modes trade energy cost against success odds and take.
const (
	RobQuick   = "quick"
	RobNormal  = "normal"
	RobCareful = "careful"
)

type robConfig struct {
	energy     int
	success    float64
	multiplier float64
}

var robModes = map[string]robConfig{
	RobQuick:   {energy: 5, success: 0.5, multiplier: 0.2},
	RobNormal:  {energy: 10, success: 0.65, multiplier: 0.4},
	RobCareful: {energy: 15, success: 0.8, multiplier: 0.6},
}

// Resting runs until cancelled by activity, so the duration is
// effectively unbounded.
const restDurationTicks = 1000000

// replenishedTicks is how long the regeneration buff lasts after
// topping off energy.
const replenishedTicks = 120

// overloadPenalty returns the effectiveness reduction for carrying
// totalItems items. Heavy inventories blunt energy-restoring items.
func overloadPenalty(totalItems int64) float64 {
	switch {
	case totalItems < 100:
		return 0.0
	case totalItems < 200:
		return 0.2
	case totalItems < 400:
		return 0.5
	default:
		return 0.8
	}
}

// UseItemResult summarizes what using an item did.
type UseItemResult struct {
	ItemName       string
	Amount         int64
	EnergyRestored int
	EnergyPenalty  int
	EnergyMaxGain  int
	OverloadFactor float64
	LotteryEntries int64
	Messages       []string
}

// RobResult summarizes a robbery attempt.
type RobResult struct {
	Success     bool
	Amount      int64
	EnergySpent int
	MoodDelta   int
	EmptyWallet bool
}

// AccountService handles accounts, item usage, robbery and resting.
type AccountService struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	inventory *repository.InventoryRepository
	catalog   *repository.CatalogRepository
	effects   *repository.EffectRepository
	guilds    *repository.GuildRepository
	ledger    *repository.LedgerRepository
	lottery   *repository.LotteryRepository
	locks     *lock.UserLock

	tickSeconds     float64
	allowRobDefault bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	inventory *repository.InventoryRepository,
	catalog *repository.CatalogRepository,
	effects *repository.EffectRepository,
	guilds *repository.GuildRepository,
	ledger *repository.LedgerRepository,
	lottery *repository.LotteryRepository,
	locks *lock.UserLock,
	tickSeconds float64,
	allowRobDefault bool,
) *AccountService {
	return &AccountService{
		pool:            pool,
		users:           users,
		inventory:       inventory,
		catalog:         catalog,
		effects:         effects,
		guilds:          guilds,
		ledger:          ledger,
		lottery:         lottery,
		locks:           locks,
		tickSeconds:     tickSeconds,
		allowRobDefault: allowRobDefault,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *AccountService) roll() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// Ensure lazily creates the account and returns it.
func (s *AccountService) Ensure(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.Ensure(ctx, userID)
}

// Profile returns a user with their inventory and active effects.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*model.User, []model.InventoryEntry, []model.CurrentEffect, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, nil, ErrUserNotFound
		}
		return nil, nil, nil, err
	}
	entries, err := s.inventory.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	effects, err := s.effects.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return user, entries, effects, nil
}

// UseItem consumes amount copies of an item and applies its effects.
// Using more than one at once costs a quarter of the amount in energy.
func (s *AccountService) UseItem(ctx context.Context, userID, itemID, amount int64) (*UseItemResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotOwned
		}
		return nil, err
	}
	if !item.IsUsable {
		return nil, ErrItemNotUsable
	}

	itemEffects, err := s.catalog.GetItemEffects(ctx, itemID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin use-item tx: %w", err)
	}
	defer tx.Rollback(ctx)

	held, err := s.inventory.QuantityForUpdate(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if held == 0 {
		return nil, ErrItemNotOwned
	}
	if held < amount {
		return nil, ErrNotEnoughItems
	}

	penalty := 0
	if amount > 1 {
		penalty = int(float64(amount) * 0.25)
	}
	if user.Energy < penalty {
		return nil, ErrNotEnoughEnergy
	}

	result := &UseItemResult{ItemName: item.Name, Amount: amount, EnergyPenalty: penalty}

	restoreTotal := 0
	energyMaxInc := 0
	for _, eff := range itemEffects {
		switch eff.Kind {
		case model.EffectKindUnstackable:
			if amount > 1 {
				return nil, ErrUnstackable
			}
		case model.EffectKindAddEnergy:
			restoreTotal += int(eff.Value * amount)
		case model.EffectKindAddEnergyMax:
			energyMaxInc += int(eff.Value * amount)
		}
	}

	// Overload reduces how much energy items restore.
	if restoreTotal > 0 {
		total, err := s.inventory.TotalItems(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		factor := overloadPenalty(total)
		if factor > 0 {
			restoreTotal = int(float64(restoreTotal) * (1 - factor))
			result.OverloadFactor = factor
		}
	}

	for _, eff := range itemEffects {
		switch eff.Kind {
		case model.EffectKindRobProtection:
			active, err := s.effects.Has(ctx, userID, model.EffectRobProtect, s.tickSeconds)
			if err != nil {
				return nil, err
			}
			if active {
				return nil, ErrProtectionActive
			}
			if err := s.effects.Apply(ctx, tx, userID, model.EffectRobProtect, eff.Value); err != nil {
				return nil, err
			}
		case model.EffectKindLotteryTicket:
			if err := s.lottery.AddEntries(ctx, tx, userID, amount); err != nil {
				return nil, err
			}
			result.LotteryEntries += amount
		case model.EffectKindMessage:
			result.Messages = append(result.Messages, eff.RawValue)
		}
	}

	newEnergy, err := s.users.AddEnergy(ctx, tx, userID, restoreTotal-penalty)
	if err != nil {
		return nil, err
	}
	result.EnergyRestored = restoreTotal
	if energyMaxInc > 0 {
		if _, err := s.users.RaiseEnergyMax(ctx, tx, userID, energyMaxInc); err != nil {
			return nil, err
		}
		result.EnergyMaxGain = energyMaxInc
	}

	// Topping off energy grants a regeneration buff.
	if newEnergy >= user.EnergyMax {
		if err := s.effects.Apply(ctx, tx, userID, model.EffectReplenished, replenishedTicks); err != nil {
			return nil, err
		}
	}

	if err := s.inventory.Remove(ctx, tx, userID, itemID, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit use-item tx: %w", err)
	}
	return result, nil
}

// UseItemExpr resolves an amount expression ("all", "half", "25%",
// "!2", ...) against the caller's held quantity before using the item.
func (s *AccountService) UseItemExpr(ctx context.Context, userID, itemID int64, expr string) (*UseItemResult, error) {
	held, err := s.inventory.Quantity(ctx, s.pool, userID, itemID)
	if err != nil {
		return nil, err
	}
	if held == 0 {
		return nil, ErrItemNotOwned
	}
	n, err := amount.Parse(expr, held)
	if err != nil {
		return nil, err
	}
	return s.UseItem(ctx, userID, itemID, n)
}

// GiveItems transfers items between users atomically.
func (s *AccountService) GiveItems(ctx context.Context, fromID, toID, itemID, amount int64) error {
	if fromID == toID {
		return ErrSelfTarget
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	s.locks.Lock(fromID)
	defer s.locks.Unlock(fromID)

	if _, err := s.users.Ensure(ctx, toID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin give tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.inventory.Remove(ctx, tx, fromID, itemID, amount); err != nil {
		if errors.Is(err, repository.ErrInsufficientItems) {
			return ErrNotEnoughItems
		}
		return err
	}
	if err := s.inventory.Add(ctx, tx, toID, itemID, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GiveCoins transfers coins between users atomically and records both
// sides in the ledger.
func (s *AccountService) GiveCoins(ctx context.Context, fromID, toID, amount int64) error {
	if fromID == toID {
		return ErrSelfTarget
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	s.locks.Lock(fromID)
	defer s.locks.Unlock(fromID)

	if _, err := s.users.Ensure(ctx, toID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.DebitCoins(ctx, tx, fromID, amount); err != nil {
		return err
	}
	if _, err := s.users.AddCoins(ctx, tx, toID, amount); err != nil {
		return err
	}

	sentDesc := fmt.Sprintf("gave %d coins to user %d", amount, toID)
	recvDesc := fmt.Sprintf("received %d coins from user %d", amount, fromID)
	if err := s.ledger.Record(ctx, tx, fromID, -amount, model.LedgerGiveSent, &sentDesc); err != nil {
		return err
	}
	if err := s.ledger.Record(ctx, tx, toID, amount, model.LedgerGiveReceived, &recvDesc); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GiveItemsExpr parses the amount expression against the sender's
// held quantity, then transfers.
func (s *AccountService) GiveItemsExpr(ctx context.Context, fromID, toID, itemID int64, expr string) (int64, error) {
	held, err := s.inventory.Quantity(ctx, s.pool, fromID, itemID)
	if err != nil {
		return 0, err
	}
	if held == 0 {
		return 0, ErrNotEnoughItems
	}
	n, err := amount.Parse(expr, held)
	if err != nil {
		return 0, err
	}
	return n, s.GiveItems(ctx, fromID, toID, itemID, n)
}

// GiveCoinsExpr parses the amount expression against the sender's
// balance, then transfers.
func (s *AccountService) GiveCoinsExpr(ctx context.Context, fromID, toID int64, expr string) (int64, error) {
	sender, err := s.users.GetByID(ctx, fromID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	n, err := amount.Parse(expr, sender.Coins)
	if err != nil {
		return 0, err
	}
	return n, s.GiveCoins(ctx, fromID, toID, n)
}

// Rob attempts to steal a fraction of the target's wallet. Mood shifts
// the odds: high spirits help, misery hurts.
func (s *AccountService) Rob(ctx context.Context, guildID, robberID, targetID int64, mode string) (*RobResult, error) {
	if robberID == targetID {
		return nil, ErrSelfTarget
	}
	cfg, ok := robModes[mode]
	if !ok {
		return nil, ErrUnknownRobMode
	}

	guild, err := s.guilds.Get(ctx, guildID, s.allowRobDefault)
	if err != nil {
		return nil, err
	}
	if !guild.AllowRob {
		return nil, ErrRobDisabled
	}

	protected, err := s.effects.Has(ctx, targetID, model.EffectRobProtect, s.tickSeconds)
	if err != nil {
		return nil, err
	}
	if protected {
		return nil, ErrRobProtected
	}

	s.locks.Lock(robberID)
	defer s.locks.Unlock(robberID)

	robber, err := s.users.GetByID(ctx, robberID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if robber.Energy < cfg.energy {
		return nil, ErrNotEnoughEnergy
	}

	successChance := cfg.success
	if robber.Mood >= 100 {
		successChance += 0.1
	} else if robber.Mood < 20 {
		successChance -= 0.1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rob tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.AddEnergy(ctx, tx, robberID, -cfg.energy); err != nil {
		return nil, err
	}

	result := &RobResult{EnergySpent: cfg.energy}

	if target.Coins <= 0 {
		result.EmptyWallet = true
		result.MoodDelta = -5
		if _, err := s.users.AddMood(ctx, tx, robberID, -5); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return result, nil
	}

	if s.roll() < successChance {
		amount := int64(float64(target.Coins) * cfg.multiplier)
		if amount < 1 {
			amount = 1
		}
		if _, err := s.users.DebitCoins(ctx, tx, targetID, amount); err != nil {
			return nil, err
		}
		if _, err := s.users.AddCoins(ctx, tx, robberID, amount); err != nil {
			return nil, err
		}
		if _, err := s.users.AddMood(ctx, tx, robberID, 5); err != nil {
			return nil, err
		}

		robDesc := fmt.Sprintf("robbed user %d (%s)", targetID, mode)
		robbedDesc := fmt.Sprintf("robbed by user %d", robberID)
		if err := s.ledger.Record(ctx, tx, robberID, amount, model.LedgerRob, &robDesc); err != nil {
			return nil, err
		}
		if err := s.ledger.Record(ctx, tx, targetID, -amount, model.LedgerRobbed, &robbedDesc); err != nil {
			return nil, err
		}

		result.Success = true
		result.Amount = amount
		result.MoodDelta = 5
	} else {
		result.MoodDelta = -3
		if _, err := s.users.AddMood(ctx, tx, robberID, -3); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rob tx: %w", err)
	}
	return result, nil
}

// Rest puts the user into rest mode. The effect regenerates energy
// every tick until CancelRest removes it.
func (s *AccountService) Rest(ctx context.Context, userID int64) error {
	if _, err := s.users.Ensure(ctx, userID); err != nil {
		return err
	}
	return s.effects.Apply(ctx, s.pool, userID, model.EffectRest, restDurationTicks)
}

// CancelRest ends rest mode. Called on any user activity; reports
// whether the user was resting.
func (s *AccountService) CancelRest(ctx context.Context, userID int64) (bool, error) {
	resting, err := s.effects.Has(ctx, userID, model.EffectRest, s.tickSeconds)
	if err != nil {
		return false, err
	}
	if !resting {
		return false, nil
	}
	if err := s.effects.Remove(ctx, s.pool, userID, model.EffectRest); err != nil {
		return false, err
	}
	return true, nil
}

// History returns a user's recent coin movements.
func (s *AccountService) History(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	return s.ledger.History(ctx, userID, limit)
}
