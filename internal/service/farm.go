package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
)

// Farm service errors.
var (
	ErrFarmSlotsFull    = errors.New("all farm slots are in use")
	ErrNotPlantable     = errors.New("item cannot be planted")
	ErrNothingToHarvest = errors.New("no farms are ready to harvest")
)

// HarvestedReward is one item stack collected during a harvest.
type HarvestedReward struct {
	ItemID int64
	Amount int64
}

// FarmStatus describes one growing plot.
type FarmStatus struct {
	Session  model.FarmSession
	Ready    bool
	Progress float64
}

// FarmService handles planting and harvesting. Growth is wall-clock
// based: a session finishes duration ticks after planting whether or
// not anyone is watching.
type FarmService struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	inventory *repository.InventoryRepository
	catalog   *repository.CatalogRepository
	farms     *repository.FarmRepository
	locks     *lock.UserLock

	tick            time.Duration
	maxSlots        int
	maxSlotsLoyalty int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewFarmService creates a new FarmService instance.
func NewFarmService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	inventory *repository.InventoryRepository,
	catalog *repository.CatalogRepository,
	farms *repository.FarmRepository,
	locks *lock.UserLock,
	tick time.Duration,
	maxSlots, maxSlotsLoyalty int,
) *FarmService {
	return &FarmService{
		pool:            pool,
		users:           users,
		inventory:       inventory,
		catalog:         catalog,
		farms:           farms,
		locks:           locks,
		tick:            tick,
		maxSlots:        maxSlots,
		maxSlotsLoyalty: maxSlotsLoyalty,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *FarmService) int63n(n int64) int64 {
	if n <= 1 {
		return 0
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Int63n(n)
}

// Plant consumes one seed item and starts a growing session. Loyal
// supporters get the larger slot allowance.
func (s *FarmService) Plant(ctx context.Context, userID int64, itemName string, loyal bool) (*model.FarmSession, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if _, err := s.users.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	count, err := s.farms.CountSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	slots := s.maxSlots
	if loyal {
		slots = s.maxSlotsLoyalty
	}
	if count >= slots {
		return nil, ErrFarmSlotsFull
	}

	item, err := s.catalog.FindItemByName(ctx, itemName)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNameNotFound
		}
		return nil, err
	}

	def, err := s.farms.GetDefinitionByInput(ctx, item.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotPlantable) {
			return nil, ErrNotPlantable
		}
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin plant tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.inventory.Remove(ctx, tx, userID, item.ID, 1); err != nil {
		if errors.Is(err, repository.ErrInsufficientItems) {
			return nil, ErrNotEnoughItems
		}
		return nil, err
	}

	now := time.Now().UTC()
	finishedAt := now.Add(time.Duration(def.Duration) * s.tick)
	sessionID, err := s.farms.InsertSession(ctx, tx, userID, def.FarmID, now, def.Duration, finishedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit plant tx: %w", err)
	}

	return &model.FarmSession{
		SessionID:  sessionID,
		UserID:     userID,
		FarmID:     def.FarmID,
		CreatedAt:  now,
		Duration:   def.Duration,
		FinishedAt: finishedAt,
	}, nil
}

// Harvest collects every matured session. Each reward line yields a
// random quantity between half and full amount.
func (s *FarmService) Harvest(ctx context.Context, userID int64) ([]HarvestedReward, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	sessions, err := s.farms.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var matured []model.FarmSession
	for _, sess := range sessions {
		if !sess.FinishedAt.After(now) {
			matured = append(matured, sess)
		}
	}
	if len(matured) == 0 {
		return nil, ErrNothingToHarvest
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin harvest tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var collected []HarvestedReward
	for _, sess := range matured {
		rewards, err := s.farms.GetRewards(ctx, sess.FarmID)
		if err != nil {
			return nil, err
		}
		for _, rw := range rewards {
			low := rw.Amount / 2
			if low < 1 {
				low = 1
			}
			amount := low + s.int63n(rw.Amount-low+1)
			if err := s.inventory.Add(ctx, tx, userID, rw.OutputID, amount); err != nil {
				return nil, err
			}
			collected = append(collected, HarvestedReward{ItemID: rw.OutputID, Amount: amount})
		}
		if err := s.farms.DeleteSession(ctx, tx, sess.SessionID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit harvest tx: %w", err)
	}
	return collected, nil
}

// Status lists a user's plots with readiness and growth progress.
func (s *FarmService) Status(ctx context.Context, userID int64) ([]FarmStatus, error) {
	sessions, err := s.farms.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	statuses := make([]FarmStatus, 0, len(sessions))
	for _, sess := range sessions {
		st := FarmStatus{Session: sess, Ready: !sess.FinishedAt.After(now)}
		total := sess.FinishedAt.Sub(sess.CreatedAt)
		if total > 0 {
			st.Progress = float64(now.Sub(sess.CreatedAt)) / float64(total)
			if st.Progress > 1 {
				st.Progress = 1
			} else if st.Progress < 0 {
				st.Progress = 0
			}
		} else {
			st.Progress = 1
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
