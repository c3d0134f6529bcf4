// Package scheduler runs the periodic status-effect tick.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/repository"
)

// EffectTicker fires at a fixed wall-clock interval. Each pass removes
// expired effects, then applies every surviving effect's per-tick
// delta inside one transaction.
type EffectTicker struct {
	pool    *pgxpool.Pool
	users   *repository.UserRepository
	effects *repository.EffectRepository

	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEffectTicker creates a new EffectTicker instance.
func NewEffectTicker(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	effects *repository.EffectRepository,
	interval time.Duration,
) *EffectTicker {
	return &EffectTicker{
		pool:     pool,
		users:    users,
		effects:  effects,
		interval: interval,
	}
}

// Start launches the tick loop. Calling Start on a running ticker is a
// no-op.
func (t *EffectTicker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.run(ctx)
	log.Info().Dur("interval", t.interval).Msg("Effect ticker started")
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (t *EffectTicker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Effect ticker stopped")
}

func (t *EffectTicker) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.tick(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Effect tick failed")
			}
		}
	}
}

// tick runs one scheduler pass.
func (t *EffectTicker) tick(ctx context.Context) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tickSeconds := t.interval.Seconds()

	removed, err := t.effects.DeleteExpired(ctx, tx, tickSeconds)
	if err != nil {
		return err
	}

	active, err := t.effects.ListActive(ctx, tx, tickSeconds)
	if err != nil {
		return err
	}

	for _, eff := range active {
		if err := t.applyTick(ctx, tx, eff); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if removed > 0 || len(active) > 0 {
		log.Debug().
			Int64("expired", removed).
			Int("active", len(active)).
			Msg("Effect tick applied")
	}
	return nil
}

// applyTick applies one effect's per-tick delta. The clamped SQL
// updates keep energy and mood inside [0, max] without a read first.
func (t *EffectTicker) applyTick(ctx context.Context, q repository.Querier, eff model.CurrentEffect) error {
	var err error
	switch eff.EffectID {
	case model.EffectRest:
		_, err = t.users.AddEnergy(ctx, q, eff.UserID, 1)
	case model.EffectReplenished:
		_, err = t.users.AddEnergy(ctx, q, eff.UserID, 2)
	case model.EffectExhausted:
		_, err = t.users.AddEnergy(ctx, q, eff.UserID, -1)
	case model.EffectGamblingAddict:
		_, err = t.users.AddMood(ctx, q, eff.UserID, -1)
	default:
		// Marker effects (rob protection, injured) have no per-tick
		// delta; expiry alone matters.
	}
	return err
}
