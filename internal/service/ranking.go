package service

import (
	"context"
	"time"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/repository"
)

// RankingService exposes wealth and activity leaderboards.
type RankingService struct {
	users    *repository.UserRepository
	ledger   *repository.LedgerRepository
	timezone *time.Location
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(
	users *repository.UserRepository,
	ledger *repository.LedgerRepository,
	timezone *time.Location,
) *RankingService {
	if timezone == nil {
		timezone = time.UTC
	}
	return &RankingService{
		users:    users,
		ledger:   ledger,
		timezone: timezone,
	}
}

// TopByCoins returns the richest users.
func (s *RankingService) TopByCoins(ctx context.Context, limit int) ([]model.User, error) {
	return s.users.TopByCoins(ctx, limit)
}

// DailyNet returns a user's net coin flow since local midnight. Only
// ledgered movements count: trades, gifts, robberies.
func (s *RankingService) DailyNet(ctx context.Context, userID int64) (int64, error) {
	now := time.Now().In(s.timezone)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.timezone)
	return s.ledger.NetSince(ctx, userID, midnight)
}
