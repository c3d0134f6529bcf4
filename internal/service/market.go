package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
	"hawk-economy-core/internal/repository"
)

// Market service errors.
var (
	ErrTradeNotFound    = errors.New("trade not found")
	ErrNotEnoughStock   = errors.New("not enough stock available")
	ErrOwnTrade         = errors.New("cannot buy your own trade")
	ErrNotYourTrade     = errors.New("you do not own this trade")
	ErrNotEnoughCoins   = errors.New("not enough coins")
	ErrInvalidListing   = errors.New("quantity and price must be positive")
	ErrItemNameNotFound = errors.New("no item matches that name")
)

// PurchaseResult summarizes a completed market purchase.
type PurchaseResult struct {
	ItemID    int64
	ItemName  string
	Amount    int64
	TotalCost int64
	SellerID  int64
}

// MarketService handles the player-to-player item market. Every
// mutation runs in one transaction with the trade row locked, so
// concurrent buyers cannot oversell a listing.
type MarketService struct {
	pool      *pgxpool.Pool
	users     *repository.UserRepository
	inventory *repository.InventoryRepository
	catalog   *repository.CatalogRepository
	trades    *repository.TradeRepository
	ledger    *repository.LedgerRepository
}

// NewMarketService creates a new MarketService instance.
func NewMarketService(
	pool *pgxpool.Pool,
	users *repository.UserRepository,
	inventory *repository.InventoryRepository,
	catalog *repository.CatalogRepository,
	trades *repository.TradeRepository,
	ledger *repository.LedgerRepository,
) *MarketService {
	return &MarketService{
		pool:      pool,
		users:     users,
		inventory: inventory,
		catalog:   catalog,
		trades:    trades,
		ledger:    ledger,
	}
}

// Sell escrows items out of the seller's inventory into a listing.
// Price is per unit.
func (s *MarketService) Sell(ctx context.Context, sellerID int64, itemName string, quantity, price int64) (*model.Trade, error) {
	if quantity <= 0 || price <= 0 {
		return nil, ErrInvalidListing
	}

	item, err := s.catalog.FindItemByName(ctx, itemName)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNameNotFound
		}
		return nil, err
	}

	if _, err := s.users.Ensure(ctx, sellerID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sell tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.inventory.Remove(ctx, tx, sellerID, item.ID, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientItems) {
			return nil, ErrNotEnoughItems
		}
		return nil, err
	}

	tradeID, err := s.trades.Insert(ctx, tx, sellerID, item.ID, quantity, price)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sell tx: %w", err)
	}
	return &model.Trade{ID: tradeID, UserID: sellerID, ItemID: item.ID, Quantity: quantity, Price: price}, nil
}

// Buy purchases amount units from a listing. Coins move to the seller,
// items move to the buyer, and the listing shrinks or disappears, all
// atomically.
func (s *MarketService) Buy(ctx context.Context, buyerID, tradeID, amount int64) (*PurchaseResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := s.users.Ensure(ctx, buyerID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin buy tx: %w", err)
	}
	defer tx.Rollback(ctx)

	trade, err := s.trades.GetForUpdate(ctx, tx, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	if trade.Quantity < amount {
		return nil, ErrNotEnoughStock
	}
	if trade.UserID == buyerID {
		return nil, ErrOwnTrade
	}

	totalCost := trade.Price * amount

	// Lock both parties before moving coins.
	if _, err := s.users.GetForUpdate(ctx, tx, buyerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetForUpdate(ctx, tx, trade.UserID); err != nil {
		return nil, err
	}

	if _, err := s.users.DebitCoins(ctx, tx, buyerID, totalCost); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, ErrNotEnoughCoins
		}
		return nil, err
	}
	if _, err := s.users.AddCoins(ctx, tx, trade.UserID, totalCost); err != nil {
		return nil, err
	}

	if err := s.trades.DecrementOrDelete(ctx, tx, tradeID, amount); err != nil {
		return nil, err
	}
	if err := s.inventory.Add(ctx, tx, buyerID, trade.ItemID, amount); err != nil {
		return nil, err
	}

	buyDesc := fmt.Sprintf("bought %dx item %d from user %d", amount, trade.ItemID, trade.UserID)
	saleDesc := fmt.Sprintf("sold %dx item %d to user %d", amount, trade.ItemID, buyerID)
	if err := s.ledger.Record(ctx, tx, buyerID, -totalCost, model.LedgerTradePurchase, &buyDesc); err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, tx, trade.UserID, totalCost, model.LedgerTradeSale, &saleDesc); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit buy tx: %w", err)
	}

	result := &PurchaseResult{
		ItemID:    trade.ItemID,
		Amount:    amount,
		TotalCost: totalCost,
		SellerID:  trade.UserID,
	}
	if item, err := s.catalog.GetItem(ctx, trade.ItemID); err == nil {
		result.ItemName = item.Name
	}
	return result, nil
}

// Withdraw cancels a listing and returns the escrowed items to the
// seller. Returns the quantity returned.
func (s *MarketService) Withdraw(ctx context.Context, userID, tradeID int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin withdraw tx: %w", err)
	}
	defer tx.Rollback(ctx)

	trade, err := s.trades.GetForUpdate(ctx, tx, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			return 0, ErrTradeNotFound
		}
		return 0, err
	}
	if trade.UserID != userID {
		return 0, ErrNotYourTrade
	}

	if err := s.inventory.Add(ctx, tx, userID, trade.ItemID, trade.Quantity); err != nil {
		return 0, err
	}
	if err := s.trades.Delete(ctx, tx, tradeID); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit withdraw tx: %w", err)
	}
	return trade.Quantity, nil
}

// List returns open listings, newest first.
func (s *MarketService) List(ctx context.Context, limit int) ([]model.Trade, error) {
	return s.trades.List(ctx, limit)
}

// ListByUser returns one seller's open listings.
func (s *MarketService) ListByUser(ctx context.Context, userID int64) ([]model.Trade, error) {
	return s.trades.ListByUser(ctx, userID)
}
