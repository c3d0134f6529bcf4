// Package app is the composition root: it builds the repositories,
// services and game engines from configuration on a shared pool. The
// daemon and any embedding presentation layer wire through here so
// every tunable in the config file reaches its consumer.
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/config"
	"hawk-economy-core/internal/game/adventure"
	"hawk-economy-core/internal/game/mining"
	"hawk-economy-core/internal/pkg/lock"
	"hawk-economy-core/internal/repository"
	"hawk-economy-core/internal/scheduler"
	"hawk-economy-core/internal/service"
)

// App is the wired object graph.
type App struct {
	Users     *repository.UserRepository
	Inventory *repository.InventoryRepository
	Catalog   *repository.CatalogRepository
	Effects   *repository.EffectRepository

	Accounts      *service.AccountService
	Market        *service.MarketService
	Craft         *service.CraftService
	Farm          *service.FarmService
	Relationships *service.RelationshipService
	Ranking       *service.RankingService

	Mining    *mining.Engine
	Adventure *adventure.Engine
	Ticker    *scheduler.EffectTicker
}

// New builds the full service graph. Game tunables come from cfg.
func New(pool *pgxpool.Pool, cfg *config.Config) *App {
	locks := lock.NewUserLock()

	users := repository.NewUserRepository(pool)
	inventory := repository.NewInventoryRepository(pool)
	catalog := repository.NewCatalogRepository(pool)
	effects := repository.NewEffectRepository(pool)
	guilds := repository.NewGuildRepository(pool)
	ledger := repository.NewLedgerRepository(pool)
	lottery := repository.NewLotteryRepository(pool)
	recipes := repository.NewRecipeRepository(pool)
	farms := repository.NewFarmRepository(pool)
	trades := repository.NewTradeRepository(pool)
	relationships := repository.NewRelationshipRepository(pool)

	tickSeconds := cfg.Effects.TickInterval.Seconds()

	return &App{
		Users:     users,
		Inventory: inventory,
		Catalog:   catalog,
		Effects:   effects,

		Accounts: service.NewAccountService(
			pool, users, inventory, catalog, effects, guilds, ledger, lottery,
			locks, tickSeconds, cfg.Rob.AllowByDefault,
		),
		Market: service.NewMarketService(pool, users, inventory, catalog, trades, ledger),
		Craft:  service.NewCraftService(pool, users, inventory, recipes, locks),
		Farm: service.NewFarmService(
			pool, users, inventory, catalog, farms, locks,
			cfg.Effects.TickInterval, cfg.Farm.MaxSlots, cfg.Farm.MaxSlotsLoyalty,
		),
		Relationships: service.NewRelationshipService(pool, users, relationships, locks, service.FamilyLimits{
			MaxPartners:       cfg.Family.MaxPartners,
			MaxChildren:       cfg.Family.MaxChildren,
			MaxParentsPerKid:  cfg.Family.MaxParentsPerKid,
			MaxTraversalDepth: cfg.Family.MaxTraversalDepth,
		}),
		Ranking: service.NewRankingService(users, ledger, nil),

		Mining: mining.NewEngine(
			pool, users, inventory, locks,
			cfg.Mining.EnergyCost, cfg.Mining.EventCooldown,
		),
		Adventure: adventure.NewEngine(pool, users, inventory, catalog, effects, locks, adventure.Config{
			TickSeconds:  tickSeconds,
			InjuryTicks:  cfg.Battle.InjuryTicks,
			SpawnChance:  cfg.Battle.SpawnChance,
			EscapeChance: cfg.Battle.EscapeChance,
			PlayerHealth: cfg.Battle.PlayerHealth,
		}),
		Ticker: scheduler.NewEffectTicker(pool, users, effects, cfg.Effects.TickInterval),
	}
}
