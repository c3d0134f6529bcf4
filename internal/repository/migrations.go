package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migration is one named schema step. Steps are idempotent so the list
// can be replayed on every startup.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY,
				coins BIGINT NOT NULL DEFAULT 0,
				energy INT NOT NULL DEFAULT 100,
				energy_max INT NOT NULL DEFAULT 100,
				mood INT NOT NULL DEFAULT 100,
				mood_max INT NOT NULL DEFAULT 100,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_users_coins ON users(coins DESC);
		`,
	},
	{
		name: "item catalog tables",
		sql: `
			CREATE TABLE IF NOT EXISTS items (
				id BIGINT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				icon VARCHAR(16) NOT NULL DEFAULT '',
				is_usable BOOLEAN NOT NULL DEFAULT FALSE
			);
			CREATE TABLE IF NOT EXISTS item_effects (
				item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
				effect VARCHAR(50) NOT NULL,
				value TEXT NOT NULL DEFAULT '0',
				value_type VARCHAR(20) NOT NULL DEFAULT 'int',
				PRIMARY KEY (item_id, effect)
			);
			CREATE TABLE IF NOT EXISTS item_weapons (
				item_id BIGINT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
				damage_min INT NOT NULL,
				damage_max INT NOT NULL,
				crit_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
				break_chance DOUBLE PRECISION NOT NULL DEFAULT 0,
				needs_ammo BOOLEAN NOT NULL DEFAULT FALSE,
				ammo_item_id BIGINT NOT NULL DEFAULT 0,
				mag_capacity INT NOT NULL DEFAULT 0,
				weapon_type VARCHAR(20) NOT NULL DEFAULT 'melee'
			);
		`,
	},
	{
		name: "inventory table",
		sql: `
			CREATE TABLE IF NOT EXISTS inventory (
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				item_id BIGINT NOT NULL REFERENCES items(id),
				quantity BIGINT NOT NULL DEFAULT 0,
				PRIMARY KEY (user_id, item_id)
			);
		`,
	},
	{
		name: "current_effects table",
		sql: `
			CREATE TABLE IF NOT EXISTS current_effects (
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				effect_id INT NOT NULL,
				duration BIGINT NOT NULL,
				ticks BIGINT NOT NULL DEFAULT 0,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (user_id, effect_id)
			);
			CREATE INDEX IF NOT EXISTS idx_current_effects_applied ON current_effects(applied_at);
		`,
	},
	{
		name: "farming tables",
		sql: `
			CREATE TABLE IF NOT EXISTS farm_info (
				farm_id BIGINT PRIMARY KEY,
				input_id BIGINT NOT NULL UNIQUE REFERENCES items(id),
				duration BIGINT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS farm_rewards (
				farm_id BIGINT NOT NULL REFERENCES farm_info(farm_id) ON DELETE CASCADE,
				output_id BIGINT NOT NULL REFERENCES items(id),
				output_amount BIGINT NOT NULL,
				PRIMARY KEY (farm_id, output_id)
			);
			CREATE TABLE IF NOT EXISTS farm_sessions (
				session_id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				farm_id BIGINT NOT NULL REFERENCES farm_info(farm_id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				duration BIGINT NOT NULL,
				finished_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_farm_sessions_user ON farm_sessions(user_id);
		`,
	},
	{
		name: "trades table",
		sql: `
			CREATE TABLE IF NOT EXISTS trades (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				item_id BIGINT NOT NULL REFERENCES items(id),
				quantity BIGINT NOT NULL,
				price BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_trades_created ON trades(created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id);
		`,
	},
	{
		name: "crafting tables",
		sql: `
			CREATE TABLE IF NOT EXISTS recipes (
				id BIGINT PRIMARY KEY,
				name VARCHAR(255) NOT NULL
			);
			CREATE TABLE IF NOT EXISTS recipe_requirements (
				recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				item_id BIGINT NOT NULL REFERENCES items(id),
				quantity BIGINT NOT NULL,
				is_consumed BOOLEAN NOT NULL DEFAULT TRUE,
				PRIMARY KEY (recipe_id, item_id)
			);
			CREATE TABLE IF NOT EXISTS recipe_results (
				recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				item_id BIGINT NOT NULL REFERENCES items(id),
				quantity BIGINT NOT NULL,
				PRIMARY KEY (recipe_id, item_id)
			);
		`,
	},
	{
		name: "relationship tables",
		sql: `
			CREATE TABLE IF NOT EXISTS marriages (
				user_a BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				user_b BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				married_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (user_a, user_b),
				CHECK (user_a < user_b)
			);
			CREATE TABLE IF NOT EXISTS parents (
				parent_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				child_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				adopted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (parent_id, child_id)
			);
			CREATE INDEX IF NOT EXISTS idx_parents_child ON parents(child_id);
		`,
	},
	{
		name: "lottery table",
		sql: `
			CREATE TABLE IF NOT EXISTS lottery (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_lottery_user ON lottery(user_id);
		`,
	},
	{
		name: "coin_ledger table",
		sql: `
			CREATE TABLE IF NOT EXISTS coin_ledger (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				amount BIGINT NOT NULL,
				kind VARCHAR(50) NOT NULL,
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_coin_ledger_user_time ON coin_ledger(user_id, created_at DESC);
		`,
	},
	{
		name: "guild_configs table",
		sql: `
			CREATE TABLE IF NOT EXISTS guild_configs (
				guild_id BIGINT PRIMARY KEY,
				allow_rob BOOLEAN NOT NULL DEFAULT TRUE
			);
		`,
	},
	{
		name: "seed item catalog",
		sql: `
			INSERT INTO items (id, name, description, icon, is_usable) VALUES
				(1,  'Bread',           'Restores a bit of energy.',                  '🍞', TRUE),
				(2,  'Lottery Ticket',  'A chance at a coin prize.',                  '🎟️', TRUE),
				(3,  'Scrap',           'Assorted junk metal.',                       '🔩', FALSE),
				(4,  'Wallet Lock',     'Protects your coins from robbers.',          '🔒', TRUE),
				(5,  'Gold Bar',        'Refined gold. Heavy and valuable.',          '🧈', FALSE),
				(6,  'Pickaxe',         'A sturdy digging tool.',                     '⛏️', FALSE),
				(7,  'Gold Ore',        'Raw ore flecked with gold.',                 '🪙', FALSE),
				(8,  'Game Kit',        'A box of dice and cards.',                   '🎲', TRUE),
				(9,  'Revolver',        'Six chambers. Needs bullets.',               '🔫', FALSE),
				(10, 'Herb',            'A bitter medicinal plant.',                  '🌿', TRUE),
				(11, 'Medkit',          'Patches up wounds in the field.',            '🩹', TRUE),
				(12, 'Bullet',          'Ammunition for the revolver.',               '•',  FALSE),
				(13, 'Rice Seed',       'Plant it and wait.',                         '🌾', FALSE),
				(14, 'Rice Ear',        'Harvested rice, still in the husk.',         '🌾', FALSE),
				(15, 'Coal',            'Fuel for the furnace.',                      '🪨', FALSE),
				(16, 'Cooked Rice',     'A warm, filling meal.',                      '🍚', TRUE),
				(17, 'Furnace',         'Smelts ore and cooks food.',                 '🔥', FALSE),
				(18, 'Stone',           'A common chunk of rock.',                    '🪨', FALSE),
				(19, 'Wood',            'A rough-cut log.',                           '🪵', FALSE),
				(20, 'Wheat',           'Golden grain, ready to mill.',               '🌾', FALSE),
				(21, 'Iron Ore',        'Raw ore with iron veins.',                   '⛰️', FALSE),
				(22, 'Iron Ingot',      'Smelted iron, ready to work.',               '🧱', FALSE),
				(23, 'Stick',           'A straight piece of wood.',                  '🥢', FALSE),
				(24, 'Rope',            'Braided fiber rope.',                        '🪢', FALSE),
				(25, 'Dumbbell',        'Training raises your stamina cap.',          '🏋️', TRUE),
				(26, 'Toolbelt',        'Keeps your tools close at hand.',            '🧰', FALSE),
				(27, 'Iron Pickaxe',    'Bites deeper than plain steel.',             '⛏️', FALSE),
				(28, 'Diamond Ore',     'Rock studded with rough diamonds.',          '💎', FALSE),
				(29, 'Diamond',         'A cut, flawless gem.',                       '💎', FALSE),
				(30, 'Diamond Pickaxe', 'The finest digging tool there is.',          '⛏️', FALSE),
				(31, 'Wooden Pickaxe',  'Barely holds together, but it digs.',        '⛏️', FALSE),
				(32, 'Stone Pickaxe',   'A step up from wood.',                       '⛏️', FALSE),
				(33, 'Wheat Seed',      'Plant it and wait.',                         '🌱', FALSE),
				(34, 'Cake',            'Rich and energizing. One slice at a time.',  '🍰', TRUE),
				(35, 'Sword',           'A reliable blade.',                          '🗡️', FALSE)
			ON CONFLICT (id) DO NOTHING;
		`,
	},
	{
		name: "seed item effects",
		sql: `
			INSERT INTO item_effects (item_id, effect, value, value_type) VALUES
				(1,  'add_energy',     '10',  'int'),
				(2,  'lottery_ticket', '1',   'int'),
				(4,  'rob_protection', '120', 'int'),
				(6,  'mining_tool',    '1',   'int'),
				(8,  'message',        'You shake the box. The dice rattle back.', 'text'),
				(10, 'add_energy',     '5',   'int'),
				(10, 'rpg_heal',       '15',  'int'),
				(11, 'rpg_heal',       '50',  'int'),
				(16, 'add_energy',     '25',  'int'),
				(25, 'add_energy_max', '5',   'int'),
				(25, 'unstackable',    '1',   'int'),
				(27, 'mining_tool',    '3',   'int'),
				(30, 'mining_tool',    '4',   'int'),
				(31, 'mining_tool',    '1',   'int'),
				(32, 'mining_tool',    '2',   'int'),
				(34, 'add_energy',     '40',  'int'),
				(34, 'unstackable',    '1',   'int')
			ON CONFLICT (item_id, effect) DO NOTHING;
		`,
	},
	{
		name: "seed weapons",
		sql: `
			INSERT INTO item_weapons
				(item_id, damage_min, damage_max, crit_rate, break_chance, needs_ammo, ammo_item_id, mag_capacity, weapon_type)
			VALUES
				(9,  6, 14, 0.30, 0.08, TRUE,  12, 6, 'gun'),
				(35, 4, 9,  0.20, 0.05, FALSE, 0,  0, 'melee')
			ON CONFLICT (item_id) DO NOTHING;
		`,
	},
	{
		name: "seed farm definitions",
		sql: `
			INSERT INTO farm_info (farm_id, input_id, duration) VALUES
				(1, 13, 10),
				(2, 33, 8)
			ON CONFLICT (farm_id) DO NOTHING;
			INSERT INTO farm_rewards (farm_id, output_id, output_amount) VALUES
				(1, 14, 4),
				(2, 20, 3)
			ON CONFLICT (farm_id, output_id) DO NOTHING;
		`,
	},
	{
		name: "seed recipes",
		sql: `
			INSERT INTO recipes (id, name) VALUES
				(1, 'Furnace'),
				(2, 'Cooked Rice'),
				(3, 'Iron Ingot'),
				(4, 'Gold Bar'),
				(5, 'Sticks'),
				(6, 'Wooden Pickaxe'),
				(7, 'Stone Pickaxe'),
				(8, 'Iron Pickaxe'),
				(9, 'Diamond'),
				(10, 'Bread')
			ON CONFLICT (id) DO NOTHING;
			INSERT INTO recipe_requirements (recipe_id, item_id, quantity, is_consumed) VALUES
				(1,  18, 10, TRUE),
				(2,  14, 1,  TRUE),
				(2,  17, 1,  FALSE),
				(3,  21, 2,  TRUE),
				(3,  15, 1,  TRUE),
				(3,  17, 1,  FALSE),
				(4,  7,  2,  TRUE),
				(4,  15, 1,  TRUE),
				(4,  17, 1,  FALSE),
				(5,  19, 1,  TRUE),
				(6,  19, 3,  TRUE),
				(6,  23, 2,  TRUE),
				(7,  18, 3,  TRUE),
				(7,  23, 2,  TRUE),
				(8,  22, 3,  TRUE),
				(8,  23, 2,  TRUE),
				(9,  28, 1,  TRUE),
				(9,  6,  1,  FALSE),
				(10, 20, 3,  TRUE),
				(10, 17, 1,  FALSE)
			ON CONFLICT (recipe_id, item_id) DO NOTHING;
			INSERT INTO recipe_results (recipe_id, item_id, quantity) VALUES
				(1,  17, 1),
				(2,  16, 1),
				(3,  22, 1),
				(4,  5,  1),
				(5,  23, 2),
				(6,  31, 1),
				(7,  32, 1),
				(8,  27, 1),
				(9,  29, 1),
				(10, 1,  2)
			ON CONFLICT (recipe_id, item_id) DO NOTHING;
		`,
	},
}

// RunMigrations applies the schema and reference data. Safe to call on
// every startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q failed: %w", m.name, err)
		}
		log.Info().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
