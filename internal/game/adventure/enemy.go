package adventure

import "hawk-economy-core/internal/model"

// Enemy categories. Loot enemies deal no damage and may be skipped.
const (
	EnemyHostile = "hostile"
	EnemyLoot    = "loot"
)

// EnemyLootEntry is one independently rolled drop from a defeated or
// skipped enemy.
type EnemyLootEntry struct {
	ItemID    int64
	AmountMin int64
	AmountMax int64
	Chance    float64
}

// Enemy is a static stat block. Balancing is a data edit, not a code
// change.
type Enemy struct {
	Name              string
	Type              string
	Health            int
	Damage            int
	CritChance        float64
	ParryChance       float64
	BulletproofChance float64
	Loot              []EnemyLootEntry
}

// Roster is the fixed set of enemies an adventure can spawn.
var Roster = []Enemy{
	{
		Name: "hawk thief", Type: EnemyHostile,
		Health: 10, Damage: 5,
		CritChance: 0.23, ParryChance: 0.25, BulletproofChance: 0.4,
		Loot: []EnemyLootEntry{
			{model.ItemScrap, 1, 2, 0.4},
			{model.ItemWood, 1, 2, 0.3},
			{model.ItemStone, 1, 1, 0.2},
		},
	},
	{
		Name: "hawk", Type: EnemyHostile,
		Health: 15, Damage: 8,
		CritChance: 0.35, ParryChance: 0.15, BulletproofChance: 0.2,
		Loot: []EnemyLootEntry{
			{model.ItemHerb, 1, 3, 0.5},
			{model.ItemWood, 1, 3, 0.4},
			{model.ItemStone, 1, 2, 0.3},
		},
	},
	{
		Name: "hawk goblin", Type: EnemyHostile,
		Health: 12, Damage: 6,
		CritChance: 0.25, ParryChance: 0.3, BulletproofChance: 0.1,
		Loot: []EnemyLootEntry{
			{model.ItemScrap, 2, 4, 0.6},
			{model.ItemCoal, 1, 2, 0.4},
			{model.ItemStone, 1, 2, 0.3},
		},
	},
	{
		Name: "hawk undead", Type: EnemyHostile,
		Health: 18, Damage: 7,
		CritChance: 0.2, ParryChance: 0.4, BulletproofChance: 0.6,
		Loot: []EnemyLootEntry{
			{model.ItemStone, 2, 5, 0.7},
			{model.ItemWood, 2, 4, 0.5},
			{model.ItemCoal, 1, 2, 0.3},
		},
	},
	{
		Name: "hawk warrior", Type: EnemyHostile,
		Health: 25, Damage: 12,
		CritChance: 0.3, ParryChance: 0.2, BulletproofChance: 0.5,
		Loot: []EnemyLootEntry{
			{model.ItemIronOre, 2, 4, 0.5},
			{model.ItemCoal, 2, 4, 0.4},
			{model.ItemStone, 3, 6, 0.3},
		},
	},
	{
		Name: "eagle", Type: EnemyHostile,
		Health: 30, Damage: 15,
		CritChance: 0.4, ParryChance: 0.1, BulletproofChance: 0.3,
		Loot: []EnemyLootEntry{
			{model.ItemHerb, 3, 6, 0.5},
			{model.ItemWood, 3, 6, 0.4},
			{model.ItemStone, 2, 4, 0.3},
		},
	},
	{
		Name: "hawk troll", Type: EnemyHostile,
		Health: 40, Damage: 18,
		CritChance: 0.25, ParryChance: 0.15, BulletproofChance: 0.7,
		Loot: []EnemyLootEntry{
			{model.ItemStone, 5, 10, 0.8},
			{model.ItemWood, 4, 8, 0.6},
			{model.ItemCoal, 2, 4, 0.4},
		},
	},
	{
		Name: "phoenix", Type: EnemyHostile,
		Health: 60, Damage: 25,
		CritChance: 0.5, ParryChance: 0.05, BulletproofChance: 0.8,
		Loot: []EnemyLootEntry{
			{model.ItemDiamond, 1, 2, 0.4},
			{model.ItemGoldBar, 2, 5, 0.5},
			{model.ItemCoal, 3, 6, 0.3},
		},
	},
	{
		Name: "hawk scavenger", Type: EnemyHostile,
		Health: 8, Damage: 4,
		CritChance: 0.15, ParryChance: 0.35, BulletproofChance: 0.0,
		Loot: []EnemyLootEntry{
			{model.ItemScrap, 3, 6, 0.8},
			{model.ItemWood, 1, 3, 0.5},
			{model.ItemStone, 1, 2, 0.4},
		},
	},
	{
		Name: "hawk miner", Type: EnemyHostile,
		Health: 22, Damage: 9,
		CritChance: 0.18, ParryChance: 0.2, BulletproofChance: 0.4,
		Loot: []EnemyLootEntry{
			{model.ItemStone, 4, 8, 0.7},
			{model.ItemCoal, 3, 6, 0.6},
			{model.ItemIronOre, 1, 3, 0.4},
		},
	},
	{
		Name: "hawk forager", Type: EnemyHostile,
		Health: 14, Damage: 6,
		CritChance: 0.22, ParryChance: 0.28, BulletproofChance: 0.1,
		Loot: []EnemyLootEntry{
			{model.ItemHerb, 2, 5, 0.8},
			{model.ItemWood, 2, 4, 0.6},
			{model.ItemWheat, 1, 3, 0.4},
		},
	},
	{
		Name: "hawk treasure", Type: EnemyLoot,
		Health: 5,
		Loot: []EnemyLootEntry{
			{model.ItemGoldBar, 1, 3, 0.8},
			{model.ItemDiamond, 1, 2, 0.3},
			{model.ItemIronOre, 2, 4, 0.5},
		},
	},
	{
		Name: "hawk merchant", Type: EnemyLoot,
		Health: 8,
		Loot: []EnemyLootEntry{
			{model.ItemBread, 5, 10, 0.7},
			{model.ItemHerb, 4, 8, 0.6},
			{model.ItemScrap, 2, 5, 0.4},
		},
	},
	{
		Name: "hawk lumberjack", Type: EnemyLoot,
		Health: 6,
		Loot: []EnemyLootEntry{
			{model.ItemWood, 8, 15, 0.9},
			{model.ItemStone, 1, 3, 0.3},
		},
	},
}
