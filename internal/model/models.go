// Package model defines the data models for the economy core.
package model

import "time"

// User represents a player account. Energy and mood are always kept
// within [0, max] by the mutating layers.
type User struct {
	ID        int64     `db:"id"`
	Coins     int64     `db:"coins"`
	Energy    int       `db:"energy"`
	EnergyMax int       `db:"energy_max"`
	Mood      int       `db:"mood"`
	MoodMax   int       `db:"mood_max"`
	CreatedAt time.Time `db:"created_at"`
}

// Item is a static catalog entry. Immutable at runtime.
type Item struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Icon        string `db:"icon"`
	IsUsable    bool   `db:"is_usable"`
}

// InventoryEntry is one (user, item) stack.
type InventoryEntry struct {
	UserID   int64 `db:"user_id"`
	ItemID   int64 `db:"item_id"`
	Quantity int64 `db:"quantity"`
}

// EffectKind classifies what happens when an item is used. Item effect
// rows store free-text kinds; they are converted to this enum at load.
type EffectKind int

const (
	EffectKindUnknown EffectKind = iota
	EffectKindAddEnergy
	EffectKindAddEnergyMax
	EffectKindRobProtection
	EffectKindLotteryTicket
	EffectKindUnstackable
	EffectKindMessage
	EffectKindMiningTool
	EffectKindHeal
)

// ParseEffectKind converts a stored effect name into its typed kind.
func ParseEffectKind(name string) EffectKind {
	switch name {
	case "add_energy":
		return EffectKindAddEnergy
	case "add_energy_max":
		return EffectKindAddEnergyMax
	case "rob_protection":
		return EffectKindRobProtection
	case "lottery_ticket":
		return EffectKindLotteryTicket
	case "unstackable":
		return EffectKindUnstackable
	case "message":
		return EffectKindMessage
	case "mining_tool":
		return EffectKindMiningTool
	case "rpg_heal":
		return EffectKindHeal
	default:
		return EffectKindUnknown
	}
}

// ItemEffect describes one on-use behavior of an item. An item may
// carry several. Values are stored as text; Value holds the parsed
// number when ValueType is "int".
type ItemEffect struct {
	ItemID    int64      `db:"item_id"`
	Kind      EffectKind `db:"-"`
	RawKind   string     `db:"effect"`
	RawValue  string     `db:"value"`
	Value     int64      `db:"-"`
	ValueType string     `db:"value_type"`
}

// Weapon holds the combat stats of a weapon-class item.
type Weapon struct {
	ItemID      int64   `db:"item_id"`
	DamageMin   int     `db:"damage_min"`
	DamageMax   int     `db:"damage_max"`
	CritRate    float64 `db:"crit_rate"`
	BreakChance float64 `db:"break_chance"`
	NeedsAmmo   bool    `db:"needs_ammo"`
	AmmoItemID  int64   `db:"ammo_item_id"`
	MagCapacity int     `db:"mag_capacity"`
	WeaponType  string  `db:"weapon_type"`
}

// EffectID identifies a timed status effect.
type EffectID int

const (
	EffectRest           EffectID = 1
	EffectRobProtect     EffectID = 2
	EffectInjured        EffectID = 3
	EffectTaxPerk        EffectID = 4
	EffectReplenished    EffectID = 5
	EffectExhausted      EffectID = 6
	EffectGamblingAddict EffectID = 7
	EffectMotivated      EffectID = 8
	EffectDemoralized    EffectID = 9
	EffectOverworked     EffectID = 10
)

// CurrentEffect is a live status effect on a user. Duration is counted
// in ticks; the effect expires once elapsed wall-clock time reaches
// duration multiplied by the tick length.
type CurrentEffect struct {
	UserID    int64     `db:"user_id"`
	EffectID  EffectID  `db:"effect_id"`
	Duration  int64     `db:"duration"`
	Ticks     int64     `db:"ticks"`
	AppliedAt time.Time `db:"applied_at"`
}

// FarmDefinition is reference data: which item can be planted and for
// how many ticks it grows.
type FarmDefinition struct {
	FarmID   int64 `db:"farm_id"`
	InputID  int64 `db:"input_id"`
	Duration int64 `db:"duration"`
}

// FarmReward is one output line of a farm definition. Harvesting rolls
// a quantity in [max(1, amount/2), amount].
type FarmReward struct {
	FarmID   int64 `db:"farm_id"`
	OutputID int64 `db:"output_id"`
	Amount   int64 `db:"output_amount"`
}

// FarmSession is one growing plot owned by a user.
type FarmSession struct {
	SessionID  int64     `db:"session_id"`
	UserID     int64     `db:"user_id"`
	FarmID     int64     `db:"farm_id"`
	CreatedAt  time.Time `db:"created_at"`
	Duration   int64     `db:"duration"`
	FinishedAt time.Time `db:"finished_at"`
}

// Trade is a standing sell listing on the market.
type Trade struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ItemID    int64     `db:"item_id"`
	Quantity  int64     `db:"quantity"`
	Price     int64     `db:"price"`
	CreatedAt time.Time `db:"created_at"`
}

// Recipe maps requirement items to result items. Requirements with
// IsConsumed=false must be held but are not spent.
type Recipe struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// RecipeRequirement is one input line of a recipe.
type RecipeRequirement struct {
	RecipeID   int64 `db:"recipe_id"`
	ItemID     int64 `db:"item_id"`
	Quantity   int64 `db:"quantity"`
	IsConsumed bool  `db:"is_consumed"`
}

// RecipeResult is one output line of a recipe.
type RecipeResult struct {
	RecipeID int64 `db:"recipe_id"`
	ItemID   int64 `db:"item_id"`
	Quantity int64 `db:"quantity"`
}

// Marriage is an undirected partner edge stored with UserA < UserB.
type Marriage struct {
	UserA     int64     `db:"user_a"`
	UserB     int64     `db:"user_b"`
	MarriedAt time.Time `db:"married_at"`
}

// ParentLink is a directed parent-to-child adoption edge.
type ParentLink struct {
	ParentID  int64     `db:"parent_id"`
	ChildID   int64     `db:"child_id"`
	AdoptedAt time.Time `db:"adopted_at"`
}

// LedgerEntry is one recorded coin movement.
type LedgerEntry struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Kind        string    `db:"kind"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Ledger entry kinds.
const (
	LedgerGiveSent      = "give_sent"
	LedgerGiveReceived  = "give_received"
	LedgerRob           = "rob"
	LedgerRobbed        = "robbed"
	LedgerTradeSale     = "trade_sale"
	LedgerTradePurchase = "trade_purchase"
	LedgerLottery       = "lottery"
)

// GuildConfig holds per-guild feature toggles.
type GuildConfig struct {
	GuildID  int64 `db:"guild_id"`
	AllowRob bool  `db:"allow_rob"`
}

// Well-known item IDs used by game logic. The catalog table is the
// source of truth for names and descriptions.
const (
	ItemBread          int64 = 1
	ItemLotteryTicket  int64 = 2
	ItemScrap          int64 = 3
	ItemWalletLock     int64 = 4
	ItemGoldBar        int64 = 5
	ItemPickaxe        int64 = 6
	ItemGoldOre        int64 = 7
	ItemGameKit        int64 = 8
	ItemRevolver       int64 = 9
	ItemHerb           int64 = 10
	ItemMedkit         int64 = 11
	ItemBullet         int64 = 12
	ItemRiceSeed       int64 = 13
	ItemRiceEar        int64 = 14
	ItemCoal           int64 = 15
	ItemCookedRice     int64 = 16
	ItemFurnace        int64 = 17
	ItemStone          int64 = 18
	ItemWood           int64 = 19
	ItemWheat          int64 = 20
	ItemIronOre        int64 = 21
	ItemIronIngot      int64 = 22
	ItemStick          int64 = 23
	ItemRope           int64 = 24
	ItemDumbbell       int64 = 25
	ItemToolbelt       int64 = 26
	ItemIronPickaxe    int64 = 27
	ItemDiamondOre     int64 = 28
	ItemDiamond        int64 = 29
	ItemDiamondPickaxe int64 = 30
	ItemWoodenPickaxe  int64 = 31
	ItemStonePickaxe   int64 = 32
	ItemWheatSeed      int64 = 33
	ItemCake           int64 = 34
	ItemSword          int64 = 35
)
