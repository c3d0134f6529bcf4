package mining

import "hawk-economy-core/internal/model"

// Zone names.
const (
	ZoneSurfaceMine  = "Surface Mine"
	ZoneIronQuarry   = "Iron Quarry"
	ZoneGoldDepths   = "Gold Depths"
	ZoneDiamondAbyss = "Diamond Abyss"
)

// Zone depth boundaries in meters, inclusive upper bounds.
const (
	surfaceMaxDepth    = 10
	ironQuarryMaxDepth = 30
	goldDepthsMaxDepth = 50
)

// treasureRoomMinDepth is the shallowest depth at which the treasure
// room event can fire.
const treasureRoomMinDepth = 50

// LootEntry is one independently rolled drop in a zone's loot table.
type LootEntry struct {
	ItemID int64
	Chance float64
}

// EventChance is one candidate mining event. Events are checked in
// order and at most one fires per dig.
type EventChance struct {
	Type   EventType
	Chance float64
}

// EventType identifies a random mining event.
type EventType string

// Mining events.
const (
	EventCaveIn          EventType = "cave_in"
	EventRichVein        EventType = "rich_vein"
	EventGasPocket       EventType = "gas_pocket"
	EventUndergroundLake EventType = "underground_lake"
	EventTreasureRoom    EventType = "treasure_room"
)

// ZoneForDepth maps a depth in meters to its zone name.
func ZoneForDepth(depth int) string {
	switch {
	case depth <= surfaceMaxDepth:
		return ZoneSurfaceMine
	case depth <= ironQuarryMaxDepth:
		return ZoneIronQuarry
	case depth <= goldDepthsMaxDepth:
		return ZoneGoldDepths
	default:
		return ZoneDiamondAbyss
	}
}

// LootTable returns the drop table for a depth. Deeper zones trade
// common stone for ores.
func LootTable(depth int) []LootEntry {
	switch ZoneForDepth(depth) {
	case ZoneSurfaceMine:
		return []LootEntry{
			{model.ItemStone, 0.60},
			{model.ItemCoal, 0.25},
		}
	case ZoneIronQuarry:
		return []LootEntry{
			{model.ItemIronOre, 0.50},
			{model.ItemStone, 0.35},
			{model.ItemCoal, 0.15},
		}
	case ZoneGoldDepths:
		return []LootEntry{
			{model.ItemGoldOre, 0.45},
			{model.ItemIronOre, 0.30},
			{model.ItemDiamondOre, 0.05},
			{model.ItemCoal, 0.20},
		}
	default:
		return []LootEntry{
			{model.ItemDiamondOre, 0.10},
			{model.ItemGoldOre, 0.40},
			{model.ItemIronOre, 0.30},
			{model.ItemCoal, 0.20},
		}
	}
}

// EventTable returns the candidate events for a depth, in roll order.
func EventTable(depth int) []EventChance {
	events := []EventChance{
		{EventCaveIn, 0.05},
		{EventRichVein, 0.10},
		{EventGasPocket, 0.03},
		{EventUndergroundLake, 0.02},
	}
	if depth >= treasureRoomMinDepth {
		events = append(events, EventChance{EventTreasureRoom, 0.01})
	}
	return events
}
