package mining

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"hawk-economy-core/internal/model"
)

func TestZoneBoundaries(t *testing.T) {
	tests := []struct {
		depth int
		zone  string
	}{
		{0, ZoneSurfaceMine},
		{10, ZoneSurfaceMine},
		{11, ZoneIronQuarry},
		{30, ZoneIronQuarry},
		{31, ZoneGoldDepths},
		{50, ZoneGoldDepths},
		{51, ZoneDiamondAbyss},
		{9999, ZoneDiamondAbyss},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.zone, ZoneForDepth(tt.depth), "depth=%d", tt.depth)
	}
}

func TestLootTableMatchesZone(t *testing.T) {
	surface := LootTable(5)
	assert.Len(t, surface, 2)
	assert.Equal(t, model.ItemStone, surface[0].ItemID)

	abyss := LootTable(100)
	assert.Equal(t, model.ItemDiamondOre, abyss[0].ItemID)
	assert.Equal(t, 0.10, abyss[0].Chance)
}

func TestTreasureRoomOnlyInDeepZones(t *testing.T) {
	hasTreasure := func(depth int) bool {
		for _, ev := range EventTable(depth) {
			if ev.Type == EventTreasureRoom {
				return true
			}
		}
		return false
	}

	assert.False(t, hasTreasure(49))
	assert.True(t, hasTreasure(50))
	assert.True(t, hasTreasure(200))
}

func TestAscendFloorsAtSurface(t *testing.T) {
	e := &Engine{depths: make(map[int64]int), cooldowns: make(map[cooldownKey]time.Time)}

	e.depths[1] = 3
	assert.Equal(t, 0, e.Ascend(1))
	assert.Equal(t, 0, e.Ascend(1))

	assert.Equal(t, 5, e.Descend(1))
	assert.Equal(t, 10, e.Descend(1))
	assert.Equal(t, 5, e.Ascend(1))
}

func TestEngineTunableDefaults(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil, 0, 0)
	assert.Equal(t, EnergyCost, e.energyCost)
	assert.Equal(t, EventCooldown, e.eventCooldown)

	e = NewEngine(nil, nil, nil, nil, 25, time.Minute)
	assert.Equal(t, 25, e.energyCost)
	assert.Equal(t, time.Minute, e.eventCooldown)
}

func TestEventCooldown(t *testing.T) {
	e := &Engine{
		depths:        make(map[int64]int),
		cooldowns:     make(map[cooldownKey]time.Time),
		eventCooldown: EventCooldown,
	}

	assert.True(t, e.cooldownReady(1, EventCaveIn))
	e.setCooldown(1, EventCaveIn)
	assert.False(t, e.cooldownReady(1, EventCaveIn))

	// Other event types and other users are unaffected.
	assert.True(t, e.cooldownReady(1, EventRichVein))
	assert.True(t, e.cooldownReady(2, EventCaveIn))

	// Expired cooldowns clear.
	e.cooldowns[cooldownKey{1, EventCaveIn}] = time.Now().Add(-EventCooldown - time.Second)
	assert.True(t, e.cooldownReady(1, EventCaveIn))
}

func TestDepthNeverNegativeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := &Engine{depths: make(map[int64]int), cooldowns: make(map[cooldownKey]time.Time)}
		steps := rapid.SliceOf(rapid.Bool()).Draw(t, "steps")

		for _, down := range steps {
			var depth int
			if down {
				depth = e.Descend(7)
			} else {
				depth = e.Ascend(7)
			}
			if depth < 0 {
				t.Fatalf("depth went negative: %d", depth)
			}
		}
	})
}
