package system

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/config"
	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/data"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/scripting"
	"github.com/duskhollow/server/internal/world"
)

const testMapYAML = `maps:
  - map_id: 1
    name: "Test Field"
    start_x: 0
    end_x: 49
    start_y: 0
    end_y: 49
    spawn_x: 25
    spawn_y: 25
  - map_id: 2
    name: "Other Field"
    start_x: 0
    end_x: 49
    start_y: 0
    end_y: 49
    spawn_x: 5
    spawn_y: 5
`

const testNpcYAML = `npcs:
  - npc_id: 1001
    name: "Training Dummy"
    level: 1
    hp: 400
    exp: 12
    dmg_min: 1
    dmg_max: 2
  - npc_id: 1002
    name: "Gloom Wolf"
    level: 4
    hp: 38
    hostile: true
    aggro_range: 6
    exp: 60
    gold_min: 5
    gold_max: 14
    accuracy: 4
    dmg_min: 2
    dmg_max: 6
  - npc_id: 1004
    name: "Crypt Shade"
    level: 3
    hp: 52
    hostile: true
    aggro_range: 10
    exp: 150
    dmg_min: 3
    dmg_max: 8
`

const testItemYAML = `items:
  - item_id: 1
    name: "Gold"
    stackable: true
  - item_id: 40010
    name: "Wolf Pelt"
    stackable: true
`

const testSpellYAML = `spells:
  - spell_id: 1
    name: "Spark"
    mp_cost: 3
    range: 5
    cooldown: 1200
    dmg_min: 3
    dmg_max: 8
    accuracy: 10
`

// Every wolf kill drops exactly one pelt, so loot tests are deterministic.
const testDropYAML = `drops:
  - npc_id: 1002
    items:
      - item_id: 40010
        min: 1
        max: 1
        chance: 1000000
`

// testClock is an adjustable Now source.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type harness struct {
	deps  *handler.Deps
	ws    *world.State
	bus   *event.Bus
	rng   *rand.Rand
	clock *testClock
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	maps, err := data.LoadMapTable(writeTemp(t, dir, "maps.yaml", testMapYAML), dir)
	require.NoError(t, err)
	npcs, err := data.LoadNpcTable(writeTemp(t, dir, "npcs.yaml", testNpcYAML))
	require.NoError(t, err)
	items, err := data.LoadItemTable(writeTemp(t, dir, "items.yaml", testItemYAML))
	require.NoError(t, err)
	spells, err := data.LoadSpellTable(writeTemp(t, dir, "spells.yaml", testSpellYAML))
	require.NoError(t, err)
	drops, err := data.LoadDropTable(writeTemp(t, dir, "drops.yaml", testDropYAML))
	require.NoError(t, err)

	engine, err := scripting.NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	ws := world.NewState()
	maps.ForEach(func(info data.MapInfo, blocked []bool) {
		ws.RegisterMap(world.NewMapGrid(info.MapID, info.StartX, info.StartY, info.EndX, info.EndY, blocked))
	})

	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	nextID := int32(0)

	bus := event.NewBus()
	deps := &handler.Deps{
		Config:    config.Defaults(),
		Bus:       bus,
		Log:       zap.NewNop(),
		World:     ws,
		Scripting: engine,
		Npcs:      npcs,
		Items:     items,
		Spells:    spells,
		Drops:     drops,
		Maps:      maps,
		Actions:   handler.NewActionQueue(),
		NextCharID: func() int32 {
			nextID++
			return nextID
		},
		Now: clock.Now,
	}

	return &harness{
		deps:  deps,
		ws:    ws,
		bus:   bus,
		rng:   rand.New(rand.NewSource(7)),
		clock: clock,
	}
}

// enterPlayer places a level-1 character directly into the world index.
func enterPlayer(t *testing.T, h *harness, name string, x, y int32) *world.PlayerInfo {
	t.Helper()
	sess := net.NewSession(nil, net.SessionConfig{InQueueSize: 32, OutQueueSize: 64}, zap.NewNop())
	p := &world.PlayerInfo{
		SessionID: sess.ID,
		Session:   sess,
		CharID:    h.deps.NextCharID(),
		Name:      name,
		X:         x,
		Y:         y,
		MapID:     1,
		VisRadius: h.deps.Config.Gameplay.VisibilityRadius,
		Level:     1,
		HP:        20,
		MaxHP:     20,
		MP:        10,
		MaxMP:     10,
		Str:       10,
		Dex:       10,
		Con:       12,
		Food:      h.deps.Config.Gameplay.InitialFood,
		Inv:       world.NewInventory(),
		Known:     world.NewKnownEntities(),
	}
	require.NoError(t, h.ws.AddPlayer(p))
	return p
}

func spawnNpc(t *testing.T, h *harness, tmplID, x, y int32) *world.NpcInfo {
	t.Helper()
	tmpl := h.deps.Npcs.Get(tmplID)
	require.NotNil(t, tmpl)
	npc := &world.NpcInfo{
		ID:         world.NextNpcID(),
		Tmpl:       tmpl,
		X:          x,
		Y:          y,
		MapID:      1,
		HP:         tmpl.HP,
		State:      world.StateIdle,
		SpawnX:     x,
		SpawnY:     y,
		SpawnMapID: 1,
	}
	require.NoError(t, h.ws.AddNpc(npc))
	return npc
}

// holdWander pins an NPC in place so position assertions are not disturbed
// by the idle wander step.
func holdWander(h *harness, npc *world.NpcInfo) {
	npc.NextWanderAt = h.clock.Now().Add(time.Hour)
}
