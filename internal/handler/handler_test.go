package handler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/config"
	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/data"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

const testItemYAML = `items:
  - item_id: 1
    name: "Gold"
    stackable: true
  - item_id: 40001
    name: "Loaf of Bread"
    stackable: true
  - item_id: 50001
    name: "Rusty Shortsword"
    stackable: false
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

const testNpcYAML = `npcs:
  - npc_id: 1002
    name: "Gloom Wolf"
    level: 4
    hp: 38
    hostile: true
    aggro_range: 6
    exp: 60
    gold_min: 5
    gold_max: 14
    dmg_min: 2
    dmg_max: 6
    respawn_delay: 30
`

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

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testClock is an adjustable Now source.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDeps(t *testing.T) (*Deps, *testClock) {
	t.Helper()
	dir := t.TempDir()

	items, err := data.LoadItemTable(writeTemp(t, dir, "items.yaml", testItemYAML))
	require.NoError(t, err)
	spells, err := data.LoadSpellTable(writeTemp(t, dir, "spells.yaml", testSpellYAML))
	require.NoError(t, err)
	npcs, err := data.LoadNpcTable(writeTemp(t, dir, "npcs.yaml", testNpcYAML))
	require.NoError(t, err)
	drops, err := data.LoadDropTable(writeTemp(t, dir, "drops.yaml", "drops: []\n"))
	require.NoError(t, err)
	maps, err := data.LoadMapTable(writeTemp(t, dir, "maps.yaml", testMapYAML), dir)
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.Server.Admins = []string{"gm"}

	ws := world.NewState()
	maps.ForEach(func(info data.MapInfo, blocked []bool) {
		ws.RegisterMap(world.NewMapGrid(info.MapID, info.StartX, info.StartY, info.EndX, info.EndY, blocked))
	})

	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	nextID := int32(0)

	deps := &Deps{
		Config:  cfg,
		Bus:     event.NewBus(),
		Log:     zap.NewNop(),
		World:   ws,
		Npcs:    npcs,
		Items:   items,
		Spells:  spells,
		Drops:   drops,
		Maps:    maps,
		Actions: NewActionQueue(),
		NextCharID: func() int32 {
			nextID++
			return nextID
		},
		Now: clock.Now,
	}
	return deps, clock
}

func newTestSession(t *testing.T) *net.Session {
	t.Helper()
	return net.NewSession(nil, net.SessionConfig{InQueueSize: 32, OutQueueSize: 64}, zap.NewNop())
}

// enterWorld logs a fresh character in and returns it.
func enterWorld(t *testing.T, deps *Deps, name string) *world.PlayerInfo {
	t.Helper()
	sess := newTestSession(t)
	HandleLogin(sess, net.LoginCmd{Name: name}, deps)
	p := deps.World.GetBySession(sess.ID)
	require.NotNil(t, p, "login must place the character in the world")
	return p
}

func spawnTestNpc(t *testing.T, deps *Deps, x, y int32) *world.NpcInfo {
	t.Helper()
	npc := &world.NpcInfo{
		ID:         world.NextNpcID(),
		Tmpl:       deps.Npcs.Get(1002),
		X:          x,
		Y:          y,
		MapID:      1,
		HP:         38,
		State:      world.StateIdle,
		SpawnX:     x,
		SpawnY:     y,
		SpawnMapID: 1,
	}
	require.NoError(t, deps.World.AddNpc(npc))
	return npc
}
