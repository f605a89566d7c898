package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/world"
)

func newAISystem(h *harness) *NpcAISystem {
	return NewNpcAISystem(h.deps, h.bus, h.rng, zap.NewNop())
}

func TestNpcAggroWithinRange(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "bait", 30, 25)
	npc := spawnNpc(t, h, 1002, 25, 25) // aggro range 6, distance 5

	ai.Update(0)

	assert.Equal(t, world.StateAggroed, npc.State)
	assert.Equal(t, p.SessionID, npc.TargetSession)
	// The same tick also closes one tile of the gap.
	assert.Equal(t, int32(26), npc.X)
	assert.Equal(t, int32(25), npc.Y)
}

func TestNpcIgnoresPlayerBeyondAggroRange(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	enterPlayer(t, h, "distant", 32, 25) // distance 7 > aggro range 6
	npc := spawnNpc(t, h, 1002, 25, 25)

	ai.Update(0)

	assert.Equal(t, world.StateIdle, npc.State)
	assert.Zero(t, npc.TargetSession)
}

func TestNpcPassiveNeverAggros(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	enterPlayer(t, h, "nearby", 26, 25)
	npc := spawnNpc(t, h, 1001, 25, 25) // not hostile
	holdWander(h, npc)

	ai.Update(0)

	assert.Equal(t, world.StateIdle, npc.State)
	assert.Zero(t, npc.TargetSession)
}

func TestNpcAggroTieBreaksOnLowestSession(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	first := enterPlayer(t, h, "first", 28, 25)
	second := enterPlayer(t, h, "second", 22, 25)
	require.Less(t, first.SessionID, second.SessionID)

	npc := spawnNpc(t, h, 1002, 25, 25) // both at distance 3
	ai.Update(0)

	assert.Equal(t, world.StateAggroed, npc.State)
	assert.Equal(t, first.SessionID, npc.TargetSession)
}

func TestNpcDisengagesBeyondLeash(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "runner", 38, 25) // distance 13 > disengage 12
	npc := spawnNpc(t, h, 1002, 25, 25)
	holdWander(h, npc)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	ai.Update(0)

	assert.Equal(t, world.StateIdle, npc.State)
	assert.Zero(t, npc.TargetSession)
	assert.Equal(t, int32(25), npc.X)
}

func TestNpcDropsDeadOrMissingTarget(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "victim", 27, 25)
	npc := spawnNpc(t, h, 1002, 25, 25)
	holdWander(h, npc)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	p.Dead = true
	ai.Update(0)
	assert.Equal(t, world.StateIdle, npc.State)
	assert.Zero(t, npc.TargetSession)

	npc.State = world.StateAggroed
	npc.TargetSession = 998877 // never existed
	ai.Update(0)
	assert.Equal(t, world.StateIdle, npc.State)
}

func TestNpcChasesOneStepPerTick(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "prey", 29, 25)
	npc := spawnNpc(t, h, 1002, 25, 25)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	ai.Update(0)
	assert.Equal(t, int32(26), npc.X)
	assert.Equal(t, int32(25), npc.Y)

	ai.Update(0)
	assert.Equal(t, int32(27), npc.X)
}

func TestNpcAttackRespectsCooldown(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "tank", 26, 25)
	npc := spawnNpc(t, h, 1002, 25, 25)
	holdWander(h, npc)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	start := h.clock.Now()
	ai.Update(0)
	first := npc.NextAttackAt
	assert.Equal(t, start.Add(2*time.Second), first) // template default cooldown

	// Still on cooldown: no new swing is scheduled.
	h.clock.Advance(time.Second)
	ai.Update(0)
	assert.Equal(t, first, npc.NextAttackAt)

	h.clock.Advance(time.Second)
	ai.Update(0)
	assert.Equal(t, h.clock.Now().Add(2*time.Second), npc.NextAttackAt)
}

func TestNpcStaysAggroedWhileCooldownPending(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "shield", 26, 25)
	npc := spawnNpc(t, h, 1002, 25, 25)
	holdWander(h, npc)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID
	npc.NextAttackAt = h.clock.Now().Add(time.Hour)

	ai.Update(0)

	// Adjacent but on cooldown: Attacking is never entered.
	assert.Equal(t, world.StateAggroed, npc.State)
	assert.Equal(t, h.clock.Now().Add(time.Hour), npc.NextAttackAt)
	assert.Equal(t, int32(25), npc.X)
}

func TestNpcReturnsToAggroedAfterSwing(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "sparring", 26, 25)
	npc := spawnNpc(t, h, 1002, 25, 25)
	holdWander(h, npc)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	ai.Update(0)

	// The swing resolved (cooldown armed) and the state dropped straight
	// back to Aggroed; Attacking never rests across ticks.
	assert.Equal(t, h.clock.Now().Add(2*time.Second), npc.NextAttackAt)
	assert.Equal(t, world.StateAggroed, npc.State)
}

func TestNpcResumesChaseWhenTargetSteps(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	p := enterPlayer(t, h, "kiter", 26, 25)
	npc := spawnNpc(t, h, 1002, 25, 25)
	holdWander(h, npc)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	ai.Update(0)
	require.Equal(t, world.StateAggroed, npc.State)
	require.False(t, npc.NextAttackAt.IsZero(), "the first visit must swing")

	// The chase is not gated on the attack cooldown.
	require.NoError(t, h.ws.MovePlayer(p.SessionID, 29, 25, 2))
	ai.Update(0)
	assert.Equal(t, world.StateAggroed, npc.State)
	assert.Equal(t, int32(26), npc.X) // stepped back into pursuit
}

func TestNpcKillsPlayer(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	var died []event.PlayerDied
	event.Subscribe(h.bus, func(ev event.PlayerDied) { died = append(died, ev) })

	p := enterPlayer(t, h, "doomed", 26, 25)
	p.HP = 1
	npc := spawnNpc(t, h, 1002, 25, 25)
	npc.State = world.StateAggroed
	npc.TargetSession = p.SessionID

	// Swings can miss; keep ticking until one lands.
	for i := 0; i < 200 && !p.Dead; i++ {
		ai.Update(0)
		h.clock.Advance(npc.AttackCooldown())
	}
	require.True(t, p.Dead, "an attack must eventually land")

	assert.Equal(t, int16(0), p.HP)
	assert.True(t, p.Dirty)
	assert.Zero(t, h.ws.OccupantAt(1, p.X, p.Y), "corpse tile must not block")
	assert.Equal(t, world.StateIdle, npc.State)
	assert.Zero(t, npc.TargetSession)

	h.bus.Swap()
	h.bus.DispatchAll()
	require.Len(t, died, 1)
	assert.Equal(t, p.SessionID, died[0].SessionID)
	assert.Equal(t, p.CharID, died[0].CharID)
	assert.Equal(t, npc.ID, died[0].KillerID)
}

func TestNpcWanderStaysInsideLeash(t *testing.T) {
	h := newHarness(t)
	ai := newAISystem(h)

	npc := spawnNpc(t, h, 1001, 25, 25)

	for i := 0; i < 100; i++ {
		ai.Update(0)
		h.clock.Advance(10 * time.Second)
		assert.LessOrEqual(t, world.Chebyshev(npc.X, npc.Y, npc.SpawnX, npc.SpawnY), int32(4))
	}
	assert.False(t, npc.NextWanderAt.IsZero(), "wander pacing must be scheduled")
}
