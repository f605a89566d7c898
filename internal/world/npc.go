package world

import (
	"sync/atomic"
	"time"

	"github.com/duskhollow/server/internal/combat"
	"github.com/duskhollow/server/internal/data"
)

// npcIDCounter generates unique NPC instance IDs.
// Starts at 200_000_000 to avoid collision with character IDs.
var npcIDCounter atomic.Int32

func init() {
	npcIDCounter.Store(200_000_000)
}

// NextNpcID returns a unique object ID for an NPC instance.
func NextNpcID() int32 {
	return npcIDCounter.Add(1)
}

// BehaviorState is the NPC finite-state machine state. Every state has a
// defined transition for every tick outcome.
type BehaviorState int8

const (
	StateIdle BehaviorState = iota
	StateAggroed
	StateAttacking
	StateDead
	StateRespawning
)

func (s BehaviorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAggroed:
		return "aggroed"
	case StateAttacking:
		return "attacking"
	case StateDead:
		return "dead"
	case StateRespawning:
		return "respawning"
	default:
		return "unknown"
	}
}

// NpcInfo holds runtime data for one NPC instance. Behavior parameters live
// on the referenced template; only volatile state is stored here, so a
// respawn cycle cannot drift from template-derived values.
// Accessed only from the game loop goroutine — no locks.
type NpcInfo struct {
	ID   int32
	Tmpl *data.NpcTemplate

	X       int32
	Y       int32
	MapID   int16
	Heading int16
	HP      int32

	State         BehaviorState
	TargetSession uint64    // aggro target, resolved through State at use time (0 = none)
	NextAttackAt  time.Time // attack cooldown deadline, compared lazily
	RespawnAt     time.Time // respawn deadline, compared lazily
	CorpseTicks   int       // ticks the corpse remains visible after death

	// Spawn origin for respawning
	SpawnX     int32
	SpawnY     int32
	SpawnMapID int16

	NextWanderAt time.Time // idle wander pacing
}

// Alive reports whether the NPC currently occupies the world.
func (n *NpcInfo) Alive() bool {
	return n.State != StateDead && n.State != StateRespawning
}

// RespawnDelay returns the template's death-to-respawn interval.
func (n *NpcInfo) RespawnDelay() time.Duration {
	return time.Duration(n.Tmpl.RespawnDelay) * time.Second
}

// AttackCooldown returns the template's interval between attacks.
func (n *NpcInfo) AttackCooldown() time.Duration {
	return time.Duration(n.Tmpl.AttackCooldown) * time.Millisecond
}

// AttackStats projects the NPC into the combat resolver's attacker view.
func (n *NpcInfo) AttackStats() combat.Stats {
	return combat.Stats{
		Accuracy:  n.Tmpl.Accuracy,
		CritBonus: n.Tmpl.CritBonus,
		DmgMin:    n.Tmpl.DmgMin,
		DmgMax:    n.Tmpl.DmgMax,
	}
}

// DefenseStats projects the NPC into the combat resolver's defender view.
func (n *NpcInfo) DefenseStats() combat.Stats {
	return combat.Stats{
		Evasion: n.Tmpl.Evasion,
		Defense: n.Tmpl.Defense,
	}
}
