package world

import (
	"time"

	"github.com/duskhollow/server/internal/combat"
	"github.com/duskhollow/server/internal/net"
)

// PlayerInfo holds in-memory data for a player currently in-world.
// Accessed only from the game loop goroutine — no locks needed.
type PlayerInfo struct {
	SessionID uint64
	Session   *net.Session
	CharID    int32 // durable-store ID, used as object ID in deltas
	Name      string

	X       int32
	Y       int32
	MapID   int16
	Heading int16

	VisRadius int32 // Chebyshev visibility range for this session

	Level int16
	Exp   int64
	HP    int16
	MaxHP int16
	MP    int16
	MaxMP int16
	Str   int16
	Dex   int16
	Con   int16

	Gold int64
	Food int16 // satiety 0-225; at 0 regen stops

	Dead    bool
	Admin   bool  // may issue teleport/spawn/despawn commands
	GroupID int32 // 0 = not grouped

	Inv *Inventory

	// Lazily-compared deadlines (never scheduled callbacks)
	NextAttackAt time.Time
	SpellReadyAt time.Time
	LastHungerAt time.Time

	// AOI visibility tracking, diffed by the visibility system
	Known *KnownEntities

	// Set on any persisted-state change; the persistence system saves dirty
	// players and clears the flag after a successful write.
	Dirty bool
}

// AttackStats projects the player into the combat resolver's attacker view.
func (p *PlayerInfo) AttackStats() combat.Stats {
	return combat.Stats{
		Accuracy:  int(p.Level) + int(p.Dex)/2,
		CritBonus: int(p.Dex) / 4,
		DmgMin:    1 + int(p.Str)/4,
		DmgMax:    4 + int(p.Str)/2,
	}
}

// DefenseStats projects the player into the combat resolver's defender view.
func (p *PlayerInfo) DefenseStats() combat.Stats {
	return combat.Stats{
		Evasion: int(p.Level)/2 + int(p.Dex)/2,
		Defense: int(p.Con) / 4,
	}
}

// KnownPos records the last seen position of a known entity.
type KnownPos struct{ X, Y int32 }

// KnownEntities tracks what a session currently has in view. The visibility
// system diffs these sets against range queries to emit explicit enter/leave
// deltas.
type KnownEntities struct {
	Players     map[int32]KnownPos // CharID → position
	Npcs        map[int32]KnownPos // NPC instance ID → position
	GroundItems map[int32]KnownPos // ground item ID → position
}

// NewKnownEntities creates empty known-entity sets.
func NewKnownEntities() *KnownEntities {
	return &KnownEntities{
		Players:     make(map[int32]KnownPos),
		Npcs:        make(map[int32]KnownPos),
		GroundItems: make(map[int32]KnownPos),
	}
}

// Reset clears all known entities (teleport, map transition).
func (k *KnownEntities) Reset() {
	clear(k.Players)
	clear(k.Npcs)
	clear(k.GroundItems)
}
