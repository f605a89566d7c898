package net

import "encoding/json"

// Wire protocol. Every frame is a JSON envelope with a type tag and a raw
// payload decoded by the dispatcher. Client→server frames are commands,
// server→client frames are events.

// Command type tags.
const (
	CmdLogin    = "login"
	CmdMove     = "move"
	CmdAttack   = "attack"
	CmdCast     = "cast"
	CmdPickup   = "pickup"
	CmdDrop     = "drop"
	CmdSay      = "say"
	CmdGroup    = "group"
	CmdTeleport = "teleport" // admin
	CmdSpawn    = "spawn"    // admin
	CmdDespawn  = "despawn"  // admin
)

// Event type tags.
const (
	EvWelcome         = "welcome"
	EvEntitySpawned   = "entity_spawned"
	EvEntityDespawned = "entity_despawned"
	EvEntityMoved     = "entity_moved"
	EvAttacked        = "attacked"
	EvStatChanged     = "stat_changed"
	EvEntityDied      = "entity_died"
	EvEntityRevived   = "entity_revived"
	EvItemSpawned     = "item_spawned"
	EvItemRemoved     = "item_removed"
	EvInventory       = "inventory"
	EvChat            = "chat"
	EvSystemMsg       = "system"
	EvGroupUpdate     = "group_update"
)

// Envelope is the outer frame shared by both directions.
type Envelope struct {
	Type string          `json:"t"`
	Data json.RawMessage `json:"d,omitempty"`
}

// --- Commands ---

// LoginCmd is the first frame a client sends. Existing characters are loaded
// from the store; unknown names get a fresh character.
type LoginCmd struct {
	Name string `json:"name"`
}

type MoveCmd struct {
	Heading int16 `json:"heading"` // 0..7, clockwise from north
}

type AttackCmd struct {
	TargetID int32 `json:"target"`
}

type CastCmd struct {
	SpellID  int32 `json:"spell"`
	TargetID int32 `json:"target"`
}

type PickupCmd struct {
	ObjectID int32 `json:"object"`
}

type DropCmd struct {
	Slot  int32 `json:"slot"`
	Count int32 `json:"count"`
}

type SayCmd struct {
	Text string `json:"text"`
}

// GroupCmd covers invite/leave; Action is "invite" or "leave".
type GroupCmd struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"` // character name for invite
}

type TeleportCmd struct {
	MapID int16 `json:"map"`
	X     int32 `json:"x"`
	Y     int32 `json:"y"`
}

type SpawnCmd struct {
	NpcID int32 `json:"npc"`
	Count int32 `json:"count"`
}

type DespawnCmd struct {
	ObjectID int32 `json:"object"`
}

// --- Events ---

type WelcomeEvent struct {
	CharID int32  `json:"id"`
	Name   string `json:"name"`
	MapID  int16  `json:"map"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Level  int16  `json:"level"`
	HP     int16  `json:"hp"`
	MaxHP  int16  `json:"max_hp"`
	MP     int16  `json:"mp"`
	MaxMP  int16  `json:"max_mp"`
}

// EntitySpawnedEvent announces an entity entering the viewer's visible set,
// whether by movement, login, or respawn.
type EntitySpawnedEvent struct {
	ObjectID int32  `json:"id"`
	Kind     string `json:"kind"` // "player" | "npc" | "corpse"
	Name     string `json:"name"`
	X        int32  `json:"x"`
	Y        int32  `json:"y"`
	Heading  int16  `json:"heading"`
	Level    int16  `json:"level,omitempty"`
	Dead     bool   `json:"dead,omitempty"`
}

type EntityDespawnedEvent struct {
	ObjectID int32 `json:"id"`
}

type EntityMovedEvent struct {
	ObjectID int32 `json:"id"`
	X        int32 `json:"x"`
	Y        int32 `json:"y"`
	Heading  int16 `json:"heading"`
}

type AttackedEvent struct {
	AttackerID int32 `json:"attacker"`
	TargetID   int32 `json:"target"`
	Damage     int32 `json:"damage"`
	Critical   bool  `json:"crit,omitempty"`
	Miss       bool  `json:"miss,omitempty"`
	SpellID    int32 `json:"spell,omitempty"`
}

type StatChangedEvent struct {
	ObjectID int32 `json:"id"`
	HP       int16 `json:"hp"`
	MaxHP    int16 `json:"max_hp"`
	MP       int16 `json:"mp,omitempty"`
	MaxMP    int16 `json:"max_mp,omitempty"`
	Level    int16 `json:"level,omitempty"`
	Exp      int64 `json:"exp,omitempty"`
	Food     int16 `json:"food,omitempty"`
}

type EntityDiedEvent struct {
	ObjectID int32 `json:"id"`
	KillerID int32 `json:"killer,omitempty"`
}

type EntityRevivedEvent struct {
	ObjectID int32 `json:"id"`
	MapID    int16 `json:"map"`
	X        int32 `json:"x"`
	Y        int32 `json:"y"`
	HP       int16 `json:"hp"`
}

type ItemSpawnedEvent struct {
	ObjectID int32 `json:"id"`
	ItemID   int32 `json:"item"`
	Count    int32 `json:"count"`
	X        int32 `json:"x"`
	Y        int32 `json:"y"`
}

type ItemRemovedEvent struct {
	ObjectID int32 `json:"id"`
}

// InventoryEvent reports a single slot change; Count 0 clears the slot.
type InventoryEvent struct {
	Slot   int32 `json:"slot"`
	ItemID int32 `json:"item"`
	Count  int32 `json:"count"`
	Gold   int64 `json:"gold"`
}

type ChatEvent struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type SystemMsgEvent struct {
	Text string `json:"text"`
}

type GroupUpdateEvent struct {
	LeaderID int32   `json:"leader"`
	Members  []int32 `json:"members"` // empty = group dissolved
}

// Encode wraps a typed event payload in an envelope and marshals it.
func Encode(typ string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Data: data})
}
