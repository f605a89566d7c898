package event

// Events emitted during a tick are delivered at the start of the next one,
// so effect handlers never observe half-applied state.

// PlayerEnteredWorld fires after a session's character is placed in the
// world index.
type PlayerEnteredWorld struct {
	SessionID uint64
	CharID    int32
}

// PlayerDisconnected fires after the index has been cleared of the session.
type PlayerDisconnected struct {
	SessionID uint64
	CharID    int32
}

// NpcKilled fires exactly once per NPC death, on the tick the killing blow
// landed. KillerSession is the session credited with the kill.
type NpcKilled struct {
	NpcID         int32
	KillerSession uint64
}

// PlayerDied fires exactly once per player death.
type PlayerDied struct {
	SessionID uint64
	CharID    int32
	KillerID  int32 // NPC object ID, 0 if unknown
}

// PlayerLeveledUp fires when accumulated experience crosses a level
// threshold.
type PlayerLeveledUp struct {
	SessionID uint64
	CharID    int32
	NewLevel  int16
}
