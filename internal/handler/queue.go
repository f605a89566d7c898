package handler

// AttackRequest is one validated attack or cast awaiting resolution.
// SpellID 0 means a melee swing.
type AttackRequest struct {
	SessionID uint64
	TargetID  int32
	SpellID   int32
}

// ActionQueue collects combat actions from the input phase for the combat
// system to resolve during the update phase. Game loop only.
type ActionQueue struct {
	attacks []AttackRequest
}

func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

// QueueAttack appends one pending attack.
func (q *ActionQueue) QueueAttack(req AttackRequest) {
	q.attacks = append(q.attacks, req)
}

// DrainAttacks returns all pending attacks and resets the queue. The
// returned slice is only valid until the next QueueAttack.
func (q *ActionQueue) DrainAttacks() []AttackRequest {
	out := q.attacks
	q.attacks = q.attacks[:0]
	return out
}
