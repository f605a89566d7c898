// Package combat is the stateless attack resolution library. It never touches
// world state; callers apply the returned outcome themselves.
package combat

import "math/rand"

const (
	baseHitChance   = 50 // percent at equal accuracy/evasion
	hitPerPoint     = 3  // percent per point of accuracy advantage
	minHitChance    = 5
	maxHitChance    = 95
	baseCritChance  = 5 // percent before attacker bonus
	maxCritChance   = 50
	critMultiplier  = 2
	minDamageOnHit  = 1
)

// Stats is the flattened view of an attacker or defender that the resolver
// needs. Both players and NPCs project into it.
type Stats struct {
	Accuracy  int
	Evasion   int
	CritBonus int // percent added to the base critical chance
	DmgMin    int
	DmgMax    int
	Defense   int
}

// Outcome is the result of a single attack resolution.
type Outcome struct {
	Hit      bool
	Critical bool
	Damage   int32
}

// Resolve computes hit/critical/damage for one attack. Pure: identical inputs
// and rng state yield identical outcomes. The critical roll is independent of
// the hit roll and multiplies the damage roll before defense is applied.
func Resolve(att, def Stats, rng *rand.Rand) Outcome {
	chance := baseHitChance + (att.Accuracy-def.Evasion)*hitPerPoint
	if chance < minHitChance {
		chance = minHitChance
	}
	if chance > maxHitChance {
		chance = maxHitChance
	}
	if rng.Intn(100) >= chance {
		return Outcome{}
	}

	critChance := baseCritChance + att.CritBonus
	if critChance < 0 {
		critChance = 0
	}
	if critChance > maxCritChance {
		critChance = maxCritChance
	}
	crit := rng.Intn(100) < critChance

	lo, hi := att.DmgMin, att.DmgMax
	if hi < lo {
		hi = lo
	}
	dmg := lo
	if hi > lo {
		dmg += rng.Intn(hi - lo + 1)
	}
	if crit {
		dmg *= critMultiplier
	}
	dmg -= def.Defense
	if dmg < minDamageOnHit {
		dmg = minDamageOnHit
	}
	return Outcome{Hit: true, Critical: crit, Damage: int32(dmg)}
}
