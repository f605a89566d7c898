package handler

import (
	"github.com/duskhollow/server/internal/persist"
	"github.com/duskhollow/server/internal/world"
)

// SnapshotPlayer maps in-memory player state to a persistable record.
func SnapshotPlayer(p *world.PlayerInfo) *persist.CharacterRecord {
	rec := &persist.CharacterRecord{
		CharID:  p.CharID,
		Name:    p.Name,
		Level:   p.Level,
		Exp:     p.Exp,
		MapID:   p.MapID,
		X:       p.X,
		Y:       p.Y,
		Heading: p.Heading,
		HP:      p.HP,
		MaxHP:   p.MaxHP,
		MP:      p.MP,
		MaxMP:   p.MaxMP,
		Str:     p.Str,
		Dex:     p.Dex,
		Con:     p.Con,
		Gold:    p.Gold,
		Food:    p.Food,
	}
	for i, st := range p.Inv.Slots() {
		rec.Items = append(rec.Items, persist.ItemRecord{
			Slot: int32(i), ItemID: st.ItemID, Count: st.Count,
		})
	}
	return rec
}
