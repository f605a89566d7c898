package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// VisibilitySystem reconciles every session's known-entity sets against the
// world once per tick, after all movement and combat have settled. Each
// viewer gets explicit deltas: spawned when something enters their radius,
// moved when a known entity changed tiles, despawned when it left or
// ceased to exist. Handlers never broadcast presence directly; this diff is
// the single source of enter/leave truth.
type VisibilitySystem struct {
	ws   *world.State
	deps *handler.Deps
	log  *zap.Logger
}

func NewVisibilitySystem(deps *handler.Deps) *VisibilitySystem {
	return &VisibilitySystem{ws: deps.World, deps: deps, log: deps.Log}
}

func (s *VisibilitySystem) Name() string         { return "visibility" }
func (s *VisibilitySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *VisibilitySystem) Update(time.Duration) {
	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		coresys.Guard(s.log, s.Name(), func() {
			s.diffPlayers(p)
			s.diffNpcs(p)
			s.diffGroundItems(p)
		})
	})
}

func (s *VisibilitySystem) diffPlayers(p *world.PlayerInfo) {
	visible := s.ws.NearbyPlayers(p.MapID, p.X, p.Y, p.VisRadius, p.SessionID)
	seen := make(map[int32]struct{}, len(visible))

	for _, other := range visible {
		if world.Chebyshev(p.X, p.Y, other.X, other.Y) > p.VisRadius {
			continue
		}
		seen[other.CharID] = struct{}{}
		pos, known := p.Known.Players[other.CharID]
		cur := world.KnownPos{X: other.X, Y: other.Y}
		if !known {
			p.Session.Send(net.EvEntitySpawned, net.EntitySpawnedEvent{
				ObjectID: other.CharID,
				Kind:     "player",
				Name:     other.Name,
				X:        other.X,
				Y:        other.Y,
				Heading:  other.Heading,
				Level:    other.Level,
				Dead:     other.Dead,
			})
		} else if pos != cur {
			p.Session.Send(net.EvEntityMoved, net.EntityMovedEvent{
				ObjectID: other.CharID, X: other.X, Y: other.Y, Heading: other.Heading,
			})
		}
		p.Known.Players[other.CharID] = cur
	}

	for id := range p.Known.Players {
		if _, ok := seen[id]; !ok {
			delete(p.Known.Players, id)
			p.Session.Send(net.EvEntityDespawned, net.EntityDespawnedEvent{ObjectID: id})
		}
	}
}

func (s *VisibilitySystem) diffNpcs(p *world.PlayerInfo) {
	visible := s.ws.NearbyNpcsWithCorpses(p.MapID, p.X, p.Y, p.VisRadius)
	seen := make(map[int32]struct{}, len(visible))

	for _, npc := range visible {
		seen[npc.ID] = struct{}{}
		pos, known := p.Known.Npcs[npc.ID]
		cur := world.KnownPos{X: npc.X, Y: npc.Y}
		if !known {
			kind := "npc"
			if !npc.Alive() {
				kind = "corpse"
			}
			p.Session.Send(net.EvEntitySpawned, net.EntitySpawnedEvent{
				ObjectID: npc.ID,
				Kind:     kind,
				Name:     npc.Tmpl.Name,
				X:        npc.X,
				Y:        npc.Y,
				Heading:  npc.Heading,
				Level:    npc.Tmpl.Level,
				Dead:     !npc.Alive(),
			})
		} else if pos != cur {
			p.Session.Send(net.EvEntityMoved, net.EntityMovedEvent{
				ObjectID: npc.ID, X: npc.X, Y: npc.Y, Heading: npc.Heading,
			})
		}
		p.Known.Npcs[npc.ID] = cur
	}

	for id := range p.Known.Npcs {
		if _, ok := seen[id]; !ok {
			delete(p.Known.Npcs, id)
			p.Session.Send(net.EvEntityDespawned, net.EntityDespawnedEvent{ObjectID: id})
		}
	}
}

func (s *VisibilitySystem) diffGroundItems(p *world.PlayerInfo) {
	visible := s.ws.NearbyGroundItems(p.MapID, p.X, p.Y, p.VisRadius)
	seen := make(map[int32]struct{}, len(visible))

	for _, item := range visible {
		seen[item.ID] = struct{}{}
		if _, known := p.Known.GroundItems[item.ID]; !known {
			p.Session.Send(net.EvItemSpawned, net.ItemSpawnedEvent{
				ObjectID: item.ID,
				ItemID:   item.ItemID,
				Count:    item.Count,
				X:        item.X,
				Y:        item.Y,
			})
			p.Known.GroundItems[item.ID] = world.KnownPos{X: item.X, Y: item.Y}
		}
	}

	for id := range p.Known.GroundItems {
		if _, ok := seen[id]; !ok {
			delete(p.Known.GroundItems, id)
			p.Session.Send(net.EvItemRemoved, net.ItemRemovedEvent{ObjectID: id})
		}
	}
}
