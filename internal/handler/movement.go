package handler

import (
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

// Direction deltas indexed by heading (0-7, clockwise from north).
var headingDX = [8]int32{0, 1, 1, 1, 0, -1, -1, -1}
var headingDY = [8]int32{-1, -1, 0, 1, 1, 1, 0, -1}

// HandleMove steps the player one tile in the commanded heading. The server
// is authoritative: the destination must be in bounds, walkable, and free of
// blocking occupants, or the command is dropped and the client is resynced.
// Observers learn of the move through the visibility diff at end of tick.
func HandleMove(p *world.PlayerInfo, cmd net.MoveCmd, deps *Deps) {
	if cmd.Heading < 0 || cmd.Heading > 7 || p.Dead {
		return
	}
	destX := p.X + headingDX[cmd.Heading]
	destY := p.Y + headingDY[cmd.Heading]

	if err := deps.World.MovePlayer(p.SessionID, destX, destY, cmd.Heading); err != nil {
		// Client predicted a move the index refused; snap it back.
		p.Session.Send(net.EvEntityMoved, net.EntityMovedEvent{
			ObjectID: p.CharID, X: p.X, Y: p.Y, Heading: p.Heading,
		})
		return
	}
	p.Dirty = true
}
