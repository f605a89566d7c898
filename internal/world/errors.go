package world

import "errors"

// Index operation failures. Handlers map these to terse reject reasons for
// the originating session; systems treat them as "skip this step".
var (
	ErrUnknownMap   = errors.New("unknown map")
	ErrOutOfBounds  = errors.New("position out of map bounds")
	ErrTileBlocked  = errors.New("tile blocked by terrain")
	ErrTileOccupied = errors.New("tile occupied")
)
