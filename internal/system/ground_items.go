package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/world"
)

// How long a killer's pickup priority on loot lasts.
const ownershipWindow = 20 * time.Second

// GroundItemSystem expires dropped items and releases loot ownership.
// Despawn notices reach clients through the visibility diff, so expiry here
// is just index removal.
type GroundItemSystem struct {
	ws  *world.State
	now func() time.Time
	log *zap.Logger
}

func NewGroundItemSystem(deps *handler.Deps) *GroundItemSystem {
	return &GroundItemSystem{ws: deps.World, now: deps.Now, log: deps.Log}
}

func (s *GroundItemSystem) Name() string         { return "ground_items" }
func (s *GroundItemSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *GroundItemSystem) Update(time.Duration) {
	now := s.now()
	s.ws.ExpireGroundItems(now)
	for _, item := range s.ws.AllGroundItems() {
		coresys.Guard(s.log, s.Name(), func() {
			if item.OwnerID != 0 && now.Sub(item.DroppedAt) >= ownershipWindow {
				item.OwnerID = 0
			}
		})
	}
}
