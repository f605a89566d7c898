package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/duskhollow/server/internal/core/system"
	"github.com/duskhollow/server/internal/handler"
	"github.com/duskhollow/server/internal/persist"
	"github.com/duskhollow/server/internal/world"
)

const batchSaveTimeout = 30 * time.Second

// characterSaver is the slice of the store the persistence system needs.
type characterSaver interface {
	SaveBatch(ctx context.Context, recs []*persist.CharacterRecord) []int32
}

// PersistenceSystem batch-saves dirty characters on the configured interval.
// Snapshots are taken on the game loop, then written from a background
// goroutine so a slow database never stalls a tick. Characters whose write
// failed get their dirty flag back and ride the next batch.
type PersistenceSystem struct {
	ws       *world.State
	store    characterSaver
	interval time.Duration
	acc      time.Duration
	log      *zap.Logger

	// saving guards against overlapping batches when the store is slower
	// than the save interval. failed is written by the batch goroutine
	// before it returns the token and read on the game loop after taking
	// it, so the channel orders the accesses.
	saving chan struct{}
	failed []int32
}

func NewPersistenceSystem(deps *handler.Deps, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		ws:       deps.World,
		store:    deps.Chars,
		interval: deps.Config.Gameplay.SaveInterval,
		log:      log,
		saving:   make(chan struct{}, 1),
	}
	s.saving <- struct{}{}
	return s
}

func (s *PersistenceSystem) Name() string         { return "persistence" }
func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < s.interval {
		return
	}
	s.acc = 0

	select {
	case <-s.saving:
	default:
		// Keep the dirty flags; this batch rolls into the next interval.
		s.log.Warn("previous batch save still running, skipping interval")
		return
	}

	// Put characters the previous batch could not write back in the pool.
	for _, id := range s.failed {
		if p := s.ws.GetByCharID(id); p != nil {
			p.Dirty = true
		}
	}
	s.failed = nil

	var recs []*persist.CharacterRecord
	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		if !p.Dirty {
			return
		}
		recs = append(recs, handler.SnapshotPlayer(p))
		p.Dirty = false
	})
	if len(recs) == 0 {
		s.saving <- struct{}{}
		return
	}

	go func() {
		defer func() { s.saving <- struct{}{} }()
		ctx, cancel := context.WithTimeout(context.Background(), batchSaveTimeout)
		defer cancel()
		failed := s.store.SaveBatch(ctx, recs)
		s.failed = failed
		s.log.Info("batch save complete",
			zap.Int("saved", len(recs)-len(failed)),
			zap.Int("failed", len(failed)))
	}()
}
