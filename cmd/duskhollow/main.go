package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	coresys "github.com/duskhollow/server/internal/core/system"

	"github.com/duskhollow/server/internal/config"
	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/data"
	"github.com/duskhollow/server/internal/handler"
	gonet "github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/persist"
	"github.com/duskhollow/server/internal/scripting"
	"github.com/duskhollow/server/internal/system"
	"github.com/duskhollow/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("DUSKHOLLOW_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("server", cfg.Server.Name),
		zap.Int("id", cfg.Server.ID),
		zap.Duration("tick", cfg.Network.TickRate))

	// Database is optional: with it disabled the server still runs, characters
	// just do not survive a restart.
	var store *persist.CharacterStore
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		store = persist.NewCharacterStore(db, log)
		log.Info("database ready")
	} else {
		log.Warn("database disabled, characters will not persist")
	}

	// Static data tables.
	mapTable, err := data.LoadMapTable("data/yaml/map_list.yaml", "map")
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	npcTable, err := data.LoadNpcTable("data/yaml/npc_list.yaml")
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	itemTable, err := data.LoadItemTable("data/yaml/item_list.yaml")
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	spellTable, err := data.LoadSpellTable("data/yaml/spell_list.yaml")
	if err != nil {
		return fmt.Errorf("load spell table: %w", err)
	}
	dropTable, err := data.LoadDropTable("data/yaml/drop_list.yaml")
	if err != nil {
		return fmt.Errorf("load drop table: %w", err)
	}
	spawnList, err := data.LoadSpawnList("data/yaml/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	log.Info("data loaded",
		zap.Int("maps", mapTable.Count()),
		zap.Int("npc_templates", npcTable.Count()),
		zap.Int("items", itemTable.Count()),
		zap.Int("spells", spellTable.Count()),
		zap.Int("drop_tables", dropTable.Count()))

	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	// World index: register every map's terrain, then place starting NPCs.
	worldState := world.NewState()
	mapTable.ForEach(func(info data.MapInfo, blocked []bool) {
		worldState.RegisterMap(world.NewMapGrid(
			info.MapID, info.StartX, info.StartY, info.EndX, info.EndY, blocked))
	})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	npcCount := spawnNpcs(worldState, npcTable, spawnList, rng, log)
	log.Info("npcs spawned", zap.Int("count", npcCount))

	// Character IDs continue past whatever the database already holds.
	nextCharID := int32(0)
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		maxID, err := store.MaxCharID(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("query max char_id: %w", err)
		}
		nextCharID = maxID
	}
	allocCharID := func() int32 {
		nextCharID++
		return nextCharID
	}

	bus := event.NewBus()
	deps := &handler.Deps{
		Config:     cfg,
		Bus:        bus,
		Log:        log,
		World:      worldState,
		Scripting:  luaEngine,
		Npcs:       npcTable,
		Items:      itemTable,
		Spells:     spellTable,
		Drops:      dropTable,
		Maps:       mapTable,
		Chars:      store,
		Actions:    handler.NewActionQueue(),
		NextCharID: allocCharID,
		Now:        time.Now,
	}

	netServer := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionConfig{
		InQueueSize:       cfg.Network.InQueueSize,
		OutQueueSize:      cfg.Network.OutQueueSize,
		CommandsPerSecond: cfg.Network.CommandsPerSecond,
		WriteTimeout:      cfg.Network.WriteTimeout,
		IdleTimeout:       cfg.Network.ReadTimeout,
	}, log)

	registry := system.NewSessionRegistry()

	runner := coresys.NewRunner(log)
	runner.Register(system.NewInputSystem(netServer, registry, deps, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewNpcAISystem(deps, bus, rng, log))
	runner.Register(system.NewCombatSystem(deps, bus, rng))
	runner.Register(system.NewNpcRespawnSystem(deps, log))
	runner.Register(system.NewRegenSystem(deps))
	runner.Register(system.NewHungerSystem(deps))
	runner.Register(system.NewVisibilitySystem(deps))
	runner.Register(system.NewOutputSystem(registry))
	runner.Register(system.NewGroundItemSystem(deps))
	if store != nil {
		runner.Register(system.NewPersistenceSystem(deps, log))
	}
	system.RegisterDeathHandlers(deps, bus, rng, log)
	event.Subscribe(bus, func(ev event.PlayerEnteredWorld) {
		log.Info("world population",
			zap.Int32("char_id", ev.CharID),
			zap.Int("players", worldState.PlayerCount()))
	})
	event.Subscribe(bus, func(ev event.PlayerDisconnected) {
		log.Info("world population",
			zap.Int32("char_id", ev.CharID),
			zap.Int("players", worldState.PlayerCount()))
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return netServer.ListenAndServe(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Network.TickRate)
		defer ticker.Stop()

		log.Info("game loop running", zap.String("bind", cfg.Network.BindAddress))
		for {
			select {
			case <-ticker.C:
				runner.Tick(cfg.Network.TickRate)
			case <-ctx.Done():
				finalSave(worldState, store, log)
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("stopped")
	return nil
}

// spawnNpcs places starting NPCs from the spawn list. Tiles that cannot take
// the NPC (blocked or already held) are skipped with a warning rather than
// aborting startup.
func spawnNpcs(ws *world.State, npcs *data.NpcTable, spawns []data.SpawnEntry, rng *rand.Rand, log *zap.Logger) int {
	total := 0
	for _, spawn := range spawns {
		tmpl := npcs.Get(spawn.NpcID)
		if tmpl == nil {
			log.Warn("spawn references unknown npc", zap.Int32("npc_id", spawn.NpcID))
			continue
		}
		count := spawn.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			x, y := spawn.X, spawn.Y
			if spawn.RandomX > 0 {
				x += rng.Int31n(spawn.RandomX*2+1) - spawn.RandomX
			}
			if spawn.RandomY > 0 {
				y += rng.Int31n(spawn.RandomY*2+1) - spawn.RandomY
			}
			fx, fy, ok := handler.FindFreeTile(ws, spawn.MapID, x, y, 5)
			if !ok {
				log.Warn("no free tile for spawn",
					zap.Int32("npc_id", spawn.NpcID),
					zap.Int16("map", spawn.MapID),
					zap.Int32("x", x), zap.Int32("y", y))
				continue
			}
			npc := &world.NpcInfo{
				ID:         world.NextNpcID(),
				Tmpl:       tmpl,
				X:          fx,
				Y:          fy,
				MapID:      spawn.MapID,
				HP:         tmpl.HP,
				State:      world.StateIdle,
				SpawnX:     fx,
				SpawnY:     fy,
				SpawnMapID: spawn.MapID,
			}
			if err := ws.AddNpc(npc); err != nil {
				log.Warn("spawn failed", zap.Int32("npc_id", spawn.NpcID), zap.Error(err))
				continue
			}
			total++
		}
	}
	return total
}

// finalSave writes every online character once on the way down.
func finalSave(ws *world.State, store *persist.CharacterStore, log *zap.Logger) {
	if store == nil {
		return
	}
	var recs []*persist.CharacterRecord
	ws.AllPlayers(func(p *world.PlayerInfo) {
		recs = append(recs, handler.SnapshotPlayer(p))
	})
	if len(recs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	failed := store.SaveBatch(ctx, recs)
	log.Info("shutdown save complete",
		zap.Int("saved", len(recs)-len(failed)), zap.Int("failed", len(failed)))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
