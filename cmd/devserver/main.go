// Package main provides the all-in-one development server for the Duskhaven
// combat core. It wires together configuration, content loading, the combat
// engine, and the fixed-step simulation loop.
package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/config"
	"github.com/duskhaven/mudcore/internal/game/behavior"
	"github.com/duskhaven/mudcore/internal/game/combat"
	"github.com/duskhaven/mudcore/internal/game/crime"
	"github.com/duskhaven/mudcore/internal/game/dice"
	"github.com/duskhaven/mudcore/internal/game/duel"
	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/item"
	"github.com/duskhaven/mudcore/internal/game/npc"
	"github.com/duskhaven/mudcore/internal/game/region"
	"github.com/duskhaven/mudcore/internal/game/threat"
	"github.com/duskhaven/mudcore/internal/observability"
	"github.com/duskhaven/mudcore/internal/scripting"
	"github.com/duskhaven/mudcore/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting Duskhaven combat core",
		zap.Duration("tick_interval", cfg.Server.TickInterval),
		zap.String("content_dir", cfg.Server.ContentDir),
	)

	// Load content
	contentStart := time.Now()
	effects, err := effect.LoadDirectory(filepath.Join(cfg.Server.ContentDir, "effects"))
	if err != nil {
		logger.Fatal("loading effects", zap.Error(err))
	}
	items, err := item.LoadDirectory(filepath.Join(cfg.Server.ContentDir, "items"))
	if err != nil {
		logger.Fatal("loading items", zap.Error(err))
	}
	prototypes, err := npc.LoadPrototypes(filepath.Join(cfg.Server.ContentDir, "npcs"))
	if err != nil {
		logger.Fatal("loading NPC prototypes", zap.Error(err))
	}
	regionDefs, err := region.LoadDefs(filepath.Join(cfg.Server.ContentDir, "regions"))
	if err != nil {
		logger.Fatal("loading regions", zap.Error(err))
	}
	regions, err := region.NewProvider(regionDefs)
	if err != nil {
		logger.Fatal("indexing regions", zap.Error(err))
	}
	world, err := npc.LoadWorld(filepath.Join(cfg.Server.ContentDir, "world.yaml"))
	if err != nil {
		logger.Fatal("loading world", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("effects", len(effects.All())),
		zap.Int("items", len(items.All())),
		zap.Int("npc_prototypes", len(prototypes)),
		zap.Int("regions", len(regionDefs)),
		zap.Int("rooms", len(world.Rooms)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Load Lua damage hooks
	src := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(src, logger)
	scripts := scripting.NewManager(roller, logger)
	if err := scripts.LoadDirectory(filepath.Join(cfg.Server.ContentDir, "scripts"), cfg.Server.ScriptInstructionLimit); err != nil {
		logger.Fatal("loading scripts", zap.Error(err))
	}

	// Build services
	registry := entity.NewRegistry()
	npcs := npc.NewManager(registry, cfg.DRConfig())
	npcs.SetRoomProtection(regions)
	world.Link(npcs)
	respawns := npc.NewRespawnManager(world.SpawnMap(), prototypes)

	duels := duel.NewService(cfg.DuelServiceConfig(), logger)
	policy := duel.NewPolicy(regions, duels, logger)
	crimes := crime.NewRecorder(cfg.CrimeServiceConfig(), logger)
	procs := behavior.NewProcEngine(items, effects, scripts, behavior.ProcConfig{
		ChainEnabled:  cfg.Combat.Procs.ChainEnabled,
		MaxChainDepth: cfg.Combat.Procs.MaxChainDepth,
	}, src, logger)
	gates := behavior.NewGateEngine(npcs, cfg.AssistConfig(), logger)
	assister := threat.NewAssister(cfg.AssistConfig(), npcs, logger)

	engine, err := combat.NewEngine(combat.Deps{
		Registry:    registry,
		NPCs:        npcs,
		Policy:      policy,
		Source:      src,
		Duels:       duels,
		Crimes:      crimes,
		Regions:     regions,
		Procs:       procs,
		Gates:       gates,
		Assister:    assister,
		Respawns:    respawns,
		DecayConfig: cfg.DecayConfig(),
		CCTags:      cfg.Combat.DR.Tags,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("building combat engine", zap.Error(err))
	}

	// Initial population
	now := time.Now()
	for _, room := range world.Rooms {
		respawns.PopulateRoom(room.ID, npcs, now)
	}
	logger.Info("world populated", zap.Int("npcs", len(npcs.All())))

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("simulation", server.NewTickerService(cfg.Server.TickInterval, func(now time.Time) {
		for _, wave := range engine.Tick(now) {
			logger.Info("gate wave fired",
				zap.String("caster", wave.CasterID),
				zap.Int("wave", wave.Wave),
				zap.Strings("recruited", wave.Recruited),
			)
		}
		respawns.Tick(now, npcs)
	}, logger))

	lifecycle.Add("scripts", &server.FuncService{
		StartFn: func() error {
			// Nothing to run; the VM lives until shutdown.
			select {}
		},
		StopFn: scripts.Close,
	})

	logger.Info("startup complete", zap.Duration("elapsed", time.Since(start)))
	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
