// Command worldsim runs the Cutthroat town simulation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/cutthroat/internal/api"
	"github.com/talgya/cutthroat/internal/config"
	"github.com/talgya/cutthroat/internal/engine"
	"github.com/talgya/cutthroat/internal/news"
	"github.com/talgya/cutthroat/internal/persistence"
	"github.com/talgya/cutthroat/internal/world"
)

func main() {
	configPath := flag.String("config", "cutthroat.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("worldsim failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("Cutthroat: a town of grudges, gangs and bad debts", "seed", cfg.Seed)

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── World (always regenerated, deterministic from seed) ───────────
	genCfg := world.DefaultGenConfig()
	genCfg.Seed = cfg.Seed
	catalog := world.Generate(genCfg)
	for _, l := range catalog.All() {
		slog.Debug("location", "id", l.ID, "danger", fmt.Sprintf("%.2f", l.Danger), "capacity", l.SocialCapacity)
	}

	// ── Gazette ───────────────────────────────────────────────────────
	narrator := news.NewOpenAI(cfg.Gazette.OpenAIKey, cfg.Gazette.BaseURL, cfg.Gazette.Model)
	if narrator.Enabled() {
		slog.Info("gazette narrator enabled", "model", cfg.Gazette.Model)
	} else {
		slog.Warn("OPENAI_API_KEY not set, gazette will use its template")
	}
	gazette := news.NewGazette(narrator, logger)

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.New(engine.Options{
		Seed:          cfg.Seed,
		Catalog:       catalog,
		Sink:          gazette,
		Memory:        cfg.MemoryConfig(),
		Workers:       cfg.Workers,
		Logger:        logger,
		MinPopulation: cfg.Population / 2,
	})

	saved, err := db.HasWorldState()
	if err != nil {
		return fmt.Errorf("check saved state: %w", err)
	}
	if saved {
		slog.Info("found saved world state, loading...")
		st, err := db.LoadWorldState()
		if err != nil {
			return fmt.Errorf("load world state: %w", err)
		}
		if st.Seed != cfg.Seed {
			slog.Warn("saved seed differs from config, keeping saved world", "saved", st.Seed, "config", cfg.Seed)
		}
		if err := sim.Restore(st); err != nil {
			return fmt.Errorf("restore world state: %w", err)
		}
		slog.Info("world state restored", "actors", len(st.Actors), "gangs", len(st.Gangs),
			"tick", st.Tick, "sim_time", engine.SimTime(st.Tick))
	} else {
		slog.Info("no saved state found, populating a new town...")
		pop := sim.Spawner().SpawnPopulation(cfg.Population, catalog, 0)
		if err := sim.Initialize(pop); err != nil {
			return fmt.Errorf("initialize population: %w", err)
		}
		if err := save(db, sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	eng := engine.NewEngine(sim, cfg.TickInterval)
	eng.OnDay = func(tick uint64) {
		sim.DailyReport()
		if err := save(db, sim); err != nil {
			slog.Error("daily save failed", "error", err)
		}
		ed := gazette.Print(context.Background(), census(sim))
		slog.Info("gazette printed", "edition", ed.Number, "narrated", ed.Narrated)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CUTTHROAT_ADMIN_KEY not set, admin endpoints will be disabled")
	}
	srv := &api.Server{
		Sim:      sim,
		Eng:      eng,
		Gazette:  gazette,
		DB:       db,
		AdminKey: cfg.AdminKey,
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nThe town is awake: %d souls across %d locations.\n", sim.Stats().Alive, len(catalog.All()))
	fmt.Printf("API: http://localhost%s/api/v1/status\n", cfg.APIAddr)
	if t := sim.Tick(); t > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", t, engine.SimTime(t))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx, cfg.APIAddr) })
	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("shutting down after error", "error", runErr)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := save(db, sim); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	fmt.Println("Simulation stopped. World state saved.")
	return runErr
}

func save(db *persistence.DB, sim *engine.Simulation) error {
	st, err := sim.Export()
	if err != nil {
		return err
	}
	return db.SaveWorldState(st)
}

func census(sim *engine.Simulation) news.Census {
	st := sim.Stats()
	return news.Census{
		SimTime:     engine.SimTime(st.Tick),
		Alive:       st.Alive,
		Dead:        st.Dead,
		Gangs:       st.Gangs,
		TotalGold:   st.TotalGold,
		Leaderboard: sim.Relations().Leaderboard(5),
	}
}
