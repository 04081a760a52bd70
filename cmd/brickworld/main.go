package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brickworld/brickworld/internal/config"
	"github.com/brickworld/brickworld/internal/data"
	"github.com/brickworld/brickworld/internal/game"
	"github.com/brickworld/brickworld/internal/observer"
	"github.com/brickworld/brickworld/internal/persist"
	"github.com/brickworld/brickworld/internal/replay"
	"github.com/brickworld/brickworld/internal/scripting"
	"github.com/brickworld/brickworld/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             brickworld  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	scores := flag.Bool("scores", false, "print the best completed results per level and exit")
	walk := flag.Bool("walk", false, "keep the player walking right at player.walk_speed")
	replayPath := flag.String("replay", "", "print the signals of a replay file and exit")
	flag.Parse()

	if *replayPath != "" {
		return printReplay(*replayPath)
	}

	// 1. Load config
	cfgPath := "config/brickworld.toml"
	if p := os.Getenv("BRICKWORLD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional score store
	var store persist.ScoreStore
	if cfg.Database.Enabled || *scores {
		printSection("database")
		s, closeStore, err := openScoreStore(cfg.Database, log)
		if err != nil {
			return err
		}
		defer closeStore()
		store = s
		fmt.Println()
	}
	if *scores {
		return printScores(store)
	}

	// 4. Data tables
	printSection("data")
	kinds, err := data.LoadKindTable(cfg.Data.Kinds)
	if err != nil {
		return fmt.Errorf("load kind table: %w", err)
	}
	printStat("kinds", kinds.Count())

	// 5. Rules: Lua scripts or fixed values
	fixed := world.FixedRules{Damage: cfg.Rules.ContactDamage}
	var rules world.Rules = fixed
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, fixed, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		rules = engine
		printOK("Lua rules loaded")
	}
	fmt.Println()

	// 6. Optional observer feed and replay log
	var pubs game.Publishers
	if cfg.Observer.Enabled {
		hub := observer.NewHub(cfg.Observer, log)
		defer hub.Close()
		mux := http.NewServeMux()
		mux.Handle(cfg.Observer.Path, hub.Handler())
		srv := &http.Server{Addr: cfg.Observer.BindAddress, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("observer server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		pubs = append(pubs, hub)
	}
	if cfg.Replay.Enabled {
		rw, err := replay.Create(cfg.Replay.Dir, time.Now())
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		defer func() {
			if err := rw.Close(); err != nil {
				log.Error("replay close failed", zap.Error(err))
				return
			}
			log.Info("replay written", zap.String("path", rw.Path()), zap.Int("signals", rw.Lines()))
		}()
		pubs = append(pubs, rw)
	}

	opts := game.Options{
		Config: cfg,
		Kinds:  kinds,
		Rules:  rules,
		Log:    log,
	}
	if store != nil {
		opts.Recorder = store
	}
	if len(pubs) > 0 {
		opts.Publisher = pubs
	}
	session, err := game.NewSession(opts)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	// 7. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("ready")
	if cfg.Observer.Enabled {
		printReady(fmt.Sprintf("observers on ws://%s%s", cfg.Observer.BindAddress, cfg.Observer.Path))
	}
	printReady(fmt.Sprintf("run %s at %s (tick: %s)", session.RunID(), session.Level(), cfg.Simulation.TickRate))
	fmt.Println()

	ctx := context.Background()
	for ticks := 0; cfg.Simulation.MaxTicks == 0 || ticks < cfg.Simulation.MaxTicks; ticks++ {
		select {
		case <-ticker.C:
			if *walk {
				session.Enqueue(world.Move(cfg.Player.WalkSpeed))
			}
			if err := session.Step(ctx); err != nil {
				if errors.Is(err, game.ErrFinished) {
					return nil
				}
				return err
			}
			if session.Finished() {
				log.Info("run complete", zap.Int("deaths", session.Deaths()))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return nil
		}
	}
	log.Info("tick limit reached", zap.Int("max_ticks", cfg.Simulation.MaxTicks))
	return nil
}

// openScoreStore opens the configured score backend. PostgreSQL gets its
// migrations applied first.
func openScoreStore(cfg config.DatabaseConfig, log *zap.Logger) (persist.ScoreStore, func(), error) {
	if cfg.Driver == "sqlite" {
		s, err := persist.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		printOK("SQLite score file " + cfg.Path)
		return s, func() { _ = s.Close() }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	version, err := persist.SchemaVersion(ctx, db.Pool)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	printOK(fmt.Sprintf("migrations applied (version %d)", version))
	return persist.NewScoreRepo(db), db.Close, nil
}

func printReplay(path string) error {
	counts := map[string]int{}
	var order []string
	err := replay.Read(path, func(m observer.Message) error {
		if counts[m.Type] == 0 {
			order = append(order, m.Type)
		}
		counts[m.Type]++
		fmt.Printf("  \033[90m%6d\033[0m %-10s %s\n", m.Tick, m.Level, m.Type)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read replay: %w", err)
	}
	fmt.Println()
	printSection("signals")
	for _, typ := range order {
		printStat(typ, counts[typ])
	}
	return nil
}

func printScores(store persist.ScoreStore) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	levels, err := store.Levels(ctx)
	if err != nil {
		return fmt.Errorf("list levels: %w", err)
	}
	title := cases.Title(language.English)
	for _, lv := range levels {
		top, err := store.Top(ctx, lv, 5)
		if err != nil {
			return fmt.Errorf("top scores %s: %w", lv, err)
		}
		printSection(title.String(lv))
		for _, s := range top {
			printStat(fmt.Sprintf("%s %s", s.RecordedAt.Format("2006-01-02"), s.Player), s.Score)
		}
		fmt.Println()
	}
	return nil
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
