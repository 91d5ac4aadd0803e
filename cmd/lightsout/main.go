package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lightsout/server/internal/config"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/game"
	"github.com/lightsout/server/internal/metrics"
	gonet "github.com/lightsout/server/internal/net"
	"github.com/lightsout/server/internal/persist"
	"github.com/lightsout/server/internal/scripting"
	"github.com/lightsout/server/internal/world"
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

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              Lights Out server             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
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

// hostIP resolves the machine's own name the way operators expect to see
// it in the banner. Failures are shown, not fatal.
func hostIP() (string, string) {
	host, err := os.Hostname()
	if err != nil {
		return "unknown", "unknown"
	}
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return host, "unknown"
	}
	return host, addrs[0]
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
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
	host, ip := hostIP()
	fmt.Printf("  hostname: %s, ip: %s\n\n", host, ip)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Load map
	printSection("map")
	level, err := data.LoadMap(cfg.Game.MapFile, cfg.Game.MapScale)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	printStat("solids", len(level.Solids))
	printStat("guards", len(level.Guards))
	printStat("objects", len(level.Props))
	fmt.Println()

	// 4. Combat scripts
	var combat world.Combat
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		combat = engine
		printOK("lua combat scripts loaded")
	}

	// 5. Optional match journal
	m := metrics.New()
	var journal *persist.Writer
	if cfg.Database.Enabled {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		if err := persist.RunMigrations(dbCtx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()

		journal = persist.NewWriter(persist.NewJournalRepo(db), cfg.Database.JournalBuffer, log)
		journal.OnDrop(m.JournalDrops.Inc)
	}

	// 6. Network server and game loop
	frames := game.NewFrameBuffer()
	srv, err := gonet.NewServer(cfg.Network.BindAddress, frames, gonet.Options{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		MaxFrame:     cfg.Network.MaxFrameSize,
		ReadTimeout:  cfg.Network.ReadTimeout,
		WriteTimeout: cfg.Network.WriteTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}

	opts := game.Options{
		TickRate:            cfg.Network.TickRate,
		MaxInputsPerTick:    cfg.Network.MaxInputsPerTick,
		DespawnOnDisconnect: cfg.Game.DespawnOnDisconnect,
		Tuning:              cfg.Game.Tuning,
		Combat:              combat,
		Metrics:             m,
	}
	if journal != nil {
		opts.Journal = journal
	}
	loop, err := game.NewLoop(level, srv, frames, opts, log)
	if err != nil {
		return fmt.Errorf("game loop: %w", err)
	}

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", srv.Addr().String()))
	printReady(fmt.Sprintf("game loop (tick: %s)", cfg.Network.TickRate))
	if cfg.Metrics.Enabled {
		printReady(fmt.Sprintf("metrics on %s%s", cfg.Metrics.BindAddress, cfg.Metrics.Path))
	}
	fmt.Println()

	// The journal outlives the loop so the final match row is written.
	journalCtx, stopJournal := context.WithCancel(context.Background())
	journalDone := make(chan error, 1)
	if journal != nil {
		go func() { journalDone <- journal.Run(journalCtx) }()
	} else {
		journalDone <- nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(gctx); err != nil {
			return fmt.Errorf("accept loop: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := loop.Run(gctx); err != nil {
			return fmt.Errorf("game loop: %w", err)
		}
		return nil
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			if err := m.Serve(gctx, cfg.Metrics.BindAddress, cfg.Metrics.Path, log); err != nil {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	stopJournal()
	if jerr := <-journalDone; jerr != nil {
		log.Error("journal writer", zap.Error(jerr))
	}
	uptime := time.Since(time.Unix(cfg.Server.StartTime, 0)).Round(time.Second)
	log.Info("server stopped", zap.Duration("uptime", uptime))
	return err
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
