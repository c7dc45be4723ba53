package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/drishti/drishti-viz/internal/api"
	"github.com/drishti/drishti-viz/internal/config"
	"github.com/drishti/drishti-viz/internal/demo"
	"github.com/drishti/drishti-viz/internal/store"
)

// initLogger configures the global slog default with JSON output.
func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(h))
}

func main() {
	// ---- Flags -----------------------------------------------------------
	configPath := flag.String("config", "drishti.yml", "Path to YAML config file")
	dbPathFlag := flag.String("db-path", "", "Path to SQLite database file (overrides config)")
	portFlag := flag.Int("port", 0, "HTTP server port (overrides config)")
	logLevelFlag := flag.String("log-level", "", "Log level: debug|info|warn|error (overrides config)")
	noDemoFlag := flag.Bool("no-demo", false, "Skip demo snapshot seeding")
	flag.Parse()

	// ---- Config: flag > env > file > default -----------------------------
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if *portFlag != 0 {
		cfg.Port = *portFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if *noDemoFlag {
		cfg.SeedDemo = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	initLogger(cfg.LogLevel)

	// ---- Store -----------------------------------------------------------
	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialise store: %v", err)
	}

	ctx := context.Background()

	// ---- Demo seeding ----------------------------------------------------
	if cfg.SeedDemo {
		repoID, err := demo.SeedIfEmpty(ctx, st)
		if err != nil {
			slog.Warn("demo seeding failed", "error", err)
		} else if repoID != "" {
			slog.Info("demo snapshot seeded", "repo", demo.RepoName, "repo_id", repoID)
		}
	}

	repos, err := st.ListRepositories(ctx)
	if err != nil {
		log.Fatalf("failed to list repositories: %v", err)
	}

	// ---- SSE Broadcaster and HTTP server ---------------------------------
	sse := api.NewSSEBroadcaster()
	srv := api.NewServer(st, sse, time.Duration(cfg.PhaseMillis)*time.Millisecond, cfg.ImportRPS)
	srv.RegisterRoutes()

	// ---- Startup banner --------------------------------------------------
	banner := fmt.Sprintf(`
═══════════════════════════════
 DRISHTI — Dependency Graph Viz
 DB:    %s
 Addr:  %s
 Repos: %d
═══════════════════════════════`, cfg.DBPath, cfg.Addr(), len(repos))
	fmt.Println(banner)

	slog.Info("drishti starting",
		"db_path", cfg.DBPath,
		"addr", cfg.Addr(),
		"repos", len(repos),
		"phase_ms", cfg.PhaseMillis,
	)

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(cfg.Addr()); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// ---- Graceful shutdown -----------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := st.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("drishti shutdown complete")
}
