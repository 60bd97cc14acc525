package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/api"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/audit"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/cache"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/filegen"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/generator"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/repository"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/ports"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	addr := envOr("MAZE_ADDR", ":8080")
	serverURL := envOr("MAZE_SERVER_URL", "http://localhost:8080")

	// Storage: postgres when DATABASE_URL is set, in-memory otherwise. The
	// memory store keeps the maze fully functional for local runs; state is
	// lost on restart.
	var store interface {
		ports.EndpointStore
		ports.BeaconStore
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sql.Open("pgx", dbURL)
		if err != nil {
			log.Fatalf("Unable to open database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			fmt.Printf("Warning: Could not ping database: %v\n", err)
		}
		store = repository.NewPostgresStore(db)
		logger.Info("using postgres store")
	} else {
		store = repository.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	// Response cache: redis when configured, sharded in-process otherwise.
	var respCache ports.ResponseCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		respCache = cache.NewRedisCache(redisAddr, os.Getenv("REDIS_PASSWORD"), 0, logger)
		logger.Info("using redis response cache", "addr", redisAddr)
	} else {
		respCache = cache.NewMemoryCache()
	}

	// Audit trail: encoded file sink mirrored into the structured log.
	var sink ports.AuditSink = audit.LoggerSink{Logger: logger}
	auditPath := envOr("MAZE_AUDIT_LOG", "maze_audit.log")
	if fileSink, err := audit.NewEncodedFileSink(auditPath, logger); err != nil {
		logger.Error("audit file sink unavailable, logging only", "path", auditPath, "error", err)
	} else {
		defer fileSink.Close()
		sink = audit.MultiSink{fileSink, audit.LoggerSink{Logger: logger}}
	}

	// Content synthesis: external AI service when a key is present, with the
	// deterministic template engine as its fallback either way.
	fallback := generator.NewTemplateGenerator()
	var gen ports.ContentGenerator = fallback
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		gen = generator.NewLLMGenerator(
			envOr("MAZE_LLM_URL", "https://generativelanguage.googleapis.com"),
			os.Getenv("MAZE_LLM_MODEL"),
			apiKey,
			&http.Client{Timeout: 10 * time.Second},
			logger,
		)
		logger.Info("ai content synthesis enabled")
	} else {
		logger.Info("no GEMINI_API_KEY, template synthesis only")
	}

	tokens := services.NewTokenService()
	cls := services.NewClassifier(nil)
	bursts := services.NewBurstDetector(5, 15)
	go func() {
		for range time.Tick(10 * time.Minute) {
			bursts.Cleanup()
		}
	}()

	maze := services.NewMazeService(store, gen, fallback, tokens, cls, services.MazeOptions{
		Cache:  respCache,
		Bursts: bursts,
		Sink:   sink,
		Logger: logger,
	})
	beacons := services.NewBeaconTracker(store, sink, logger)
	encoder := filegen.NewRegistry(serverURL)

	handler := api.NewHandler(maze, tokens, beacons, encoder, store, sink, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	ln, err := api.Listen(context.Background(), addr)
	if err != nil {
		log.Fatalf("listen %s: %v", addr, err)
	}

	logger.Info("deception maze listening", "addr", addr, "server_url", serverURL)
	srv := &http.Server{
		Handler:           api.WithServerHeader(api.WithRequestLogging(logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.Serve(ln); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
