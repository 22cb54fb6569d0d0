package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/auth"
	"github.com/Mark-Phillipson/Risk/internal/config"
	"github.com/Mark-Phillipson/Risk/internal/datasource"
	"github.com/Mark-Phillipson/Risk/internal/handler"
	"github.com/Mark-Phillipson/Risk/internal/logger"
	"github.com/Mark-Phillipson/Risk/internal/repository"
	"github.com/Mark-Phillipson/Risk/internal/repository/memory"
	"github.com/Mark-Phillipson/Risk/internal/repository/postgres"
	redisrepo "github.com/Mark-Phillipson/Risk/internal/repository/redis"
	"github.com/Mark-Phillipson/Risk/internal/repository/sqlite"
	"github.com/Mark-Phillipson/Risk/internal/service"
)

func main() {
	logger.Init(logger.OptionsFromEnv())
	cfg := config.Load()
	log.Info().
		Str("store", cfg.StoreBackend).
		Bool("leaderboard", cfg.DatabaseURL != "").
		Str("dataDir", cfg.DataDir).
		Msg("Config loaded")

	// Leaderboard database (optional)
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
	}

	// Region store
	var (
		store  repository.RegionStore
		cache  repository.SessionCache
		expiry *redis.Client
	)
	switch cfg.StoreBackend {
	case config.StoreRedis:
		redisClient, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()
		if err := redisClient.EnableExpiryEvents(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (idle sessions fall back to polling)")
		}
		store, cache, expiry = redisClient, redisClient, redisClient.Underlying()
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("SQLite open failed")
		}
		defer s.Close()
		store = s
	case config.StorePostgres:
		if db == nil {
			log.Fatal().Msg("STORE_BACKEND=postgres requires DATABASE_URL")
		}
		store = postgres.NewRegionRepo(db)
	case config.StoreMemory:
		store = memory.NewRegionStore()
	default:
		log.Fatal().Str("store", cfg.StoreBackend).Msg("Unknown store backend")
	}

	var board repository.LeaderboardRepository
	if db != nil {
		board = postgres.NewLeaderboardRepo(db)
	}

	var capitals service.CapitalEnricher
	if cfg.EnrichCapitals {
		capitals = datasource.NewCapitalClient(cfg.RestCountriesURL, nil)
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	sessions := service.NewSessionManager(service.ManagerConfig{
		Loader:      service.DirLoader(cfg.DataDir),
		Persistence: service.NewPersistence(store, board),
		Cache:       cache,
		Broadcaster: wsHub,
		Capitals:    capitals,
		TTL:         cfg.SessionTTL,
		Labels:      cfg.ShowLabels,
	})
	reaper := service.NewSessionReaper(expiry, sessions)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(handler.RouterConfig{
			Sessions:   sessions,
			JWT:        jwtMgr,
			Hub:        wsHub,
			CORSOrigin: cfg.CORSOrigin,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reaper.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
