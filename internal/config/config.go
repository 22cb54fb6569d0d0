package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for conquest records.
const (
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	StoreBackend     string
	SQLitePath       string
	JWTSecret        string
	DataDir          string
	RestCountriesURL string
	EnrichCapitals   bool
	ShowLabels       bool
	CORSOrigin       string
	SessionTTL       time.Duration
}

// Load reads .env files when present, then environment variables with
// sensible defaults. An empty DATABASE_URL disables the leaderboard.
func Load() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))

	return &Config{
		Port:             envOrDefault("PORT", "8009"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         envOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		StoreBackend:     strings.ToLower(envOrDefault("STORE_BACKEND", StoreRedis)),
		SQLitePath:       envOrDefault("SQLITE_PATH", filepath.Join("data", "risk.db")),
		JWTSecret:        envOrDefault("JWT_SECRET", "dev-secret-change-me"),
		DataDir:          envOrDefault("DATA_DIR", filepath.Join("web", "data")),
		RestCountriesURL: envOrDefault("RESTCOUNTRIES_URL", "https://restcountries.com"),
		EnrichCapitals:   envBool("ENRICH_CAPITALS", true),
		ShowLabels:       envBool("SHOW_LABELS", true),
		CORSOrigin:       envOrDefault("CORS_ORIGIN", "http://localhost:3009"),
		SessionTTL:       envDuration("SESSION_TTL", 2*time.Hour),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
