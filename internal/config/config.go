// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store backends selectable with DOCSTORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	CORSOrigins []string

	// DocStore selects the document store backend: "postgres" (default) or
	// "memory". The memory store loses everything on restart.
	DocStore string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// MigrateOnStart runs the embedded goose migrations before serving.
	// Defaults to true.
	MigrateOnStart bool

	// JWTSecret is the HMAC key bearer tokens are verified with. Required.
	JWTSecret string

	// RedisURL enables the change feed. Empty disables it.
	RedisURL string

	// MeiliURL and MeiliAPIKey enable the full-text search mirror.
	// An empty MeiliURL disables search.
	MeiliURL    string
	MeiliAPIKey string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set or any
// values that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DocStore:    strings.ToLower(getEnv("DOCSTORE", StorePostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		RedisURL:    os.Getenv("REDIS_URL"),
		MeiliURL:    os.Getenv("MEILI_URL"),
		MeiliAPIKey: os.Getenv("MEILI_API_KEY"),
	}

	var problems []string

	migrate, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "true"))
	if err != nil {
		problems = append(problems, "MIGRATE_ON_START must be a boolean")
	}
	cfg.MigrateOnStart = migrate

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		problems = append(problems, "MAX_BODY_BYTES must be a positive integer")
	}
	cfg.MaxBodyBytes = maxBody

	switch cfg.DocStore {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "required environment variable not set: DATABASE_URL")
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("DOCSTORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.DocStore))
	}

	if cfg.JWTSecret == "" {
		problems = append(problems, "required environment variable not set: JWT_SECRET")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
