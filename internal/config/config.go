package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	JWTSecret    string
	ServerAddr   string
	LogLevel     slog.Level
	DiscordToken string

	// MaxPermissionEntries caps how many role plus user entries a single
	// permission document may hold.
	MaxPermissionEntries int

	// SessionTTL is how long an interaction sync session stays registered
	// without activity before its message is marked expired.
	SessionTTL time.Duration
}

// Load reads configuration from the environment, with optional .env support.
// Missing required variables cause a panic listing everything that is unset.
func Load() *Config {
	// A missing .env file is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             envOrDefault("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		ServerAddr:           envOrDefault("SERVER_ADDR", ":8080"),
		LogLevel:             parseLogLevel(os.Getenv("LOG_LEVEL")),
		DiscordToken:         os.Getenv("DISCORD_TOKEN"),
		MaxPermissionEntries: envIntOrDefault("MAX_PERMISSION_ENTRIES", 50),
		SessionTTL:           envDurationOrDefault("SESSION_TTL", 10*time.Minute),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
