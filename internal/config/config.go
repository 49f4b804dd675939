package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wombocombo/game-server/internal/logging"
	"go.uber.org/zap"
)

// Config holds validated environment configuration for the game server.
type Config struct {
	Port              int
	TickRate          int
	MaxRooms          int
	MaxPlayersPerRoom int

	RedisAddr     string // normalized to host:port
	RedisPassword string

	LogLevel string

	// Rate limit for the WebSocket upgrade path, ulule formatted ("100-M").
	RateLimitWsIP string
}

// ValidateEnv reads all environment variables, applies defaults, and returns
// a Config object. Returns an error if any variable is present but invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	var err error
	cfg.Port, err = intEnvOrDefault("PORT", 9001)
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be between 1 and 65535 (got %d)", cfg.Port))
	}

	cfg.TickRate, err = intEnvOrDefault("TICK_RATE", 20)
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.TickRate < 1 || cfg.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("TICK_RATE must be between 1 and 1000 (got %d)", cfg.TickRate))
	}

	cfg.MaxRooms, err = intEnvOrDefault("MAX_ROOMS", 100)
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.MaxRooms < 1 {
		errs = append(errs, fmt.Sprintf("MAX_ROOMS must be positive (got %d)", cfg.MaxRooms))
	}

	cfg.MaxPlayersPerRoom, err = intEnvOrDefault("MAX_PLAYERS_PER_ROOM", 4)
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.MaxPlayersPerRoom < 1 {
		errs = append(errs, fmt.Sprintf("MAX_PLAYERS_PER_ROOM must be positive (got %d)", cfg.MaxPlayersPerRoom))
	}

	cfg.RedisAddr = normalizeRedisAddr(getEnvOrDefault("REDIS_ADDR", "localhost"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of debug|info|warn|error (got '%s')", cfg.LogLevel))
	}

	cfg.RateLimitWsIP = getEnvOrDefault("RATE_LIMIT_WS_IP", "100-M")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// normalizeRedisAddr accepts "host" or "host:port" and always returns host:port.
func normalizeRedisAddr(addr string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return addr + ":6379"
}

func logValidatedConfig(cfg *Config) {
	logging.Info(context.Background(), "environment configuration validated",
		zap.Int("port", cfg.Port),
		zap.Int("tick_rate", cfg.TickRate),
		zap.Int("max_rooms", cfg.MaxRooms),
		zap.Int("max_players_per_room", cfg.MaxPlayersPerRoom),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("redis_password", redactSecret(cfg.RedisPassword)),
		zap.String("log_level", cfg.LogLevel),
		zap.String("rate_limit_ws_ip", cfg.RateLimitWsIP),
	)
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func intEnvOrDefault(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got '%s')", key, value)
	}
	return n, nil
}

// redactSecret redacts a secret, showing only whether one is set.
func redactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
