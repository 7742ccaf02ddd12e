package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	LogLevel                string
	DatabaseDriver          string
	DatabaseURL             string
	DatabaseConnectAttempts int
	DatabaseConnectBackoff  time.Duration
	DatabaseMaxOpenConns    int
	RequestTimeout          time.Duration
	RateLimitMax            int
	RateLimitWindow         time.Duration
	RedisURL                string
	NATSURL                 string
	EventsChannel           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RECORDS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Student Records API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("database.connect_backoff", "2s")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("request.timeout", "10s")
	v.SetDefault("events.channel", "records")
	v.SetDefault("rate_limit.max", 0)
	v.SetDefault("rate_limit.window", "1m")

	backoff, err := parseDuration(v.GetString("database.connect_backoff"), 2*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connect backoff: %w", err)
	}

	timeout, err := parseDuration(v.GetString("request.timeout"), 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}

	window, err := parseDuration(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		LogLevel:                strings.ToLower(v.GetString("log.level")),
		DatabaseDriver:          strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:             strings.TrimSpace(v.GetString("database.url")),
		DatabaseConnectAttempts: v.GetInt("database.connect_attempts"),
		DatabaseConnectBackoff:  backoff,
		DatabaseMaxOpenConns:    v.GetInt("database.max_open_conns"),
		RequestTimeout:          timeout,
		RateLimitMax:            v.GetInt("rate_limit.max"),
		RateLimitWindow:         window,
		RedisURL:                strings.TrimSpace(v.GetString("redis.url")),
		NATSURL:                 strings.TrimSpace(v.GetString("nats.url")),
		EventsChannel:           strings.TrimSpace(v.GetString("events.channel")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.DatabaseConnectAttempts <= 0 {
		cfg.DatabaseConnectAttempts = 1
	}

	if cfg.DatabaseMaxOpenConns <= 0 {
		cfg.DatabaseMaxOpenConns = 10
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
