package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendPGX    = "pgx"
	BackendSQLDB  = "sqldb"
	BackendSQLX   = "sqlx"
)

// Config holds all application configuration.
type Config struct {
	Client        ClientConfig
	Server        ServerConfig
	Store         StoreConfig
	Admin         AdminConfig
	Observability ObservabilityConfig
	LogLevel      string
}

// ClientConfig holds the settings of the lending client (CLI).
type ClientConfig struct {
	APIBase      string
	HTTPTimeout  time.Duration
	DeletePolicy string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// StoreConfig selects and configures the authoritative store.
type StoreConfig struct {
	Backend     string
	PostgresDSN string
}

// AdminConfig holds the administrator credentials seeded into an empty store.
type AdminConfig struct {
	Username string
	Password string
}

// ObservabilityConfig holds OpenTelemetry exporter settings.
type ObservabilityConfig struct {
	Enabled        bool
	TraceEndpoint  string
	MetricEndpoint string
	ServiceName    string
}

// Load reads configuration from environment variables with sensible defaults.
// The given .env files, or ./.env when none are given, are loaded first if they exist;
// variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	return &Config{
		Client: ClientConfig{
			APIBase:      getEnv("CIRCULATION_API_BASE", "http://localhost:5000/api"),
			HTTPTimeout:  getDurationEnv("CIRCULATION_HTTP_TIMEOUT", 10*time.Second),
			DeletePolicy: getEnv("CIRCULATION_DELETE_POLICY", lending.DeleteForce.String()),
		},
		Server: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":5000"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Backend:     getEnv("STORE_BACKEND", BackendMemory),
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "admin"),
		},
		Observability: ObservabilityConfig{
			Enabled:        getBoolEnv("OTEL_ENABLED", false),
			TraceEndpoint:  getEnv("OTEL_TRACE_ENDPOINT", "localhost:4317"),
			MetricEndpoint: getEnv("OTEL_METRIC_ENDPOINT", "localhost:4317"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "library-circulation"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// UsesPostgres reports whether the configured backend is one of the PostgreSQL adapters.
func (c *Config) UsesPostgres() bool {
	switch c.Store.Backend {
	case BackendPGX, BackendSQLDB, BackendSQLX:
		return true
	default:
		return false
	}
}

// DeletePolicy returns the parsed CIRCULATION_DELETE_POLICY.
func (c *Config) DeletePolicy() (lending.DeletePolicy, error) {
	return lending.ParseDeletePolicy(c.Client.DeletePolicy)
}

// SlogLevel returns the parsed LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return level, nil
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Client validation
	if c.Client.APIBase == "" {
		errs = append(errs, errors.New("CIRCULATION_API_BASE is required"))
	}
	if c.Client.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("CIRCULATION_HTTP_TIMEOUT must be positive"))
	}
	if _, err := c.DeletePolicy(); err != nil {
		errs = append(errs, fmt.Errorf("CIRCULATION_DELETE_POLICY: %w", err))
	}

	// Server validation
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("SERVER_ADDR is required"))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Store validation
	switch c.Store.Backend {
	case BackendMemory, BackendPGX, BackendSQLDB, BackendSQLX:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of memory, pgx, sqldb, sqlx, got '%s'", c.Store.Backend))
	}
	if c.UsesPostgres() && c.Store.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("POSTGRES_DSN is required for STORE_BACKEND '%s'", c.Store.Backend))
	}

	// Admin validation
	if c.Admin.Username == "" || c.Admin.Password == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must not be empty"))
	}

	// Observability validation
	if c.Observability.Enabled {
		if c.Observability.TraceEndpoint == "" {
			errs = append(errs, errors.New("OTEL_TRACE_ENDPOINT is required when OTEL_ENABLED is true"))
		}
		if c.Observability.MetricEndpoint == "" {
			errs = append(errs, errors.New("OTEL_METRIC_ENDPOINT is required when OTEL_ENABLED is true"))
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
