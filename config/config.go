package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCostCap is the cost-normalization constant used by the balanced
// selection strategy, in dollars per size unit. Providers at or above the cap
// score zero on the cost term. Tunable via ORCHESTRATOR_COST_CAP; the right
// value is a product question, not something to re-derive in code.
const DefaultCostCap = 0.05

// Config represents the complete application configuration
type Config struct {
	Server       ServerConfig
	Orchestrator OrchestratorConfig
	Usage        UsageConfig
	Database     *DatabaseConfig // Optional: usage sink DB. When nil, usage records go to the log sink.
	Catalog      CatalogConfig
	Logging      LoggingConfig
	Environment  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// OrchestratorConfig holds chain selection and dispatch tuning
type OrchestratorConfig struct {
	// CostCap normalizes cost_per_unit into [0,1] for the balanced strategy.
	CostCap float64

	// AttemptTimeoutFactor multiplies a provider's avg latency to bound one attempt.
	AttemptTimeoutFactor float64

	// MinAttemptTimeout floors the per-attempt timeout so profiles advertising
	// tiny latencies are not starved.
	MinAttemptTimeout time.Duration
}

// UsageConfig holds usage recorder tuning
type UsageConfig struct {
	BufferSize  int
	WorkerCount int
}

// CatalogConfig holds provider catalog loading configuration
type CatalogConfig struct {
	// Path to the catalog JSON file. Empty means the built-in default catalog.
	Path string
}

// DatabaseConfig holds PostgreSQL configuration for the usage sink.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present (no-op when absent)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Orchestrator: OrchestratorConfig{
			CostCap:              getEnvAsFloat("ORCHESTRATOR_COST_CAP", DefaultCostCap),
			AttemptTimeoutFactor: getEnvAsFloat("ORCHESTRATOR_ATTEMPT_TIMEOUT_FACTOR", 3.0),
			MinAttemptTimeout:    getEnvAsDuration("ORCHESTRATOR_MIN_ATTEMPT_TIMEOUT", 500*time.Millisecond),
		},
		Usage: UsageConfig{
			BufferSize:  getEnvAsInt("USAGE_BUFFER_SIZE", 10000),
			WorkerCount: getEnvAsInt("USAGE_WORKER_COUNT", 4),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		Database: loadDatabaseConfig(),
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are sane
func (c *Config) Validate() error {
	if c.Orchestrator.CostCap <= 0 {
		return fmt.Errorf("cost cap must be positive")
	}
	if c.Orchestrator.AttemptTimeoutFactor <= 0 {
		return fmt.Errorf("attempt timeout factor must be positive")
	}
	if c.Orchestrator.MinAttemptTimeout <= 0 {
		return fmt.Errorf("minimum attempt timeout must be positive")
	}
	if c.Usage.BufferSize <= 0 {
		return fmt.Errorf("usage buffer size must be positive")
	}
	if c.Usage.WorkerCount <= 0 {
		return fmt.Errorf("usage worker count must be positive")
	}
	if c.Logging.Level == "" {
		return fmt.Errorf("log level is required")
	}
	if c.Database != nil && c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration requires DATABASE_URL or DB_HOST")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads the usage sink DB config.
// Returns nil when neither DATABASE_URL nor DB_HOST is set (log sink is used instead).
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return &DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	if getEnv("DB_HOST", "") == "" {
		return nil
	}
	return &DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "orchestrator"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "usage"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
