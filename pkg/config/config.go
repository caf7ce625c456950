// Package config provides unified configuration for the accolade server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (ACCOLADE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the accolade server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" env:"ACCOLADE_PORT"`                         // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"ACCOLADE_READ_TIMEOUT"`         // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"ACCOLADE_WRITE_TIMEOUT"`       // default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ACCOLADE_SHUTDOWN_TIMEOUT"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size" env:"ACCOLADE_MAX_BODY_SIZE"`       // default: 1 MB
}

// AuthConfig holds token, password, and login settings.
type AuthConfig struct {
	Secret             string        `yaml:"secret" env:"ACCOLADE_JWT_SECRET"`
	SecretFile         string        `yaml:"secret_file" env:"ACCOLADE_JWT_SECRET_FILE"` // _file variant for secret
	TokenTTL           time.Duration `yaml:"token_ttl" env:"ACCOLADE_TOKEN_TTL"`         // default: 1h
	LoginPath          string        `yaml:"login_path" env:"ACCOLADE_LOGIN_PATH"`       // default: /api/auth/login
	BcryptCost         int           `yaml:"bcrypt_cost" env:"ACCOLADE_BCRYPT_COST"`     // default: 12
	LoginRatePerMinute int           `yaml:"login_rate_per_minute" env:"ACCOLADE_LOGIN_RATE_PER_MINUTE"`
	LoginBurst         int           `yaml:"login_burst" env:"ACCOLADE_LOGIN_BURST"`
}

// StorageConfig holds user store settings.
type StorageConfig struct {
	Type     string         `yaml:"type" env:"ACCOLADE_STORAGE"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn" env:"ACCOLADE_POSTGRES_DSN"`
	DSNFile        string `yaml:"dsn_file" env:"ACCOLADE_POSTGRES_DSN_FILE"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns" env:"ACCOLADE_POSTGRES_MAX_CONNS"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"ACCOLADE_POSTGRES_MIGRATE_ON_START"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ACCOLADE_METRICS_ENABLED"` // default: true
	Path    string `yaml:"path" env:"ACCOLADE_METRICS_PATH"`       // default: "/metrics"
}

// LoggingConfig holds log output settings. ACCOLADE_LOG_LEVEL and
// ACCOLADE_DEBUG are also read directly by the debug package.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"ACCOLADE_LOG_LEVEL"`   // debug, info, warn, error; default: info
	Format string `yaml:"format" env:"ACCOLADE_LOG_FORMAT"` // text or json; default: text
	Debug  string `yaml:"debug" env:"ACCOLADE_DEBUG"`       // comma-separated categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Auth: AuthConfig{
			TokenTTL:           time.Hour,
			LoginPath:          "/api/auth/login",
			BcryptCost:         12,
			LoginRatePerMinute: 10,
			LoginBurst:         5,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
