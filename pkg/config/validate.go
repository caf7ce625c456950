package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// reservedPaths are routed by the server regardless of configuration.
var reservedPaths = []string{"/", "/api/auth/register", "/api/auth/me", "/healthz"}

// logLevels lists the accepted logging.level values.
var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, fmt.Errorf("auth.secret or auth.secret_file is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %s", c.Auth.TokenTTL))
	}
	if !strings.HasPrefix(c.Auth.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("auth.login_path must start with \"/\", got %q", c.Auth.LoginPath))
	} else if !isExactRoute(c.Auth.LoginPath) {
		errs = append(errs, fmt.Errorf("auth.login_path must be a clean path without wildcards or a trailing \"/\", got %q", c.Auth.LoginPath))
	}
	if c.Auth.LoginRatePerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.login_rate_per_minute must be >= 0, got %d", c.Auth.LoginRatePerMinute))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	if c.Observability.Metrics.Enabled {
		if !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
			errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
		} else if !isExactRoute(c.Observability.Metrics.Path) {
			errs = append(errs, fmt.Errorf("observability.metrics.path must be a clean path without wildcards or a trailing \"/\", got %q", c.Observability.Metrics.Path))
		}
	}

	// Both paths share one router with the fixed auth routes.
	for _, reserved := range reservedPaths {
		if c.Auth.LoginPath == reserved {
			errs = append(errs, fmt.Errorf("auth.login_path %q collides with a built-in route", c.Auth.LoginPath))
		}
		if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == reserved {
			errs = append(errs, fmt.Errorf("observability.metrics.path %q collides with a built-in route", c.Observability.Metrics.Path))
		}
	}
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == c.Auth.LoginPath {
		errs = append(errs, fmt.Errorf("observability.metrics.path and auth.login_path must differ"))
	}

	if !logLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// isExactRoute reports whether p is registered by http.ServeMux as a
// single literal path. Wildcards, whitespace and trailing slashes would
// turn it into a pattern the authentication bypass does not match.
func isExactRoute(p string) bool {
	if strings.ContainsAny(p, "{} \t\r\n") {
		return false
	}
	return path.Clean(p) == p
}
