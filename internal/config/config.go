package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Auth    AuthConfig
	Logging LoggingConfig
	App     AppConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	AllowedOriginsCSV string
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver         string // memory|neo4j|postgres
	URI            string
	Database       string
	Username       string
	Password       string
	DSN            string
	MaxConnections int
}

// AuthConfig configures bearer-token verification and role allow-lists.
type AuthConfig struct {
	AdminUIDsCSV string
	BankUIDsCSV  string
	JWTSecret    string
	CertsURL     string
	Issuer       string
	Audience     string
	Leeway       time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Env             string
	InvoiceLocation *time.Location
}

// Development reports whether internal error detail may be exposed.
func (a AppConfig) Development() bool {
	return strings.EqualFold(a.Env, "development")
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodyBytes    = 10 << 20
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultStoreDriver     = "memory"
	defaultStoreMaxConns   = 10
	defaultAppEnv          = "production"
)

// Load reads a .env file when present, then environment variables, applying
// defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
			MaxBodyBytes:      int64(parseIntWithDefault("SERVER_MAX_BODY_BYTES", defaultMaxBodyBytes)),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(valueOrDefault("STORE_DRIVER", defaultStoreDriver)),
			URI:            os.Getenv("NEO4J_URI"),
			Database:       os.Getenv("NEO4J_DATABASE"),
			Username:       os.Getenv("NEO4J_USERNAME"),
			Password:       os.Getenv("NEO4J_PASSWORD"),
			DSN:            os.Getenv("DATABASE_URL"),
			MaxConnections: parseIntWithDefault("STORE_MAX_CONNECTIONS", defaultStoreMaxConns),
		},
		Auth: AuthConfig{
			AdminUIDsCSV: os.Getenv("ADMIN_UIDS"),
			BankUIDsCSV:  os.Getenv("BANK_UIDS"),
			JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
			CertsURL:     os.Getenv("AUTH_CERTS_URL"),
			Issuer:       os.Getenv("AUTH_ISSUER"),
			Audience:     os.Getenv("AUTH_AUDIENCE"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		App: AppConfig{
			Env:             valueOrDefault("APP_ENV", defaultAppEnv),
			InvoiceLocation: time.Local,
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		target   *time.Duration
		fallback time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout, defaultReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout, defaultWriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout, defaultIdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout, defaultShutdownTimeout},
		{"AUTH_LEEWAY", &cfg.Auth.Leeway, 0},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.target = v
	}

	if name := os.Getenv("INVOICE_TIMEZONE"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INVOICE_TIMEZONE: %w", err)
		}
		cfg.App.InvoiceLocation = loc
	}

	return cfg, nil
}

// AllowedOrigins splits the CORS allow-list.
func (c HTTPConfig) AllowedOrigins() []string {
	return splitCSV(c.AllowedOriginsCSV)
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
