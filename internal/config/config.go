// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel overrides log verbosity: "debug", "info", "warn", "error".
	// Empty means debug in development and info otherwise.
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// Staff holds the management login.
	Staff StaffConfig

	// Summary holds zone summary settings.
	Summary SummaryConfig

	// Widget holds field widget host settings.
	Widget WidgetConfig

	// QuickReserve holds quick reservation throttling.
	QuickReserve QuickReserveConfig

	// CORSOrigins lists the origins allowed to read the public zone API.
	// Empty disables cross-origin access.
	CORSOrigins []string

	// TrustedProxies lists the CIDRs whose forwarding headers are believed.
	// Empty means the loopback, Docker and private LAN ranges.
	TrustedProxies []string
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "paintball").
	User string

	// Password is the MariaDB password (default: "paintball").
	Password string

	// Name is the database name (default: "paintball").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// StaffConfig holds the single staff login guarding management routes
// (zone creation, edit-mode widget changes, check-in slips).
type StaffConfig struct {
	// User is the basic-auth username (default: "staff").
	User string

	// PasswordHash is a bcrypt hash of the staff password.
	PasswordHash string
}

// SummaryConfig controls how zone summaries are computed and how long the
// computed records live in Redis.
type SummaryConfig struct {
	// WindowDays is the default span between Date From and Date To.
	WindowDays int

	// TTL is how long a computed summary record is kept.
	TTL time.Duration

	// Timezone is the IANA zone used to split days in the grid.
	Timezone string

	// AdditionalHours is the grace period after checkout before a zone
	// counts as still occupied on the checkout day. Zero means any spill
	// past midnight marks the day reserved.
	AdditionalHours int
}

// WidgetConfig holds settings for mounted field widgets.
type WidgetConfig struct {
	// IdleTTL is how long a mounted widget may sit unused before the host
	// janitor unmounts it.
	IdleTTL time.Duration
}

// QuickReserveConfig rate-limits the public quick reservation endpoint.
type QuickReserveConfig struct {
	// Rate is the number of submissions per minute allowed per client IP.
	Rate int

	// Burst is the number of submissions allowed at once.
	Burst int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "paintball"),
			Password:        getEnv("DB_PASSWORD", "paintball"),
			Name:            getEnv("DB_NAME", "paintball"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Staff: StaffConfig{
			User:         getEnv("STAFF_USER", "staff"),
			PasswordHash: getEnv("STAFF_PASSWORD_HASH", ""),
		},

		Summary: SummaryConfig{
			WindowDays:      getEnvInt("SUMMARY_WINDOW_DAYS", 30),
			TTL:             getEnvDuration("SUMMARY_TTL", 24*time.Hour),
			Timezone:        getEnv("SUMMARY_TIMEZONE", "UTC"),
			AdditionalHours: getEnvInt("SUMMARY_ADDITIONAL_HOURS", 0),
		},

		Widget: WidgetConfig{
			IdleTTL: getEnvDuration("WIDGET_IDLE_TTL", 30*time.Minute),
		},

		QuickReserve: QuickReserveConfig{
			Rate:  getEnvInt("QUICK_RESERVE_RATE", 10),
			Burst: getEnvInt("QUICK_RESERVE_BURST", 5),
		},

		CORSOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}

	if _, err := time.LoadLocation(cfg.Summary.Timezone); err != nil {
		return nil, fmt.Errorf("SUMMARY_TIMEZONE %q: %w", cfg.Summary.Timezone, err)
	}
	if cfg.Summary.WindowDays < 0 {
		return nil, fmt.Errorf("SUMMARY_WINDOW_DAYS must not be negative")
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Staff.PasswordHash == "" {
			return nil, fmt.Errorf("STAFF_PASSWORD_HASH is required in production")
		}
		if _, err := bcrypt.Cost([]byte(cfg.Staff.PasswordHash)); err != nil {
			return nil, fmt.Errorf("STAFF_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
	}

	// Provide a dev-only default login ("staff" / "paintball") so local dev
	// works without .env.
	if cfg.Staff.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(devStaffPassword), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hashing dev staff password: %w", err)
		}
		cfg.Staff.PasswordHash = string(hash)
	}

	return cfg, nil
}

// devStaffPassword is only used when no hash is configured outside production.
const devStaffPassword = "paintball"

// Location returns the summary time zone. Load has already validated it.
func (s SummaryConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
