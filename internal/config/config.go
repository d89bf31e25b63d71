package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names. Flags override them.
const (
	EnvPort                   = "OWNERVOTE_PORT"
	EnvDBPath                 = "OWNERVOTE_DB"
	EnvLogLevel               = "OWNERVOTE_LOG_LEVEL"
	EnvLogFormat              = "OWNERVOTE_LOG_FORMAT"
	EnvHTTPLogging            = "OWNERVOTE_HTTP_LOGGING"
	EnvSweepInterval          = "OWNERVOTE_SWEEP_INTERVAL"
	EnvRegistryURL            = "OWNERVOTE_REGISTRY_URL"
	EnvRegistryToken          = "OWNERVOTE_REGISTRY_TOKEN"
	EnvRejectDuplicateBallots = "OWNERVOTE_REJECT_DUPLICATE_BALLOTS"
	EnvAdminToken             = "OWNERVOTE_ADMIN_TOKEN"
)

// Config holds runtime settings for the ownervote server
type Config struct {
	Port          int
	DBPath        string
	LogLevel      string
	LogFormat     string
	HTTPLogging   bool
	SweepInterval time.Duration

	// RegistryURL switches membership lookups from the local tables to a
	// remote property registry when set.
	RegistryURL   string
	RegistryToken string

	// AdminToken guards /api/admin. Empty leaves those routes open.
	AdminToken string

	RejectDuplicateBallots bool
	ShowVersion            bool
}

var (
	ErrInvalidPort          = errors.New("port must be between 1 and 65535")
	ErrInvalidSweepInterval = errors.New("sweep interval must be positive")
	ErrMissingDBPath        = errors.New("database path is required")
)

// Load reads an optional .env file, then parses args on top of the
// environment-derived defaults.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()
	return Parse(args, os.Stderr)
}

// Parse builds a Config from the current environment and the given args
func Parse(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("ownervote", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&cfg.Port, "port", getEnvOrDefaultInt(EnvPort, 8081), "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", getEnvOrDefault(EnvDBPath, "ownervote.db"), "SQLite database path")
	fs.StringVar(&cfg.LogLevel, "loglevel", getEnvOrDefault(EnvLogLevel, "info"), "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "logformat", getEnvOrDefault(EnvLogFormat, "text"), "Log format (text, json)")
	fs.BoolVar(&cfg.HTTPLogging, "httplog", getEnvOrDefaultBool(EnvHTTPLogging, false), "Log every HTTP request")
	fs.DurationVar(&cfg.SweepInterval, "sweep", getEnvOrDefaultDuration(EnvSweepInterval, 30*time.Second), "Interval between lifecycle sweeps")
	fs.StringVar(&cfg.RegistryURL, "registry", getEnvOrDefault(EnvRegistryURL, ""), "Property registry base URL (empty uses local tables)")
	fs.StringVar(&cfg.RegistryToken, "registry-token", getEnvOrDefault(EnvRegistryToken, ""), "Bearer token for the property registry")
	fs.BoolVar(&cfg.RejectDuplicateBallots, "reject-duplicates", getEnvOrDefaultBool(EnvRejectDuplicateBallots, false), "Reject re-cast ballots instead of overwriting")
	fs.StringVar(&cfg.AdminToken, "admin-token", getEnvOrDefault(EnvAdminToken, ""), "Bearer token required on /api/admin routes")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.SweepInterval <= 0 {
		return ErrInvalidSweepInterval
	}
	if c.DBPath == "" {
		return ErrMissingDBPath
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
