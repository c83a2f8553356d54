package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverREST     = "rest"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DBDriver    string
	DatabaseURL string
	RESTURL     string
	RESTAPIKey  string
	AutoMigrate bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Request limits
	MaxBodyBytes int64

	// Job state
	JobTTL time.Duration

	// Reports
	CompanyName   string
	RenderTimeout time.Duration
	StatsWindow   time.Duration

	// PDF inspection
	PDFFallbackPdftotext bool
}

// LoadDotEnv reads a .env file into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PLANREPORT_API_KEY"),

		DBDriver:    strings.ToLower(envOr("DB_DRIVER", DriverSQLite)),
		DatabaseURL: envOr("DATABASE_URL", "file:planreport.db?_foreign_keys=on"),
		RESTURL:     os.Getenv("REST_URL"),
		RESTAPIKey:  os.Getenv("REST_API_KEY"),
		AutoMigrate: envBool("AUTO_MIGRATE", true),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxBodyBytes: envInt64("MAX_BODY_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		CompanyName:   os.Getenv("COMPANY_NAME"),
		RenderTimeout: envDuration("RENDER_TIMEOUT", 60*time.Second),
		StatsWindow:   envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 60 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PLANREPORT_API_KEY is required")
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", c.DBDriver)
		}
	case DriverREST:
		if c.RESTURL == "" {
			return fmt.Errorf("REST_URL is required for DB_DRIVER=rest")
		}
		if c.RESTAPIKey == "" {
			return fmt.Errorf("REST_API_KEY is required for DB_DRIVER=rest")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want sqlite, pgx or rest)", c.DBDriver)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
