package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by the repository factory.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Reference ReferenceConfig
	Reporting ReportingConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logging and tracing switches.
type LogConfig struct {
	Level          string
	TracingEnabled bool
}

// DatabaseConfig selects and configures the survey store.
type DatabaseConfig struct {
	Driver  string
	BaseURL string
	APIKey  string
	DSN     string
	Timeout time.Duration
}

// ReferenceConfig controls the lifecycle of the commodity/market lookup snapshot.
// A zero TTL reloads reference data on every report.
type ReferenceConfig struct {
	CacheTTL time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// SheetsConfig contains configuration required to export into Google Sheets.
// Export is disabled when CredentialsPath is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ArchiveTab      string
}

// Enabled reports whether Google Sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != ""
}

// MongoDBConfig holds settings for the report archive. The archive is disabled
// when URI is empty.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the MongoDB report archive is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	dbTimeout, err := getDuration("DATABASE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	refTTL, err := getDuration("REFERENCE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	tracing, err := getBool("TRACING_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:          getenvWithDefault("LOG_LEVEL", "info"),
			TracingEnabled: tracing,
		},
		Database: DatabaseConfig{
			Driver:  getenvWithDefault("STORE_DRIVER", DriverPostgREST),
			BaseURL: os.Getenv("SUPABASE_URL"),
			APIKey:  os.Getenv("SUPABASE_API_KEY"),
			DSN:     os.Getenv("DATABASE_DSN"),
			Timeout: dbTimeout,
		},
		Reference: ReferenceConfig{
			CacheTTL: refTTL,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Jakarta"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
			ArchiveTab:      getenvWithDefault("GOOGLE_SHEET_ARCHIVE_TAB", "Archive"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "bapokting"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Database.Driver {
	case DriverPostgREST:
		if c.Database.BaseURL == "" {
			return errors.New("SUPABASE_URL must be provided")
		}
		if c.Database.APIKey == "" {
			return errors.New("SUPABASE_API_KEY must be provided")
		}
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return errors.New("DATABASE_DSN must be provided")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Database.Driver)
	}

	if c.Reference.CacheTTL < 0 {
		return errors.New("REFERENCE_CACHE_TTL must not be negative")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.Sheets.Enabled() && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_EXPORT_ID must be provided when GOOGLE_SHEETS_CREDENTIALS_PATH is set")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

// Location resolves the reporting timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
