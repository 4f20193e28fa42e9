package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend     string
	SettingsBackend string
	DataDirectory   string
	SQLiteDBPath    string

	// Settings
	RedisURL         string
	SettingsCacheTTL time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleInsightsSheetName  string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Workers
	ReminderSchedule string
	ExportInterval   time.Duration

	// Analytics
	ForecastMonths int
	Timezone       string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:     getEnv("DATA_BACKEND", BackendMemory),
		SettingsBackend: getEnv("SETTINGS_BACKEND", BackendMemory),
		DataDirectory:   getEnv("DATA_DIRECTORY", "./data"),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/payble.db"),

		RedisURL:         getEnv("REDIS_URL", ""),
		SettingsCacheTTL: getEnvDuration("SETTINGS_CACHE_TTL", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "payble"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "insights_refresh"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleInsightsSheetName:  getEnv("GOOGLE_INSIGHTS_SHEET_NAME", "Insights"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 7 * * *"),
		ExportInterval:   getEnvDuration("EXPORT_INTERVAL", time.Hour),

		ForecastMonths: getEnvInt("FORECAST_MONTHS", 6),
		Timezone:       getEnv("TIMEZONE", "Local"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	dataBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(dataBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, dataBackends))
	}
	settingsBackends := []string{BackendMemory, BackendSQLite, BackendRedis}
	if !slices.Contains(settingsBackends, c.SettingsBackend) {
		problems = append(problems, fmt.Sprintf("invalid settings backend '%s': must be one of %v", c.SettingsBackend, settingsBackends))
	}

	if c.UsesSQLite() {
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SettingsBackend == BackendRedis && strings.TrimSpace(c.RedisURL) == "" {
		problems = append(problems, "REDIS_URL is required when using redis settings backend")
	}
	if c.SettingsCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid settings cache TTL %v: must not be negative", c.SettingsCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be between 1 and 10000", c.RateLimitPerMinute))
	}
	if c.ForecastMonths < 2 || c.ForecastMonths > 36 {
		problems = append(problems, fmt.Sprintf("invalid forecast months %d: must be between 2 and 36", c.ForecastMonths))
	}
	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid reminder schedule '%s': %v", c.ReminderSchedule, err))
	}
	if c.ExportInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid export interval %v: must be at least 1 minute", c.ExportInterval))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the export worker needs on top of
// Validate.
func (c *Config) ValidateWorker() error {
	var problems []string
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if c.DataBackend == BackendMemory {
		problems = append(problems, "worker needs a shared data backend: set DATA_BACKEND=sqlite")
	}
	if len(problems) > 0 {
		return errors.New("worker configuration invalid:\n- " + strings.Join(problems, "\n- "))
	}
	return nil
}

// UsesSQLite reports whether any backend is SQLite.
func (c *Config) UsesSQLite() bool {
	return c.DataBackend == BackendSQLite || c.SettingsBackend == BackendSQLite
}

// Location returns the configured time zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
