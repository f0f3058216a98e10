package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed directory; empty starts with an empty ledger.
	MemoryDataDir string

	// AMQP; events are published only when AMQPURL is set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Recurring processing
	RecurringCheckInterval time.Duration
	RecurringStrategy      string

	// Mirror worker
	MirrorInterval time.Duration

	// Ledger
	Timezone        string
	Currency        string
	DefaultCapital  string
	CategoriesFile  string
	ConfirmTokenTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validBackends   = []string{"memory", "sheets", "sqlite"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/ledger.db"),
		MemoryDataDir: getEnv("MEMORY_DATA_DIR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		RecurringCheckInterval: getEnvDuration("RECURRING_CHECK_INTERVAL", time.Hour),
		RecurringStrategy:      getEnv("RECURRING_STRATEGY", "exact"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),

		Timezone:        getEnv("LEDGER_TIMEZONE", ""),
		Currency:        strings.ToUpper(getEnv("LEDGER_CURRENCY", "ILS")),
		DefaultCapital:  getEnv("LEDGER_DEFAULT_CAPITAL", "0"),
		CategoriesFile:  getEnv("LEDGER_CATEGORIES_FILE", ""),
		ConfirmTokenTTL: getEnvDuration("CONFIRM_TOKEN_TTL", 5*time.Minute),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == "sheets" {
		errors = append(errors, c.validateSheets()...)
	}

	if c.RecurringCheckInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recurring check interval %v: must be at least 1 second", c.RecurringCheckInterval))
	} else if c.RecurringCheckInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring check interval %v: must be at most 24 hours", c.RecurringCheckInterval))
	}
	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	}
	if c.ConfirmTokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid confirm token TTL %v: must be positive", c.ConfirmTokenTTL))
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}
	if money.GetCurrency(c.Currency) == nil {
		errors = append(errors, fmt.Sprintf("unknown currency code '%s'", c.Currency))
	}
	if _, err := decimal.NewFromString(c.DefaultCapital); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default capital '%s': must be a decimal number", c.DefaultCapital))
	}
	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); err != nil {
			errors = append(errors, fmt.Sprintf("categories file is not readable: %v", err))
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings the mirror worker needs on top of Validate.
func (c *Config) ValidateMirror() error {
	errors := c.validateSheets()
	if c.DataBackend != "sqlite" {
		errors = append(errors, fmt.Sprintf("mirror worker reads the sqlite database, data backend is '%s'", c.DataBackend))
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required by the mirror worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateSheets() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when using sheets")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets")
	}
	if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errors
}

// Location returns the configured time zone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// InitialCapital parses DefaultCapital.
func (c *Config) InitialCapital() (decimal.Decimal, error) {
	if strings.TrimSpace(c.DefaultCapital) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(c.DefaultCapital))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
