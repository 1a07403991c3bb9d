package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote transaction store
	APIBaseURL string
	APITimeout time.Duration
	APIRetries int

	// Session
	CredentialsFile string
	TokenTTL        time.Duration
	AutoLogin       bool

	// Offline snapshot
	SQLiteDBPath string

	// Mutation events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Presentation defaults
	PageSize int
}

func Load() *Config {
	return &Config{
		APIBaseURL: getEnv("TALLY_API_URL", "http://localhost:8080/expense_tracker/api"),
		APITimeout: getEnvDuration("TALLY_API_TIMEOUT", 10*time.Second),
		APIRetries: getEnvInt("TALLY_API_RETRIES", 3),

		CredentialsFile: getEnv("TALLY_CREDENTIALS_FILE", defaultCredentialsFile()),
		TokenTTL:        getEnvDuration("TALLY_TOKEN_TTL", time.Hour),
		AutoLogin:       getEnvBool("TALLY_AUTO_LOGIN", false),

		SQLiteDBPath: getEnv("TALLY_DB_PATH", defaultDBPath()),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tally"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		PageSize: getEnvInt("TALLY_PAGE_SIZE", 10),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if parsed, err := url.Parse(c.APIBaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid API base URL %q: must be absolute http(s)", c.APIBaseURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid API base URL scheme %q: must be http or https", parsed.Scheme))
	}

	if c.APITimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid API timeout %v: must be at most 1 minute", c.APITimeout))
	}

	if c.APIRetries < 0 || c.APIRetries > 10 {
		errs = append(errs, fmt.Sprintf("invalid retry count %d: must be between 0 and 10", c.APIRetries))
	}

	if c.TokenTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Sprintf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// SheetsConfigured reports whether the export target is set up.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != "" && c.GoogleSheetName != ""
}

func defaultCredentialsFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tally", "credentials.json")
	}
	return ""
}

func defaultDBPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "tally", "snapshot.db")
	}
	return "./tally.db"
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
