// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ErrMissingAPIKey is returned by Validate when no YouTube API key is configured.
var ErrMissingAPIKey = errors.New("config: YOUTUBE_API_KEY is not set")

// Config holds all settings for the sheet sync process. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	// APIKey is the YouTube Data API v3 key.
	APIKey string `json:"api_key"`
	// ChannelID is the channel whose uploads are tracked (UC...).
	ChannelID string `json:"channel_id"`

	// ServiceAccountFile is the path to the Google service account JSON key.
	ServiceAccountFile string `json:"service_account_file"`
	// SpreadsheetID is the target spreadsheet key.
	SpreadsheetID string `json:"spreadsheet_id"`
	// SheetName is the worksheet (tab) inside the spreadsheet.
	SheetName string `json:"sheet_name"`
	// TableFile, when set, replaces Google Sheets with a local CSV file.
	TableFile string `json:"table_file,omitempty"`

	// FetchLimit is how many recent uploads are fetched per cycle (1-50).
	FetchLimit int `json:"fetch_limit"`

	// Interval is the minimum time between the starts of two cycles.
	Interval time.Duration `json:"interval"`
	// PollTick is how often the scheduler checks whether Interval has elapsed.
	PollTick time.Duration `json:"poll_tick"`
	// CycleTimeout bounds a single fetch-reconcile-write cycle.
	CycleTimeout time.Duration `json:"cycle_timeout"`

	// MaxRetries is the number of extra attempts per API call (0 = none)
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1)
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// YouTubeRPS and SheetsRPS cap outbound requests per second per API host.
	YouTubeRPS float64 `json:"youtube_rps"`
	SheetsRPS  float64 `json:"sheets_rps"`

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string `json:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		FetchLimit:        10,
		Interval:          1 * time.Hour,
		PollTick:          1 * time.Minute,
		CycleTimeout:      2 * time.Minute,
		MaxRetries:        0,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		YouTubeRPS:        5.0,
		SheetsRPS:         1.0,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars (including a .env file) > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv exports the variables of a dotenv file without overriding
// anything already set in the process environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// loadFromFile attempts to load config from ytsheet.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytsheet.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytsheet", "ytsheet.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	envString("YOUTUBE_API_KEY", &c.APIKey)
	envString("CHANNEL_ID", &c.ChannelID)
	envString("SERVICE_ACCOUNT_FILE", &c.ServiceAccountFile)
	envString("SPREADSHEET_ID", &c.SpreadsheetID)
	envString("SHEET_NAME", &c.SheetName)
	envString("YTSHEET_TABLE_FILE", &c.TableFile)

	envInt("YTSHEET_FETCH_LIMIT", &c.FetchLimit)
	envDuration("YTSHEET_INTERVAL", &c.Interval)
	envDuration("YTSHEET_POLL_TICK", &c.PollTick)
	envDuration("YTSHEET_CYCLE_TIMEOUT", &c.CycleTimeout)

	envInt("YTSHEET_MAX_RETRIES", &c.MaxRetries)
	envDuration("YTSHEET_INITIAL_BACKOFF", &c.InitialBackoff)
	envDuration("YTSHEET_MAX_BACKOFF", &c.MaxBackoff)

	envFloat("YTSHEET_YOUTUBE_RPS", &c.YouTubeRPS)
	envFloat("YTSHEET_SHEETS_RPS", &c.SheetsRPS)

	envString("YTSHEET_LOG_LEVEL", &c.LogLevel)
	envString("YTSHEET_LOG_FORMAT", &c.LogFormat)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// UsesLocalTable reports whether the CSV file table replaces Google Sheets.
func (c *Config) UsesLocalTable() bool {
	return c.TableFile != ""
}

// Validate checks that configuration values are valid and consistent.
// A missing API key is reported as ErrMissingAPIKey.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ChannelID == "" {
		return fmt.Errorf("channel_id must be set (CHANNEL_ID)")
	}
	if !c.UsesLocalTable() {
		if c.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet_id must be set (SPREADSHEET_ID)")
		}
		if c.SheetName == "" {
			return fmt.Errorf("sheet_name must be set (SHEET_NAME)")
		}
		if c.ServiceAccountFile == "" {
			return fmt.Errorf("service_account_file must be set (SERVICE_ACCOUNT_FILE)")
		}
	}
	if c.FetchLimit < 1 || c.FetchLimit > 50 {
		return fmt.Errorf("fetch_limit must be between 1 and 50")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.PollTick <= 0 {
		return fmt.Errorf("poll_tick must be positive")
	}
	if c.PollTick > c.Interval {
		return fmt.Errorf("poll_tick must be <= interval")
	}
	if c.CycleTimeout <= 0 {
		return fmt.Errorf("cycle_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff <= 0 {
		return fmt.Errorf("max_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	if c.YouTubeRPS < 0 || c.SheetsRPS < 0 {
		return fmt.Errorf("rate limits must be non-negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json")
	}
	return nil
}
