package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// RateSourceHTTP pulls the live rate from the broadcast endpoint.
	RateSourceHTTP = "http"
	// RateSourceSheets reads the rate rows from a Google Sheet range.
	RateSourceSheets = "sheets"

	defaultRateFeedURL = "https://bcast.svbcgold.in:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/svbc"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	RateFeed RateFeedConfig
	Quote    QuoteConfig
	Sheets   SheetsConfig
	MongoDB  MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// RateFeedConfig describes where and how often the reference rate is fetched.
type RateFeedConfig struct {
	Source       string
	URL          string
	SecondaryURL string
	Timeout      time.Duration
	SyncSchedule string
}

// QuoteConfig seeds the calculator before any live rate is available.
type QuoteConfig struct {
	InitialRate   float64
	InitialPurity float64
	Weight        float64
	MakingPercent float64
}

// SheetsConfig contains configuration required to read rates from Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables snapshot persistence.
type MongoDBConfig struct {
	URI    string
	DBName string
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

	timeout, err := getDuration("RATE_FEED_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	initialRate, err := getFloat("INITIAL_RATE", 0)
	if err != nil {
		return nil, err
	}
	initialPurity, err := getFloat("INITIAL_PURITY", 1)
	if err != nil {
		return nil, err
	}
	weight, err := getFloat("DEFAULT_WEIGHT", 0)
	if err != nil {
		return nil, err
	}
	making, err := getFloat("DEFAULT_MAKING_PERCENT", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		RateFeed: RateFeedConfig{
			Source:       getenvWithDefault("RATE_SOURCE", RateSourceHTTP),
			URL:          getenvWithDefault("RATE_FEED_URL", defaultRateFeedURL),
			SecondaryURL: os.Getenv("SECONDARY_RATE_FEED_URL"),
			Timeout:      timeout,
			SyncSchedule: getenvWithDefault("RATE_SYNC_SCHEDULE", "@every 30s"),
		},
		Quote: QuoteConfig{
			InitialRate:   initialRate,
			InitialPurity: initialPurity,
			Weight:        weight,
			MakingPercent: making,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_RATE_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_RATE_RANGE", "Rates!A:Z"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "goldquote"),
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

	if c.RateFeed.SyncSchedule == "" {
		return errors.New("RATE_SYNC_SCHEDULE must be provided")
	}

	if c.RateFeed.Timeout <= 0 {
		return errors.New("RATE_FEED_TIMEOUT must be positive")
	}

	switch c.RateFeed.Source {
	case RateSourceHTTP:
		if c.RateFeed.URL == "" {
			return errors.New("RATE_FEED_URL must be provided")
		}
	case RateSourceSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_RATE_ID must be provided")
		}
		if c.Sheets.Range == "" {
			return errors.New("GOOGLE_SHEET_RATE_RANGE must not be empty")
		}
	default:
		return fmt.Errorf("unsupported RATE_SOURCE %q", c.RateFeed.Source)
	}

	switch {
	case c.Quote.InitialRate < 0:
		return errors.New("INITIAL_RATE must not be negative")
	case c.Quote.InitialPurity < 0 || c.Quote.InitialPurity > 1:
		return errors.New("INITIAL_PURITY must be within [0, 1]")
	case c.Quote.Weight < 0:
		return errors.New("DEFAULT_WEIGHT must not be negative")
	case c.Quote.MakingPercent < 0:
		return errors.New("DEFAULT_MAKING_PERCENT must not be negative")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
