package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreSQLite = "sqlite"
	StoreJSON   = "json"
	StoreMemory = "memory"
)

// Config is the process-wide configuration, read once at startup.
type Config struct {
	Port int

	TelegramToken    string
	AdminID          string
	WebhookURL       string
	WebhookSecret    string
	NotifyRatePerSec float64

	StoreDriver string
	StorePath   string

	CommunityName     string
	FeeAmount         string
	BillingPeriodDays int
	Location          *time.Location

	LineChannelSecret string
	LineChannelToken  string
	LineAdminUserID   string

	LogLevel  string
	LogFormat string

	OTLPEndpoint string
}

// LineMirrorEnabled reports whether admin alerts should also go to LINE.
func (c *Config) LineMirrorEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelToken != "" && c.LineAdminUserID != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:     getenv("TELEGRAM_BOT_TOKEN"),
		AdminID:           strings.TrimSpace(getenv("ADMIN_ID")),
		WebhookURL:        getenv("TELEGRAM_WEBHOOK_URL"),
		WebhookSecret:     getenv("TELEGRAM_WEBHOOK_SECRET"),
		StoreDriver:       strings.ToLower(withDefault(getenv("STORE_DRIVER"), StoreSQLite)),
		StorePath:         getenv("STORE_PATH"),
		CommunityName:     withDefault(getenv("COMMUNITY_NAME"), "Ride Marches"),
		FeeAmount:         withDefault(getenv("FEE_AMOUNT"), "50 ETB"),
		LineChannelSecret: getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		LineAdminUserID:   getenv("LINE_ADMIN_USER_ID"),
		LogLevel:          withDefault(getenv("LOG_LEVEL"), "info"),
		LogFormat:         withDefault(getenv("LOG_FORMAT"), "json"),
		OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.Port, err = intVar(getenv, "PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.BillingPeriodDays, err = intVar(getenv, "BILLING_PERIOD_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.BillingPeriodDays < 2 {
		return nil, fmt.Errorf("BILLING_PERIOD_DAYS must be at least 2, got %d", cfg.BillingPeriodDays)
	}
	if cfg.NotifyRatePerSec, err = floatVar(getenv, "NOTIFY_RATE_PER_SECOND", 25); err != nil {
		return nil, err
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable must be set")
	}
	if cfg.AdminID == "" {
		return nil, fmt.Errorf("ADMIN_ID environment variable must be set")
	}
	if _, err := strconv.ParseInt(cfg.AdminID, 10, 64); err != nil {
		return nil, fmt.Errorf("ADMIN_ID must be numeric: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreSQLite:
		cfg.StorePath = withDefault(cfg.StorePath, "members.db")
	case StoreJSON:
		cfg.StorePath = withDefault(cfg.StorePath, "members.json")
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.Location = time.Local
	if name := getenv("TZ_LOCATION"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ_LOCATION %q: %w", name, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func floatVar(getenv func(string) string, key string, def float64) (float64, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return f, nil
}
