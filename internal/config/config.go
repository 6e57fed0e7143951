package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the scheduler bot.
type Config struct {
	TelegramToken       string
	DatabaseURL         string
	ReportInterval      time.Duration
	ReportTime          string // optional HH:MM; takes precedence over the interval
	DefaultDailyMinutes int    // nominal budget used when auto-regenerating without history
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:       strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportInterval:      parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		ReportTime:          strings.TrimSpace(os.Getenv("REPORT_TIME")),
		DefaultDailyMinutes: parseMinutes(strings.TrimSpace(os.Getenv("DEFAULT_DAILY_MINUTES"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "study_scheduler.db"
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.DefaultDailyMinutes == 0 {
		cfg.DefaultDailyMinutes = 120
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseMinutes(raw string) int {
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0
	}
	return minutes
}
