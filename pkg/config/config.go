package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabasePath       string
	ReminderWindowDays int
	ReminderSchedule   string // cron spec for the interest-due digest
	Env                string
}

// Load reads an optional .env file and returns the configuration with
// defaults applied.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on system env variables")
	}

	windowDays := 7
	if v := os.Getenv("REMINDER_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Warn("invalid REMINDER_WINDOW_DAYS, using default", "value", v, "default", windowDays)
		} else {
			windowDays = n
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "lendbook.db"),
		ReminderWindowDays: windowDays,
		ReminderSchedule:   getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		Env:                getEnv("ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
