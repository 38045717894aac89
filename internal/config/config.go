package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Sentinel/models"
)

// Load initializes configuration from environment variables
func Load() (*models.Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg models.Config

	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", "localhost:6379")
	cfg.TicksChannel = getEnvWithDefault("TICKS_CHANNEL", "ticks")
	cfg.SignalsChannel = getEnvWithDefault("SIGNALS_CHANNEL", "signals")
	cfg.RequestsList = getEnvWithDefault("REQUESTS_LIST", "protection:requests")
	cfg.ResponsesList = getEnvWithDefault("RESPONSES_LIST", "protection:responses")

	cfg.TickBufferSize = getEnvIntWithDefault("TICK_BUFFER_SIZE", 1000)
	cfg.CandleHistory = getEnvIntWithDefault("CANDLE_HISTORY", 500)
	cfg.ZoneCap = getEnvIntWithDefault("ZONE_CAP", 20)
	cfg.SwingLookback = getEnvIntWithDefault("SWING_LOOKBACK", 5)
	cfg.StructureWindow = getEnvIntWithDefault("STRUCTURE_WINDOW", 50)

	cfg.SweepBreachPips = getEnvFloatWithDefault("SWEEP_BREACH_PIPS", 3)
	cfg.SweepLookback = getEnvIntWithDefault("SWEEP_LOOKBACK", 5)
	cfg.SweepTTLHours = getEnvIntWithDefault("SWEEP_TTL_HOURS", 24)
	cfg.ZoneStaleHours = getEnvIntWithDefault("ZONE_STALE_HOURS", 24)

	cfg.MinSignalGapMin = getEnvIntWithDefault("MIN_SIGNAL_GAP_MIN", 15)
	cfg.DailySignalCap = getEnvIntWithDefault("DAILY_SIGNAL_CAP", 10)
	cfg.ConfidenceThreshold = getEnvFloatWithDefault("CONFIDENCE_THRESHOLD", 0.6)
	cfg.MinFactors = getEnvIntWithDefault("MIN_FACTORS", 3)

	cfg.MaintenanceIntervalMin = getEnvIntWithDefault("MAINTENANCE_INTERVAL_MIN", 5)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	return &cfg, nil
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntWithDefault returns environment variable as int or default if not set/invalid
func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer value in environment, using default")
	}
	return defaultValue
}

// getEnvFloatWithDefault returns environment variable as float64 or default if not set/invalid
func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid float value in environment, using default")
	}
	return defaultValue
}
