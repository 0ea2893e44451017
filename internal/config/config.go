package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Retry    RetryConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

type CacheConfig struct {
	// RedisURL is optional; when empty the stats cache stays in-process.
	RedisURL string
	StatsTTL time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Retry: RetryConfig{
			MaxAttempts:   getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:     time.Duration(getEnvAsInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
			BackoffFactor: getEnvAsFloat("RETRY_BACKOFF_FACTOR", 2),
			MaxDelay:      time.Duration(getEnvAsInt("RETRY_MAX_DELAY_MS", 5000)) * time.Millisecond,
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			StatsTTL: time.Duration(getEnvAsInt("STATS_CACHE_TTL_SECONDS", 30)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
