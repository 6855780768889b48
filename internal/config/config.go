package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Blob storage
	UploadRoot string

	// LogDir mirrors logs to timestamped files when set
	LogDir string

	MetricsEnabled bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       getDuration("TOKEN_TTL", 24*time.Hour),
		UploadRoot:     getEnv("UPLOAD_ROOT", "./uploads"),
		LogDir:         getEnv("LOG_DIR", ""),
		MetricsEnabled: getBool("METRICS_ENABLED", env != "prod"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
