package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Verification engine
	MaxChecksPerHour int
	MinDelay         time.Duration
	MaxDelay         time.Duration
	RetryLimit       int
	CheckTimeout     time.Duration
	ProfileDir       string

	// Phone normalization
	CountryCode string
	LocalArea   string

	// Lead collection
	CampaignConfig string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "leads"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		MaxChecksPerHour: getEnvAsInt("MAX_CHECKS_PER_HOUR", 40),
		MinDelay:         getEnvAsDuration("MIN_DELAY_SECONDS", 5) * time.Second,
		MaxDelay:         getEnvAsDuration("MAX_DELAY_SECONDS", 10) * time.Second,
		RetryLimit:       getEnvAsInt("RETRY_LIMIT_PER_CANDIDATE", 1),
		CheckTimeout:     getEnvAsDuration("CHECK_TIMEOUT_SECONDS", 30) * time.Second,
		ProfileDir:       getEnv("PROFILE_DIR", "whatsapp_profile"),
		CountryCode:      getEnv("DEFAULT_COUNTRY_CODE", "52"),
		LocalArea:        getEnv("DEFAULT_LOCAL_AREA", "55"),
		CampaignConfig:   getEnv("CAMPAIGN_CONFIG", "campaign.yaml"),
	}
}

// PostgresDSN assembles the pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback))
}
