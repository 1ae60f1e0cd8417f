package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// AIProvider selects the chat completion backend: "openai" or "anthropic".
	AIProvider      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	DatabaseURL           string
	GoogleCredentialsFile string
	GoogleTokenFile       string

	DefaultTimezone string
	StrictTimezones bool
	DefaultYear     int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment variables")
	}

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		AIProvider:            getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		DatabaseURL:           os.Getenv("DB_URL"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleTokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
		DefaultTimezone:       getEnv("DEFAULT_TIMEZONE", "UTC"),
		StrictTimezones:       getBoolEnv("STRICT_TIMEZONES", false),
		DefaultYear:           getIntEnv("DEFAULT_YEAR", 2026),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("[ERROR] Invalid boolean for %s: %q, using default", key, value)
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[ERROR] Invalid integer for %s: %q, using default", key, value)
		return fallback
	}
	return parsed
}
