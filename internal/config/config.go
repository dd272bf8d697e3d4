package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	Storage     string // "postgres" or "memory"
	TablePrefix string
	CORSOrigins string
	// CRM entity source
	CRMBaseURL  string
	CRMAPIToken string
	// Auth
	AuthJWKSURL string // empty disables bearer auth (dev only)
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Storage:     getEnv("STORAGE", "postgres"),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		CRMBaseURL:  getEnv("CRM_BASE_URL", ""),
		CRMAPIToken: getEnv("CRM_API_TOKEN", ""),
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		Debug:       getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
