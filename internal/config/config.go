package config

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	RedisURL    string
	LogLevel    string
	Environment string
	CORSOrigins string

	// Google OAuth client used for the owner's session.
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// PostLoginRedirect is where the browser lands after the OAuth callback.
	PostLoginRedirect string

	// AIBackend selects the prompt executor: "relay" or "gemini".
	AIBackend       string
	RelayURL        string
	RelayRatePerSec float64
	GeminiAPIKey    string
	GeminiModel     string

	// CurrencyRate converts the Analytics API base currency (USD) into
	// CurrencyCode. It is a fixed placeholder, not a live exchange rate.
	CurrencyCode string
	CurrencyRate float64
	DefaultRPM   float64

	ReportWindowDays int
	RankingPageSize  int
	RefreshInterval  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		PostLoginRedirect:  getEnv("POST_LOGIN_REDIRECT", "/"),

		AIBackend:       getEnv("AI_BACKEND", "relay"),
		RelayURL:        getEnv("RELAY_URL", ""),
		RelayRatePerSec: getEnvFloat("RELAY_RATE_PER_SEC", 1),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		CurrencyCode: getEnv("CURRENCY_CODE", "JPY"),
		CurrencyRate: getEnvFloat("CURRENCY_RATE", 150),
		DefaultRPM:   getEnvNonNegativeFloat("DEFAULT_RPM", 500),

		ReportWindowDays: getEnvInt("REPORT_WINDOW_DAYS", 28),
		RankingPageSize:  getEnvInt("RANKING_PAGE_SIZE", 50),
		RefreshInterval:  getEnvDuration("REFRESH_INTERVAL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getEnvFloat accepts only finite values > 0.
func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

// getEnvNonNegativeFloat is getEnvFloat but also accepts zero.
func getEnvNonNegativeFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
