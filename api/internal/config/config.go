package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	GeminiAPIKey string
	GeminiModel  string

	AnalysisIntervalSec int
	AnalyzeTimeoutSec   int
	ConfidenceThreshold float64
	DefaultConfidence   float64
	Strictness          string

	RateLimitMax       int
	RateLimitWindowSec int
	RateLimitSweepSec  int

	DatabaseURL string

	TelegramBotToken string
	TelegramChatID   int64
}

func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func Load() *Config {
	// .env is optional; system environment wins when the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		GeminiAPIKey: mustEnv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		AnalysisIntervalSec: getEnvInt("PROCTOR_ANALYSIS_INTERVAL_SEC", 2),
		AnalyzeTimeoutSec:   getEnvInt("PROCTOR_ANALYZE_TIMEOUT_SEC", 30),
		ConfidenceThreshold: getEnvFloat("PROCTOR_CONFIDENCE_THRESHOLD", 0.6),
		DefaultConfidence:   getEnvFloat("PROCTOR_DEFAULT_CONFIDENCE", 0.9),
		Strictness:          getEnv("PROCTOR_STRICTNESS", "moderate"),

		RateLimitMax:       getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		RateLimitSweepSec:  getEnvInt("RATE_LIMIT_SWEEP_SEC", 60),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
