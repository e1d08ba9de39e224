// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	AviationStackAPIKey  string
	AviationStackBaseURL string
	ProviderTimeout      time.Duration

	OllamaURL         string
	OllamaModel       string
	ClassifierTimeout time.Duration

	HomeAirport     string
	BoardLimit      int
	PollInterval    time.Duration
	PollConcurrency int

	MetricsAddr string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first; variables already
// set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	apiKey := os.Getenv("AVIATIONSTACK_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("AVIATIONSTACK_API_KEY is required")
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	providerTimeout, err := durationEnv("PROVIDER_TIMEOUT", 10*time.Second, time.Millisecond)
	if err != nil {
		return nil, err
	}
	classifierTimeout, err := durationEnv("CLASSIFIER_TIMEOUT", 5*time.Second, time.Millisecond)
	if err != nil {
		return nil, err
	}
	pollInterval, err := durationEnv("POLL_INTERVAL", 3*time.Minute, time.Second)
	if err != nil {
		return nil, err
	}

	boardLimit, err := intEnv("BOARD_LIMIT", 10, 1, 100)
	if err != nil {
		return nil, err
	}
	concurrency, err := intEnv("POLL_CONCURRENCY", 4, 1, 64)
	if err != nil {
		return nil, err
	}

	home := strings.ToUpper(strings.TrimSpace(envOrDefault("HOME_AIRPORT", "FCO")))
	if !isIATAAirport(home) {
		return nil, fmt.Errorf("HOME_AIRPORT must be a 3-letter IATA code, got %q", home)
	}

	ollamaURL, ok := os.LookupEnv("OLLAMA_URL")
	if !ok {
		ollamaURL = "http://localhost:11434"
	}

	metricsAddr, ok := os.LookupEnv("METRICS_ADDR")
	if !ok {
		metricsAddr = ":9090"
	}

	return &Config{
		TelegramBotToken:     token,
		DatabasePath:         envOrDefault("DATABASE_PATH", "./data/airports.db"),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		AllowedUsers:         allowedUsers,
		AviationStackAPIKey:  apiKey,
		AviationStackBaseURL: strings.TrimRight(envOrDefault("AVIATIONSTACK_BASE_URL", "http://api.aviationstack.com/v1"), "/"),
		ProviderTimeout:      providerTimeout,
		OllamaURL:            strings.TrimRight(ollamaURL, "/"),
		OllamaModel:          envOrDefault("OLLAMA_MODEL", "tinyllama"),
		ClassifierTimeout:    classifierTimeout,
		HomeAirport:          home,
		BoardLimit:           boardLimit,
		PollInterval:         pollInterval,
		PollConcurrency:      concurrency,
		MetricsAddr:          metricsAddr,
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// ClassifierEnabled reports whether the natural-language fallback is configured.
func (c *Config) ClassifierEnabled() bool {
	return c.OllamaURL != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def, minimum time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < minimum {
		return 0, fmt.Errorf("%s must be at least %s, got %s", key, minimum, d)
	}
	return d, nil
}

func intEnv(key string, def, lo, hi int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d, got %q", key, lo, hi, raw)
	}
	return v, nil
}

func isIATAAirport(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
