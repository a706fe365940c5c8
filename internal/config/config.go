package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the debate service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	CompletionMode    string
	CompletionURL     string
	CompletionAPIKey  string
	CompletionTimeout time.Duration

	MaxRetries        int
	MaxTokens         int
	Temperature       float64
	JitterMax         time.Duration
	ResponseCharLimit int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "discourse"),
		AllowAnyOrigin:    false,
		DatabaseURL:       envTrimmed("DATABASE_URL"),
		CompletionMode:    envOrDefault("AI_COMPLETION_MODE", "auto"),
		CompletionURL:     envTrimmed("AI_COMPLETION_URL"),
		CompletionAPIKey:  envTrimmed("AI_API_KEY"),
		CompletionTimeout: 60 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		MaxRetries:        10,
		MaxTokens:         500,
		Temperature:       0.7,
		JitterMax:         500 * time.Millisecond,
		ResponseCharLimit: 200,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("AI_REQUEST_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JitterMax, err = durationFromEnv("AI_JITTER_MAX", cfg.JitterMax)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxRetries, err = intFromEnv("AI_MAX_RETRIES", cfg.MaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTokens, err = intFromEnv("AI_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.ResponseCharLimit, err = intFromEnv("AI_RESPONSE_CHAR_LIMIT", cfg.ResponseCharLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.Temperature, err = floatFromEnv("AI_TEMPERATURE", cfg.Temperature)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.MaxRetries < 1 {
		return Config{}, fmt.Errorf("AI_MAX_RETRIES must be at least 1")
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("AI_MAX_TOKENS must be positive")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return Config{}, fmt.Errorf("AI_TEMPERATURE must be in [0, 2]")
	}
	if cfg.JitterMax < 0 {
		return Config{}, fmt.Errorf("AI_JITTER_MAX must not be negative")
	}
	if cfg.ResponseCharLimit <= 0 {
		return Config{}, fmt.Errorf("AI_RESPONSE_CHAR_LIMIT must be positive")
	}
	if cfg.CompletionTimeout <= 0 {
		return Config{}, fmt.Errorf("AI_REQUEST_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
