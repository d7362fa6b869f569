package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/plexsage/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port          string
	DBPath        string
	PlexURL       string
	PlexToken     string
	PlexLibrary   string
	LLMURL        string
	LLMAPIKey     string
	LLMModel      string
	LogLevel      string
	LogFormat     string
	CacheMaxAge   time.Duration
	SyncBatchSize int
	MaxTracksToAI int

	parseErrors []string
}

// Load reads .env files (a missing default .env is ignored; explicitly named
// files must exist) and then the environment, applying defaults. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	c := &Config{
		Port:        getEnv("PORT", constants.DefaultPort),
		DBPath:      getEnv("DB_PATH", constants.DefaultDBPath),
		PlexURL:     strings.TrimRight(getEnv("PLEX_URL", constants.DefaultPlexURL), "/"),
		PlexToken:   getEnv("PLEX_TOKEN", ""),
		PlexLibrary: getEnv("PLEX_LIBRARY", constants.DefaultPlexLibrary),
		LLMURL:      strings.TrimRight(getEnv("LLM_URL", constants.DefaultLLMURL), "/"),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMModel:    getEnv("LLM_MODEL", constants.DefaultLLMModel),
		LogLevel:    getEnv("LOG_LEVEL", constants.DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", constants.DefaultLogFormat),
	}
	c.CacheMaxAge = c.getEnvDuration("CACHE_MAX_AGE", constants.DefaultCacheMaxAge)
	c.SyncBatchSize = c.getEnvInt("SYNC_BATCH_SIZE", constants.DefaultSyncBatchSize)
	c.MaxTracksToAI = c.getEnvInt("MAX_TRACKS_TO_AI", constants.DefaultMaxTracksToAI)

	return c, nil
}

// LLMConfigured reports whether the curator can reach a model.
func (c *Config) LLMConfigured() bool {
	return c.LLMURL != "" && c.LLMAPIKey != ""
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.PlexURL == "" {
		errors = append(errors, "PLEX_URL cannot be empty")
	} else if u, err := url.Parse(c.PlexURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("PLEX_URL is not a valid URL: %s", c.PlexURL))
	}

	if c.PlexToken == "" {
		errors = append(errors, "PLEX_TOKEN cannot be empty")
	}

	if c.PlexLibrary == "" {
		errors = append(errors, "PLEX_LIBRARY cannot be empty")
	}

	if c.LLMURL != "" {
		if u, err := url.Parse(c.LLMURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("LLM_URL is not a valid URL: %s", c.LLMURL))
		}
	}

	if c.CacheMaxAge <= 0 {
		errors = append(errors, fmt.Sprintf("CACHE_MAX_AGE must be positive, got: %v", c.CacheMaxAge))
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("SYNC_BATCH_SIZE must be at least 1, got: %d", c.SyncBatchSize))
	}

	if c.MaxTracksToAI < 0 {
		errors = append(errors, fmt.Sprintf("MAX_TRACKS_TO_AI cannot be negative, got: %d", c.MaxTracksToAI))
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (c *Config) getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a valid number, got: %s", key, raw))
		return fallback
	}
	return v
}

// getEnvDuration accepts Go durations ("12h") or a bare number of seconds.
func (c *Config) getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a duration, got: %s", key, raw))
		return fallback
	}
	return d
}
