// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Store   StoreConfig
	Server  ServerConfig
	Search  SearchConfig
	Trigger TriggerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	Path     string // Badger directory (default: ~/ClubTrophies/data)
	InMemory bool   // Keep everything in memory, nothing survives a restart (default: false)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: *)
	// UIDHeader carries the viewer uid verified by the identity layer in front of us.
	UIDHeader string // (default: X-Verified-Uid)
}

// SearchConfig holds federated search configuration.
type SearchConfig struct {
	PageSize          int           // Results per page document (default: 100)
	TTL               time.Duration // Lifetime of a built search (default: 24h)
	LookupBatchSize   int           // Ids per identifier-set lookup, at most 10 (default: 10)
	SweepInterval     time.Duration // How often expired searches are removed (default: 1h)
	RequestsPerSecond float64       // Search creations per viewer per second (default: 1)
	Burst             int           // Search creation burst per viewer (default: 5)
}

// TriggerConfig holds reactive handler dispatch configuration.
type TriggerConfig struct {
	MaxAttempts    int           // Attempts per change (default: 5)
	RetryBackoff   time.Duration // First retry delay, doubled per attempt (default: 250ms)
	MaxConcurrent  int           // Changes handled at once (default: 8)
	BufferSize     int           // Queued changes (default: 1000)
	ReplayInterval time.Duration // How often unacknowledged changes are replayed (default: 1m)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("club-trophies", flag.ContinueOnError)

	// Define command-line flags.
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	// Store flags
	storePath := fs.String("store-path", "", "Directory for the document store")
	storeInMemory := fs.String("store-in-memory", "", "Keep the document store in memory (default: false)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS origins (default: *)")
	uidHeader := fs.String("uid-header", "", "Header carrying the verified viewer uid (default: X-Verified-Uid)")

	// Search flags
	pageSize := fs.String("search-page-size", "", "Results per search page (default: 100)")
	searchTTL := fs.String("search-ttl", "", "Lifetime of a built search (default: 24h)")
	sweepInterval := fs.String("search-sweep-interval", "", "Expired search sweep interval (default: 1h)")

	// Trigger flags
	maxAttempts := fs.String("trigger-max-attempts", "", "Attempts per document change (default: 5)")
	maxConcurrent := fs.String("trigger-max-concurrent", "", "Document changes handled at once (default: 8)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Path:     getConfigValue(*storePath, "STORE_PATH", ""),
			InMemory: getBoolConfigValue(*storeInMemory, "STORE_IN_MEMORY", false),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "SERVER_ALLOWED_ORIGINS", "*")),
			UIDHeader:      getConfigValue(*uidHeader, "SERVER_UID_HEADER", "X-Verified-Uid"),
		},
		Search: SearchConfig{
			PageSize:          getIntConfigValue(*pageSize, "SEARCH_PAGE_SIZE", 100),
			LookupBatchSize:   getIntConfigValue("", "SEARCH_LOOKUP_BATCH_SIZE", 10),
			RequestsPerSecond: getFloatConfigValue("", "SEARCH_REQUESTS_PER_SECOND", 1),
			Burst:             getIntConfigValue("", "SEARCH_BURST", 5),
		},
		Trigger: TriggerConfig{
			MaxAttempts:   getIntConfigValue(*maxAttempts, "TRIGGER_MAX_ATTEMPTS", 5),
			MaxConcurrent: getIntConfigValue(*maxConcurrent, "TRIGGER_MAX_CONCURRENT", 8),
			BufferSize:    getIntConfigValue("", "TRIGGER_BUFFER_SIZE", 1000),
		},
	}

	// Parse durations.
	durations := []struct {
		dest  *time.Duration
		flag  string
		env   string
		def   string
		label string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Search.TTL, *searchTTL, "SEARCH_TTL", "24h", "search ttl"},
		{&cfg.Search.SweepInterval, *sweepInterval, "SEARCH_SWEEP_INTERVAL", "1h", "search sweep interval"},
		{&cfg.Trigger.RetryBackoff, "", "TRIGGER_RETRY_BACKOFF", "250ms", "trigger retry backoff"},
		{&cfg.Trigger.ReplayInterval, "", "TRIGGER_REPLAY_INTERVAL", "1m", "trigger replay interval"},
	}
	for _, d := range durations {
		value := getConfigValue(d.flag, d.env, d.def)
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.label, value, err)
		}
		*d.dest = parsed
	}

	// Expand and validate store path.
	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Store.Path == "" && !c.Store.InMemory {
		return errors.New("store path cannot be empty after expansion")
	}

	if c.Server.UIDHeader == "" {
		return errors.New("uid header cannot be empty")
	}

	if c.Search.PageSize < 1 {
		return fmt.Errorf("invalid search page size: %d (must be positive)", c.Search.PageSize)
	}
	if c.Search.LookupBatchSize < 1 || c.Search.LookupBatchSize > 10 {
		return fmt.Errorf("invalid lookup batch size: %d (must be between 1 and 10)", c.Search.LookupBatchSize)
	}
	if c.Search.TTL <= 0 {
		return errors.New("search ttl must be positive")
	}
	if c.Search.RequestsPerSecond <= 0 || c.Search.Burst < 1 {
		return errors.New("search rate limit must be positive")
	}

	if c.Trigger.MaxAttempts < 1 {
		return fmt.Errorf("invalid trigger max attempts: %d (must be at least 1)", c.Trigger.MaxAttempts)
	}
	if c.Trigger.MaxConcurrent < 1 {
		return fmt.Errorf("invalid trigger max concurrent: %d (must be at least 1)", c.Trigger.MaxConcurrent)
	}
	if c.Trigger.ReplayInterval < 0 {
		return errors.New("trigger replay interval must not be negative")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStorePath expands ~ and makes the path absolute.
// An in-memory store needs no path.
func (c *Config) expandStorePath() error {
	if c.Store.InMemory {
		return nil
	}

	expanded, err := ExpandStorePath(c.Store.Path)
	if err != nil {
		return err
	}
	c.Store.Path = expanded
	return nil
}

// ExpandStorePath resolves a store directory the way LoadConfig does:
// empty means ~/ClubTrophies/data, ~ is expanded and the result is absolute.
func ExpandStorePath(path string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return expandPath(path, filepath.Join(homeDir, "ClubTrophies", "data"))
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
