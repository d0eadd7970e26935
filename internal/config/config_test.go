package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Store:  StoreConfig{Path: "/var/lib/trophies"},
		Server: ServerConfig{UIDHeader: "X-Verified-Uid"},
		Search: SearchConfig{
			PageSize:          100,
			TTL:               24 * time.Hour,
			LookupBatchSize:   10,
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Trigger: TriggerConfig{MaxAttempts: 5, MaxConcurrent: 8},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Limits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty store path", func(c *Config) { c.Store.Path = "" }, "store path"},
		{"empty uid header", func(c *Config) { c.Server.UIDHeader = "" }, "uid header"},
		{"zero page size", func(c *Config) { c.Search.PageSize = 0 }, "page size"},
		{"lookup batch above store limit", func(c *Config) { c.Search.LookupBatchSize = 11 }, "lookup batch size"},
		{"zero ttl", func(c *Config) { c.Search.TTL = 0 }, "ttl"},
		{"zero rate", func(c *Config) { c.Search.RequestsPerSecond = 0 }, "rate limit"},
		{"zero attempts", func(c *Config) { c.Trigger.MaxAttempts = 0 }, "max attempts"},
		{"zero concurrency", func(c *Config) { c.Trigger.MaxConcurrent = 0 }, "max concurrent"},
		{"negative replay interval", func(c *Config) { c.Trigger.ReplayInterval = -time.Second }, "replay interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_InMemoryNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreConfig{InMemory: true}

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STORE_PATH", "")

	cfg, err := LoadConfig([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, filepath.Join(homeDir, "ClubTrophies", "data"), cfg.Store.Path)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "X-Verified-Uid", cfg.Server.UIDHeader)
	assert.Equal(t, 100, cfg.Search.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.Search.TTL)
	assert.Equal(t, 10, cfg.Search.LookupBatchSize)
	assert.Equal(t, time.Hour, cfg.Search.SweepInterval)
	assert.Equal(t, 5, cfg.Trigger.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Trigger.RetryBackoff)
	assert.Equal(t, 8, cfg.Trigger.MaxConcurrent)
	assert.Equal(t, 1000, cfg.Trigger.BufferSize)
	assert.Equal(t, time.Minute, cfg.Trigger.ReplayInterval)
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SEARCH_PAGE_SIZE", "50")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig([]string{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-port", "9100",
		"-store-in-memory", "true",
		"-search-ttl", "2h",
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "flag beats env")
	assert.Equal(t, 50, cfg.Search.PageSize, "env beats default")
	assert.Equal(t, 2*time.Hour, cfg.Search.TTL)
	assert.True(t, cfg.Store.InMemory)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	_, err := LoadConfig([]string{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-read-timeout", "soon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid read timeout")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	_, err := LoadConfig([]string{"-no-such-flag", "value"})
	assert.Error(t, err)
}

func TestExpandStorePath(t *testing.T) {
	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty uses default", "", filepath.Join(homeDir, "ClubTrophies", "data")},
		{"tilde", "~/trophies", filepath.Join(homeDir, "trophies")},
		{"absolute", "/absolute/path/to/data", "/absolute/path/to/data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: StoreConfig{Path: tt.path}}
			require.NoError(t, cfg.expandStorePath())
			assert.Equal(t, tt.expected, cfg.Store.Path)
		})
	}

	cfg := &Config{Store: StoreConfig{Path: "relative/path"}}
	require.NoError(t, cfg.expandStorePath())
	assert.True(t, filepath.IsAbs(cfg.Store.Path))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestTypedConfigValues(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "many")
	t.Setenv("TEST_FLOAT", "0.5")
	t.Setenv("TEST_BOOL", "YES")

	assert.Equal(t, 42, getIntConfigValue("", "TEST_INT", 1))
	assert.Equal(t, 1, getIntConfigValue("", "TEST_BAD_INT", 1))
	assert.InDelta(t, 0.5, getFloatConfigValue("", "TEST_FLOAT", 1), 1e-9)
	assert.True(t, getBoolConfigValue("", "TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("no", "TEST_BOOL", true))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `# Test env file
ENV=staging
LOG_LEVEL=debug

# Comment line
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
  KEY_WITH_SPACES  =  value with spaces  
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, key := range []string{"ENV", "LOG_LEVEL", "QUOTED_VALUE", "SINGLE_QUOTED", "KEY_WITH_SPACES"} {
		t.Setenv(key, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
	assert.Equal(t, "value with spaces", os.Getenv("KEY_WITH_SPACES"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}
