package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Path: "/data/beachatlas.db", MaxOpenConns: 4},
		Server:   ServerConfig{BaseURL: "https://beachatlas.com"},
		Cache:    CacheConfig{TTL: time.Minute},
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
		{"DEBUG", true},
		{"trace", false},
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

func TestValidate_Pool(t *testing.T) {
	cfg := validConfig()
	cfg.Database.MaxOpenConns = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max open conns")
}

func TestValidate_EmptyDatabasePath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path cannot be empty")
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("CACHE_PATH", "")
	t.Setenv("SEARCH_PATH", "")
	t.Setenv("ASSETS_PATH", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("SECURE_COOKIES", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadConfigFrom(fs, []string{"-data-path", dataDir, "-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, filepath.Join(dataDir, "beachatlas.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(dataDir, "cache"), cfg.Cache.Path)
	assert.Equal(t, filepath.Join(dataDir, "search"), cfg.Search.Path)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3*time.Second, cfg.Weather.Timeout)
	assert.False(t, cfg.Server.SecureCookies, "development serves cookies without Secure")
}

func TestLoadConfigFrom_FlagBeatsEnv(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadConfigFrom(fs, []string{
		"-data-path", dataDir,
		"-port", "7000",
		"-env-file", filepath.Join(dataDir, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Server.SecureCookies)
}

func TestLoadConfigFrom_InvalidDuration(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("CACHE_TTL", "soon")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := LoadConfigFrom(fs, []string{"-data-path", dataDir, "-env-file", filepath.Join(dataDir, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_ttl")
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/beaches", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "beaches"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/path", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	got, err = expandPath(":memory:", "")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", got)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY_FOR_TEST", "default-value"))
}

func TestGetIntConfigValue_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "many")
	assert.Equal(t, 4, getIntConfigValue("", "TEST_INT_KEY", 4))
	assert.Equal(t, 8, getIntConfigValue("8", "TEST_INT_KEY", 4))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# comment
DB_PATH_FROM_FILE=/tmp/beach.db

QUOTED_VALUE="some value"
  SPACED_KEY  =  spaced value
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("DB_PATH_FROM_FILE", "")
	t.Setenv("QUOTED_VALUE", "")
	t.Setenv("SPACED_KEY", "")

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "/tmp/beach.db", os.Getenv("DB_PATH_FROM_FILE"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "spaced value", os.Getenv("SPACED_KEY"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_VAR=new-value"), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE\n"), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
