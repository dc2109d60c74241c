// Package config loads server configuration from flags, environment variables, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Server   ServerConfig
	Cache    CacheConfig
	Search   SearchConfig
	Assets   AssetsConfig
	Weather  WeatherConfig
	AI       AIConfig
	Mail     MailConfig
	Unsplash UnsplashConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // Root for the database, cache and index when their paths are unset.
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig holds the SQLite pool settings.
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	BaseURL        string // Public origin used in the sitemap.
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	SecureCookies  bool
}

// CacheConfig holds the page-view cache configuration.
type CacheConfig struct {
	Enabled  bool
	Path     string // Empty runs badger in memory.
	TTL      time.Duration
	InMemory bool
}

// SearchConfig holds the full-text index location.
type SearchConfig struct {
	Path string
}

// AssetsConfig holds the photo asset store locations.
type AssetsConfig struct {
	Path        string
	UploadQueue string
	PublicURL   string // URL prefix photos are served under.
}

// WeatherConfig holds the Open-Meteo client configuration.
type WeatherConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AIConfig holds the Gemini client configuration. An empty key disables AI features.
type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// MailConfig holds the Resend welcome-mail configuration.
type MailConfig struct {
	APIKey  string
	From    string
	BaseURL string
}

// UnsplashConfig holds the Unsplash photo search configuration.
type UnsplashConfig struct {
	AccessKey string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(flag.CommandLine, os.Args[1:])
}

// LoadConfigFrom is LoadConfig over an explicit flag set, so commands can
// register their own flags alongside the shared ones.
func LoadConfigFrom(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base directory for database, cache and index")
	dbPath := fs.String("db-path", "", "SQLite database file")
	dbMaxOpen := fs.String("db-max-open-conns", "", "Maximum open database connections (default: 4)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	baseURL := fs.String("base-url", "", "Public base URL of the site")
	origins := fs.String("allowed-origins", "", "Comma separated CORS origins")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	cacheEnabled := fs.String("cache-enabled", "", "Enable the page cache (default: true)")
	cachePath := fs.String("cache-path", "", "Page cache directory")
	cacheTTL := fs.String("cache-ttl", "", "Page cache entry lifetime (default: 5m)")

	searchPath := fs.String("search-path", "", "Search index directory")
	assetsPath := fs.String("assets-path", "", "Photo asset directory")
	uploadQueue := fs.String("upload-queue", "", "Manual upload queue directory")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path:         getConfigValue(*dbPath, "DB_PATH", ""),
			MaxOpenConns: getIntConfigValue(*dbMaxOpen, "DB_MAX_OPEN_CONNS", 4),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			BaseURL:        strings.TrimRight(getConfigValue(*baseURL, "BASE_URL", "https://beachatlas.com"), "/"),
			AllowedOrigins: splitList(getConfigValue(*origins, "ALLOWED_ORIGINS", "")),
		},
		Cache: CacheConfig{
			Enabled: getBoolConfigValue(*cacheEnabled, "CACHE_ENABLED", true),
			Path:    getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Search: SearchConfig{
			Path: getConfigValue(*searchPath, "SEARCH_PATH", ""),
		},
		Assets: AssetsConfig{
			Path:        getConfigValue(*assetsPath, "ASSETS_PATH", ""),
			UploadQueue: getConfigValue(*uploadQueue, "UPLOAD_QUEUE_PATH", ""),
			PublicURL:   strings.TrimRight(getConfigValue("", "ASSETS_PUBLIC_URL", "/assets"), "/"),
		},
		Weather: WeatherConfig{
			BaseURL: getConfigValue("", "WEATHER_BASE_URL", "https://api.open-meteo.com"),
		},
		AI: AIConfig{
			APIKey:  getConfigValue("", "GEMINI_API_KEY", ""),
			Model:   getConfigValue("", "GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL: getConfigValue("", "GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
		Mail: MailConfig{
			APIKey:  getConfigValue("", "RESEND_API_KEY", ""),
			From:    getConfigValue("", "MAIL_FROM", "BeachAtlas <hello@beachatlas.com>"),
			BaseURL: getConfigValue("", "RESEND_BASE_URL", "https://api.resend.com"),
		},
		Unsplash: UnsplashConfig{
			AccessKey: getConfigValue("", "UNSPLASH_ACCESS_KEY", ""),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*cacheTTL, "CACHE_TTL", "5m", &cfg.Cache.TTL},
		{"", "WEATHER_TIMEOUT", "3s", &cfg.Weather.Timeout},
		{"", "GEMINI_TIMEOUT", "10s", &cfg.AI.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	cfg.Server.SecureCookies = getBoolConfigValue("", "SECURE_COOKIES", cfg.App.Environment != "development")

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
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

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("db max open conns must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	if c.Server.BaseURL == "" {
		return errors.New("base url is required")
	}

	return nil
}

// expandPaths resolves the data directory and derives unset paths from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.App.DataPath, filepath.Join(homeDir, "BeachAtlas"))
	if err != nil {
		return err
	}
	c.App.DataPath = dataPath

	paths := []struct {
		dst *string
		def string
	}{
		{&c.Database.Path, filepath.Join(dataPath, "beachatlas.db")},
		{&c.Cache.Path, filepath.Join(dataPath, "cache")},
		{&c.Search.Path, filepath.Join(dataPath, "search")},
		{&c.Assets.Path, filepath.Join(dataPath, "assets")},
		{&c.Assets.UploadQueue, filepath.Join(dataPath, "upload_queue")},
	}
	for _, p := range paths {
		expanded, err := expandPath(*p.dst, p.def)
		if err != nil {
			return err
		}
		*p.dst = expanded
	}

	c.Cache.InMemory = c.Cache.Path == ":memory:"
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}
	if path == ":memory:" {
		return path, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
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
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
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
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
