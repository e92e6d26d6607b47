// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthConfig holds authentication and identity provider configuration.
type AuthConfig struct {
	IssuerURL string // OIDC issuer URL for .well-known discovery
	Audience  string // required JWT audience claim when OIDC is used
	JWTSecret string // HS256 shared secret for local/dev JWT auth
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL == "" && a.JWTSecret == "" {
		return fmt.Errorf("at least one of AUTH_ISSUER_URL or JWT_SECRET must be set")
	}
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// StorageConfig selects and parameterizes the blob backend for uploaded
// analyzer files.
type StorageConfig struct {
	Backend string // local (default), s3, gcs, azure

	LocalDir string // local backend root directory

	S3Endpoint string
	S3Region   string
	S3KeyID    string
	S3Secret   string
	S3Bucket   string

	GCSKeyFilePath string
	GCSBucket      string

	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
}

// Validate checks that the selected backend has its required fields.
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case "", "local":
		return nil
	case "s3":
		if s.S3Region == "" || s.S3KeyID == "" || s.S3Secret == "" || s.S3Bucket == "" {
			return fmt.Errorf("s3 storage requires S3_REGION, S3_KEY_ID, S3_SECRET and S3_BUCKET")
		}
	case "gcs":
		if s.GCSBucket == "" {
			return fmt.Errorf("gcs storage requires GCS_BUCKET")
		}
	case "azure":
		if s.AzureAccountName == "" || s.AzureAccountKey == "" || s.AzureContainer == "" {
			return fmt.Errorf("azure storage requires AZURE_ACCOUNT_NAME, AZURE_ACCOUNT_KEY and AZURE_CONTAINER")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	return nil
}

// Config holds the configuration for the HTTP API and the metadata store.
type Config struct {
	MetaDBPath    string // path to SQLite metadata file (default "lineagehub.sqlite")
	ReadPoolSize  int    // read connection pool size (default 4)
	ListenAddr    string // HTTP listen address (default ":8080")
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"
	MaxUploadMB   int64  // reject uploads larger than this (default 64)
	GraphCacheLen int    // merged-graph LRU entries (default 128)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Retention of soft-deleted files.
	RetentionWindow   time.Duration // age before hard delete (default 720h)
	RetentionSchedule string        // cron expression for the sweep (default @hourly)

	// Auth holds identity provider and authentication configuration.
	Auth AuthConfig

	// Storage selects the blob backend for uploaded files.
	Storage StorageConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath: os.Getenv("META_DB_PATH"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
	}

	if v := os.Getenv("READ_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReadPoolSize = n
		}
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadMB = n
		}
	}
	if v := os.Getenv("GRAPH_CACHE_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GraphCacheLen = n
		}
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Retention
	cfg.RetentionSchedule = os.Getenv("RETENTION_SCHEDULE")
	if v := os.Getenv("RETENTION_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RETENTION_WINDOW %q: %w", v, err)
		}
		cfg.RetentionWindow = d
	}

	// Auth config
	cfg.Auth = AuthConfig{
		IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
		Audience:  os.Getenv("AUTH_AUDIENCE"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	// Storage config
	cfg.Storage = StorageConfig{
		Backend:          strings.ToLower(os.Getenv("STORAGE_BACKEND")),
		LocalDir:         os.Getenv("STORAGE_LOCAL_DIR"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3Region:         os.Getenv("S3_REGION"),
		S3KeyID:          os.Getenv("S3_KEY_ID"),
		S3Secret:         os.Getenv("S3_SECRET"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		GCSKeyFilePath:   os.Getenv("GCS_KEY_FILE"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer:   os.Getenv("AZURE_CONTAINER"),
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "lineagehub.sqlite"
	}
	if cfg.ReadPoolSize == 0 {
		cfg.ReadPoolSize = 4
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = 64
	}
	if cfg.GraphCacheLen == 0 {
		cfg.GraphCacheLen = 128
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.RetentionWindow == 0 {
		cfg.RetentionWindow = 30 * 24 * time.Hour
	}
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = "@hourly"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.Backend == "local" && cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "lineagehub_files"
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Auth.OIDCEnabled() {
		cfg.Auth.JWTSecret = "dev-secret-change-in-production"
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set — using insecure default. Set JWT_SECRET or AUTH_ISSUER_URL in production!")
	}

	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.Auth.JWTSecret == "dev-secret-change-in-production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
