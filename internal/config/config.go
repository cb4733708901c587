// Package config loads application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by storage.NewConnector.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
	DriverLocal = "local"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port      string
	AppEnv    string
	LogLevel  string
	JWTSecret string // empty disables auth on mutating routes

	Storage StorageConfig
	Upload  UploadConfig
	Gallery GalleryConfig
	Session SessionConfig
}

// StorageConfig describes how to reach the object store.
type StorageConfig struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	// PublicBase is the browser-accessible base URL; object URLs are
	// "<PublicBase>/<container>/<name>".
	PublicBase string
	LocalDir   string

	DefaultContainer string
	ListMaxResults   int
	ListCacheTTL     time.Duration
	ListCacheSize    int
}

// UploadConfig holds the client-side validation inputs for the upload widgets.
type UploadConfig struct {
	AllowedTypes []string
	MaxSizeMB    int
	MaxFiles     int
	BodyLimitMB  int
}

// GalleryConfig configures the gallery browser.
type GalleryConfig struct {
	MaxImages       int
	RefreshInterval time.Duration // 0 disables polling
}

// SessionConfig bounds the in-memory upload session registry.
type SessionConfig struct {
	TTL time.Duration
	Max int
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", DriverMinio)),
			Endpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:  getEnv("STORAGE_SECRET_KEY", ""),
			Region:     getEnv("STORAGE_REGION", "us-east-1"),
			UseSSL:     getEnv("STORAGE_USE_SSL", "false") == "true",
			PublicBase: getEnv("STORAGE_PUBLIC_BASE", "http://localhost:9000"),
			LocalDir:   getEnv("STORAGE_LOCAL_DIR", ""),

			DefaultContainer: getEnv("DEFAULT_CONTAINER", "product-dashboard"),
			ListMaxResults:   getEnvInt("LIST_MAX_RESULTS", 50),
			ListCacheTTL:     getEnvDuration("LIST_CACHE_TTL", 10*time.Second),
			ListCacheSize:    getEnvInt("LIST_CACHE_SIZE", 128),
		},
		Upload: UploadConfig{
			AllowedTypes: getEnvList("UPLOAD_ALLOWED_TYPES", []string{"image/jpeg", "image/png", "image/gif", "image/webp"}),
			MaxSizeMB:    getEnvInt("UPLOAD_MAX_SIZE_MB", 5),
			MaxFiles:     getEnvInt("UPLOAD_MAX_FILES", 10),
			BodyLimitMB:  getEnvInt("UPLOAD_BODY_LIMIT_MB", 8),
		},
		Gallery: GalleryConfig{
			MaxImages:       getEnvInt("GALLERY_MAX_IMAGES", 20),
			RefreshInterval: getEnvDuration("GALLERY_REFRESH_INTERVAL", 0),
		},
		Session: SessionConfig{
			TTL: getEnvDuration("SESSION_TTL", 30*time.Minute),
			Max: getEnvInt("SESSION_MAX", 1000),
		},
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// BodyLimitBytes is the maximum accepted request body for uploads.
func (c *Config) BodyLimitBytes() int64 {
	return int64(c.Upload.BodyLimitMB) * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("15s", "2m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
