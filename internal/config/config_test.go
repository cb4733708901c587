package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "STORAGE_DRIVER", "STORAGE_ACCESS_KEY", "DEFAULT_CONTAINER",
		"UPLOAD_ALLOWED_TYPES", "UPLOAD_MAX_SIZE_MB", "GALLERY_REFRESH_INTERVAL", "LIST_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMinio, cfg.Storage.Driver)
	assert.Empty(t, cfg.Storage.AccessKey)
	assert.Equal(t, "product-dashboard", cfg.Storage.DefaultContainer)
	assert.Equal(t, 50, cfg.Storage.ListMaxResults)
	assert.Equal(t, 10*time.Second, cfg.Storage.ListCacheTTL)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/gif", "image/webp"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 5, cfg.Upload.MaxSizeMB)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(8*1024*1024), cfg.BodyLimitBytes())
	assert.Equal(t, 20, cfg.Gallery.MaxImages)
	assert.Zero(t, cfg.Gallery.RefreshInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("UPLOAD_ALLOWED_TYPES", " image/png , ,image/webp")
	t.Setenv("UPLOAD_MAX_SIZE_MB", "2")
	t.Setenv("GALLERY_REFRESH_INTERVAL", "30")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	require.Equal(t, DriverS3, cfg.Storage.Driver)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, []string{"image/png", "image/webp"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 2, cfg.Upload.MaxSizeMB)
	assert.Equal(t, 30*time.Second, cfg.Gallery.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("UPLOAD_MAX_FILES", "lots")
	t.Setenv("LIST_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, 10*time.Second, cfg.Storage.ListCacheTTL)
}
