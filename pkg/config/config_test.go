package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WTAG_JWT_SECRET", "s3cret")
	t.Setenv("WTAG_STORAGE_TYPE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(32*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 256, cfg.Images.ThumbnailSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.MetricsEnabled)
	assert.Empty(t, cfg.Schedule.MaintenanceCron)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WTAG_JWT_SECRET", "s3cret")
	t.Setenv("WTAG_STORAGE_TYPE", "postgres")
	t.Setenv("WTAG_POSTGRES_URL", "postgres://localhost/wtag")
	t.Setenv("WTAG_S3_BUCKET", "images")
	t.Setenv("WTAG_S3_USE_PATH_STYLE", "true")
	t.Setenv("WTAG_PORT", "9999")
	t.Setenv("WTAG_THUMBNAIL_SIZE", "128")
	t.Setenv("WTAG_READ_TIMEOUT", "5s")
	t.Setenv("WTAG_MAINTENANCE_CRON", "@daily")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 128, cfg.Images.ThumbnailSize)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Storage.S3UsePathStyle)
	assert.Equal(t, "@daily", cfg.Schedule.MaintenanceCron)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "8080"},
			Storage: StorageConfig{Type: "memory"},
			Auth:    AuthConfig{JWTSecret: "s"},
			Images:  ImagesConfig{ThumbnailSize: 256},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid memory", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "WTAG_JWT_SECRET"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "port"},
		{"thumbnail too small", func(c *Config) { c.Images.ThumbnailSize = 8 }, "out of range"},
		{"thumbnail too large", func(c *Config) { c.Images.ThumbnailSize = 5000 }, "out of range"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "dynamo" }, "invalid storage type"},
		{"postgres without url", func(c *Config) { c.Storage.Type = "postgres" }, "WTAG_POSTGRES_URL"},
		{"postgres without bucket", func(c *Config) {
			c.Storage.Type = "postgres"
			c.Storage.PostgresURL = "postgres://x"
		}, "WTAG_S3_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
