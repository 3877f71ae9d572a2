// Package config loads all server configuration from WTAG_-prefixed
// environment variables and validates it before anything starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Images   ImagesConfig
	Logging  LoggingConfig
	Schedule ScheduleConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// StorageConfig selects and configures the persistence backends
type StorageConfig struct {
	// Type is "postgres" (PostgreSQL metadata + S3 blobs) or "memory"
	// (single-process, volatile; development and tests only)
	Type string

	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	// S3PublicBaseURL overrides the derived public URL prefix, for
	// CDN-fronted buckets
	S3PublicBaseURL string
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	// JWTSecret signs identity tokens; the process refuses to start
	// without one
	JWTSecret string
}

// ImagesConfig holds image processing configuration
type ImagesConfig struct {
	// ThumbnailSize is the square canvas edge for thumbnails, in pixels
	ThumbnailSize int
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level          string
	MetricsEnabled bool
}

// ScheduleConfig holds the in-process maintenance scheduler configuration
type ScheduleConfig struct {
	// MaintenanceCron is a cron expression for the thumbnail/dedup
	// maintenance passes; empty disables the scheduler
	MaintenanceCron string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("WTAG_HOST", "0.0.0.0"),
			Port:            getEnv("WTAG_PORT", "8080"),
			ReadTimeout:     getEnvDuration("WTAG_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("WTAG_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("WTAG_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("WTAG_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadBytes:  getEnvInt64("WTAG_MAX_UPLOAD_BYTES", 32*1024*1024),
		},
		Storage: StorageConfig{
			Type:             getEnv("WTAG_STORAGE_TYPE", "postgres"),
			PostgresURL:      getEnv("WTAG_POSTGRES_URL", ""),
			PostgresMaxConns: getEnvInt("WTAG_POSTGRES_MAX_CONNS", 20),
			PostgresMinConns: getEnvInt("WTAG_POSTGRES_MIN_CONNS", 2),
			PostgresTimeout:  getEnvDuration("WTAG_POSTGRES_TIMEOUT", 10*time.Second),
			S3Endpoint:       getEnv("WTAG_S3_ENDPOINT", ""),
			S3Region:         getEnv("WTAG_S3_REGION", "us-east-1"),
			S3Bucket:         getEnv("WTAG_S3_BUCKET", ""),
			S3AccessKey:      getEnv("WTAG_S3_ACCESS_KEY", ""),
			S3SecretKey:      getEnv("WTAG_S3_SECRET_KEY", ""),
			S3UsePathStyle:   getEnvBool("WTAG_S3_USE_PATH_STYLE", false),
			S3PublicBaseURL:  getEnv("WTAG_S3_PUBLIC_BASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("WTAG_JWT_SECRET", ""),
		},
		Images: ImagesConfig{
			ThumbnailSize: getEnvInt("WTAG_THUMBNAIL_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level:          getEnv("WTAG_LOG_LEVEL", "info"),
			MetricsEnabled: getEnvBool("WTAG_METRICS_ENABLED", true),
		},
		Schedule: ScheduleConfig{
			MaintenanceCron: getEnv("WTAG_MAINTENANCE_CRON", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for startup-blocking problems.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("WTAG_JWT_SECRET is required")
	}
	if c.Images.ThumbnailSize < 16 || c.Images.ThumbnailSize > 4096 {
		return fmt.Errorf("thumbnail size %d out of range [16, 4096]", c.Images.ThumbnailSize)
	}

	switch c.Storage.Type {
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("WTAG_POSTGRES_URL is required for postgres storage")
		}
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("WTAG_S3_BUCKET is required for postgres storage")
		}
	case "memory":
		// nothing else needed
	default:
		return fmt.Errorf("invalid storage type: %s (must be postgres or memory)", c.Storage.Type)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
