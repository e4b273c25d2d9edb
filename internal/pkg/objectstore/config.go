package objectstore

import (
	"errors"
	"strings"
	"time"

	"github.com/dosreb/planlibrary/internal/pkg/env"
)

// Config holds S3 object storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	KeyPrefix       string
	PresignTTL      time.Duration
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		KeyPrefix:       env.GetEnv("S3_KEY_PREFIX", ""),
		PresignTTL:      env.GetEnvDuration("S3_PRESIGN_TTL", time.Hour),
		Enabled:         env.GetEnvBool("S3_ENABLED", false),
	}

	// Validate required fields if storage is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 is enabled")
		}
	}
	if config.PresignTTL <= 0 {
		config.PresignTTL = time.Hour
	}

	return config, nil
}

// IsEnabled returns true if object storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey maps a plan storage path onto a key in the bucket
func (c *Config) ObjectKey(storagePath string) string {
	key := strings.TrimLeft(strings.TrimSpace(storagePath), "/")
	prefix := strings.Trim(c.KeyPrefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
