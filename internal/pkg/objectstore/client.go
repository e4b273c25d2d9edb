package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// ErrDisabled is returned when S3 is not configured
var ErrDisabled = errors.New("object storage is disabled")

// Client wraps the S3 client for plan files
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	config   *Config
}

// NewClient creates a new S3 client and checks that the bucket is reachable
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}

	// Create AWS config
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newClient(awsConfig, cfg)

	// Test connection
	if err := client.testConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[ObjectStore] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

func newClient(awsConfig aws.Config, cfg *Config) *Client {
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services (MinIO, B2) expect path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})
	return &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		config:   cfg,
	}
}

// testConnection tests the S3 connection by checking if the bucket exists
func (c *Client) testConnection(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}

// PresignGet returns a time limited GET URL for a plan's stored file
func (c *Client) PresignGet(ctx context.Context, storagePath string) (string, time.Time, error) {
	key := c.config.ObjectKey(storagePath)
	expires := time.Now().Add(c.config.PresignTTL)

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.config.PresignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign s3://%s/%s: %w", c.config.BucketName, key, err)
	}
	return req.URL, expires, nil
}

// DeleteObject deletes a plan's stored file. Missing objects are not an error.
func (c *Client) DeleteObject(ctx context.Context, storagePath string) error {
	key := c.config.ObjectKey(storagePath)

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	log.Infof("[ObjectStore] Successfully deleted: s3://%s/%s", c.config.BucketName, key)
	return nil
}

