// Package s3 implements the blob store on S3-compatible object storage,
// including MinIO via a custom endpoint and path-style addressing.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wtag-io/wtag/pkg/storage"
)

// Config holds S3 connection settings.
type Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// PublicBaseURL overrides the derived public URL prefix, for
	// CDN-fronted buckets
	PublicBaseURL string
}

// api is the subset of the S3 client the blob store uses
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// BlobStore implements storage.BlobStore on an S3-compatible bucket.
type BlobStore struct {
	client  api
	bucket  string
	baseURL string
}

// NewBlobStore creates a new S3-backed blob store and ensures the bucket
// exists, which matters for fresh MinIO instances in local development.
func NewBlobStore(ctx context.Context, cfg Config) (*BlobStore, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Static credentials, for MinIO or AWS with explicit keys
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		// Default credential chain: IAM roles, env vars, etc.
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	store := &BlobStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
	}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensuring bucket exists: %w", err)
	}
	return store, nil
}

// Put writes the object, overwriting any previous content.
func (b *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("uploading object %s: %w", key, err)
	}
	return nil
}

// Get reads the object back.
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting object %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object. S3 deletes are idempotent, so a missing key is
// not an error.
func (b *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

// BaseURL returns the public URL prefix objects are served from.
func (b *BlobStore) BaseURL() string {
	return b.baseURL
}

// Ping verifies bucket reachability for health checks.
func (b *BlobStore) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 ping failed: %w", err)
	}
	return nil
}

func (b *BlobStore) ensureBucket(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = b.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil && !isBucketExists(err) {
		return fmt.Errorf("creating bucket: %w", err)
	}
	return nil
}

func publicBaseURL(cfg Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		if cfg.UsePathStyle {
			return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		}
		return strings.TrimSuffix(cfg.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound")
}

func isBucketExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "BucketAlreadyExists") || strings.Contains(msg, "BucketAlreadyOwnedByYou")
}
