package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// ImageStore saves an annotated image and returns a stable reference to
// it; Delete removes the artifact behind a previously returned reference.
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// S3Client stores annotated report images in an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO).
type S3Client struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	publicBaseURL string
}

type s3Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	PublicBaseURL string
}

// NewS3ClientFromEnv builds the client from S3_* environment variables.
// Returns ErrNotConfigured when the required variables are absent; the
// caller then falls back to local disk storage.
func NewS3ClientFromEnv() (*S3Client, error) {
	cfg := s3Config{
		Endpoint:      strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		AccessKey:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretKey:     strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		Bucket:        strings.TrimSpace(os.Getenv("S3_BUCKET")),
		Region:        strings.TrimSpace(os.Getenv("S3_REGION")),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")), "/"),
	}

	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg := aws.Config{
		Region:                      cfg.Region,
		Credentials:                 credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		EndpointResolverWithOptions: resolver,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Client{
		client:        client,
		bucket:        cfg.Bucket,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

func (s *S3Client) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNotConfigured
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	input := &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return s.objectURL(key), nil
}

// Delete removes the object behind a reference previously returned by
// Save. Unknown references are rejected rather than guessed at.
func (s *S3Client) Delete(ctx context.Context, ref string) error {
	if s == nil || s.client == nil {
		return ErrNotConfigured
	}
	key := s.objectKey(ref)
	if key == "" {
		return fmt.Errorf("reference %q does not belong to bucket %s", ref, s.bucket)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// objectKey inverts objectURL, turning a stored reference back into the
// bucket key.
func (s *S3Client) objectKey(ref string) string {
	for _, base := range []string{s.publicBaseURL, s.endpoint} {
		if base == "" {
			continue
		}
		prefix := fmt.Sprintf("%s/%s/", base, s.bucket)
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ""
}

func (s *S3Client) objectURL(key string) string {
	trimmedKey := strings.TrimLeft(key, "/")
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, trimmedKey)
	}
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, trimmedKey)
}
