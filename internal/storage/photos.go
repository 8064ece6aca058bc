package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oggyb/us-matching/internal/config"
	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/logger"
)

// PhotoURLResolver turns a stored photo into the URL handed to clients.
type PhotoURLResolver interface {
	Resolve(ctx context.Context, photo db.Photo) string
}

// StaticResolver serves the stored URL as-is.
type StaticResolver struct{}

func (StaticResolver) Resolve(_ context.Context, photo db.Photo) string { return photo.URL }

// S3Resolver presigns GET URLs for photos that carry a storage key.
type S3Resolver struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewS3Resolver builds a resolver on an already loaded AWS config.
func NewS3Resolver(awsCfg aws.Config, bucket string, expiry time.Duration) *S3Resolver {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Resolver{
		presigner: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:    bucket,
		expiry:    expiry,
	}
}

// Resolve presigns the object; on failure, or when the photo has no key, it
// falls back to the stored URL so a feed never breaks over one signature.
func (r *S3Resolver) Resolve(ctx context.Context, photo db.Photo) string {
	if photo.StorageKey == "" {
		return photo.URL
	}
	url, err := r.PresignRead(ctx, photo.StorageKey)
	if err != nil {
		logger.FromContext(ctx).Warn("presign photo failed", "photo_id", photo.ID, "err", err)
		return photo.URL
	}
	return url
}

// PresignRead generates a presigned URL for reading key.
func (r *S3Resolver) PresignRead(ctx context.Context, key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}
	presigned, err := r.presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(r.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return presigned.URL, nil
}

// NewPhotoURLResolver picks the S3 resolver when a bucket is configured and the
// static one otherwise.
func NewPhotoURLResolver(ctx context.Context, cfg *config.Config) (PhotoURLResolver, error) {
	if cfg.S3.Bucket == "" {
		return StaticResolver{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Resolver(awsCfg, cfg.S3.Bucket, cfg.S3.URLExpiry), nil
}
