package storage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/us-matching/internal/config"
	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/storage"
)

func testAWSConfig() aws.Config {
	return aws.Config{
		Region:      "eu-west-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
}

func TestS3ResolverPresignsKeyedPhotos(t *testing.T) {
	r := storage.NewS3Resolver(testAWSConfig(), "us-photos", 10*time.Minute)

	url := r.Resolve(context.Background(), db.Photo{ID: "p1", URL: "https://cdn/x.jpg", StorageKey: "photos/amy/1.jpg"})
	assert.True(t, strings.Contains(url, "us-photos"), url)
	assert.Contains(t, url, "photos/amy/1.jpg")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=600")
}

func TestS3ResolverFallsBackWithoutKey(t *testing.T) {
	r := storage.NewS3Resolver(testAWSConfig(), "us-photos", 0)
	assert.Equal(t, "https://cdn/x.jpg", r.Resolve(context.Background(), db.Photo{URL: "https://cdn/x.jpg"}))
}

func TestNewPhotoURLResolver_NoBucket(t *testing.T) {
	cfg := &config.Config{}
	r, err := storage.NewPhotoURLResolver(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, storage.StaticResolver{}, r)
	assert.Equal(t, "u", r.Resolve(context.Background(), db.Photo{URL: "u", StorageKey: "k"}))
}
