// Package storage wraps the S3-compatible object store holding drink photos
// and avatars. All reads go through short-lived presigned URLs; the bucket
// itself stays private.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	// UploadTTL bounds how long a client may take to PUT a photo.
	UploadTTL = 5 * time.Minute
	// ReadTTL is the signed download URL lifetime.
	ReadTTL = time.Hour
)

// Config holds object storage settings.
type Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	PathStyle bool
}

// PhotoStore issues presigned URLs for and deletes stored photos.
type PhotoStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewPhotoStore creates a photo store. Static credentials and a custom
// endpoint are used when configured, otherwise the default AWS chain.
func NewPhotoStore(ctx context.Context, cfg Config) (*PhotoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &PhotoStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// NewDrinkPhotoKey returns a fresh object key in the owner's drink photo
// namespace.
func (s *PhotoStore) NewDrinkPhotoKey(userID, ext string) string {
	return fmt.Sprintf("drinks/%s/%s%s", userID, uuid.New().String(), ext)
}

// NewAvatarKey returns a fresh object key in the owner's avatar namespace.
func (s *PhotoStore) NewAvatarKey(userID, ext string) string {
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), ext)
}

// OwnsDrinkKey reports whether key lies in the user's drink photo namespace.
func (s *PhotoStore) OwnsDrinkKey(userID, key string) bool {
	return strings.HasPrefix(key, "drinks/"+userID+"/") && !strings.Contains(key, "..")
}

// OwnsAvatarKey reports whether key lies in the user's avatar namespace.
func (s *PhotoStore) OwnsAvatarKey(userID, key string) bool {
	return strings.HasPrefix(key, "avatars/"+userID+"/") && !strings.Contains(key, "..")
}

// PresignUpload generates a presigned PUT URL for the given key.
func (s *PhotoStore) PresignUpload(ctx context.Context, key, contentType string) (string, int, error) {
	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = UploadTTL
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to presign upload: %w", err)
	}
	return request.URL, int(UploadTTL.Seconds()), nil
}

// SignedGetURL generates a presigned GET URL for the given key.
func (s *PhotoStore) SignedGetURL(ctx context.Context, key string) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ReadTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return request.URL, nil
}

// Delete removes the object at key.
func (s *PhotoStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
