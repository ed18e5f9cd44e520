// Package storage issues presigned URLs for profile images in an S3-compatible bucket.
//
// Clients upload directly to the bucket with a presigned PUT, then commit the
// object key. The commit verifies the object before the key is stored on the user.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultMaxUploadBytes is the largest accepted profile image.
const DefaultMaxUploadBytes = 3 << 20

const (
	keyPrefix   = "profile-images"
	keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	sniffBytes  = 3072
	region      = "us-east-1"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// AllowedImageType reports whether contentType may be uploaded as a profile image.
func AllowedImageType(contentType string) bool {
	_, ok := extensions[normalizeType(contentType)]
	return ok
}

func normalizeType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

// ValidateUpload checks a requested upload against the allowed types and max size.
func ValidateUpload(contentType string, size, limit int64) error {
	if !AllowedImageType(contentType) {
		return fmt.Errorf("%w: only jpeg, png and webp images are allowed", shared.ErrInvalidInput)
	}
	if size <= 0 {
		return fmt.Errorf("%w: file size must be positive", shared.ErrInvalidInput)
	}
	if size > limit {
		return fmt.Errorf("%w: image must be at most %d bytes", shared.ErrInvalidInput, limit)
	}
	return nil
}

// ProfileImageKey returns a fresh object key for userID's image of contentType.
func ProfileImageKey(userID, contentType string) (string, error) {
	ext, ok := extensions[normalizeType(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", shared.ErrInvalidInput, contentType)
	}
	id, err := nanoid.GenerateString(keyAlphabet, 16)
	if err != nil {
		return "", fmt.Errorf("failed to generate object key: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s.%s", keyPrefix, userID, id, ext), nil
}

// KeyOwnedBy reports whether key was issued by [ProfileImageKey] for userID.
func KeyOwnedBy(key, userID string) bool {
	rest, ok := strings.CutPrefix(key, keyPrefix+"/"+userID+"/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// ObjectInfo describes a stored object after verification.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Store is the object storage used by the profile handlers.
type Store interface {
	PresignUpload(ctx context.Context, key string) (*url.URL, error)
	PresignDownload(ctx context.Context, key string) (*url.URL, error)
	Inspect(ctx context.Context, key string) (ObjectInfo, error)
	UploadExpiry() time.Duration
	MaxUploadBytes() int64
}

// MinioStore is a [Store] backed by minio-go.
type MinioStore struct {
	client         *minio.Client
	bucket         string
	uploadExpiry   time.Duration
	downloadExpiry time.Duration
	maxUpload      int64
	logger         *log.Logger
}

// NewMinioStore connects to the endpoint in cfg. It does not contact the server.
func NewMinioStore(cfg shared.StorageConfig, logger *log.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: storage endpoint %q: %v", shared.ErrInvalidConfig, cfg.Endpoint, err)
	}

	limit := cfg.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	return &MinioStore{
		client:         client,
		bucket:         cfg.Bucket,
		uploadExpiry:   seconds(cfg.UploadExpirySeconds, 5*time.Minute),
		downloadExpiry: seconds(cfg.DownloadExpirySeconds, time.Hour),
		maxUpload:      limit,
		logger:         logger,
	}, nil
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// EnsureBucket creates the bucket when it does not exist.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: storage: %v", shared.ErrServiceUnavailable, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created bucket", "bucket", s.bucket)
	return nil
}

func (s *MinioStore) UploadExpiry() time.Duration { return s.uploadExpiry }
func (s *MinioStore) MaxUploadBytes() int64       { return s.maxUpload }

// PresignUpload returns a PUT URL for key.
func (s *MinioStore) PresignUpload(ctx context.Context, key string) (*url.URL, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.uploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return u, nil
}

// PresignDownload returns a GET URL for key.
func (s *MinioStore) PresignDownload(ctx context.Context, key string) (*url.URL, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.downloadExpiry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download: %w", err)
	}
	return u, nil
}

// Inspect stats key and sniffs its first bytes. Missing objects wrap [shared.ErrNotFound];
// objects that are too large or not an allowed image wrap [shared.ErrInvalidInput].
func (s *MinioStore) Inspect(ctx context.Context, key string) (ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, fmt.Errorf("%w: object %s", shared.ErrNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("%w: storage: %v", shared.ErrServiceUnavailable, err)
	}
	if stat.Size > s.maxUpload {
		return ObjectInfo{}, fmt.Errorf("%w: image must be at most %d bytes", shared.ErrInvalidInput, s.maxUpload)
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(0, sniffBytes-1); err != nil {
		return ObjectInfo{}, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: storage: %v", shared.ErrServiceUnavailable, err)
	}
	defer obj.Close()

	contentType, err := Sniff(obj)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Key: key, Size: stat.Size, ContentType: contentType}, nil
}

// Sniff detects the content type of r and rejects anything but an allowed image.
func Sniff(r io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	ct := normalizeType(mt.String())
	if !AllowedImageType(ct) {
		return "", fmt.Errorf("%w: uploaded file is %s, not an allowed image", shared.ErrInvalidInput, ct)
	}
	return ct, nil
}
