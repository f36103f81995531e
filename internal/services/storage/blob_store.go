// Package storage issues presigned URLs for direct-to-bucket assignment uploads.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// DefaultRegion avoids a bucket-location lookup when presigning
	DefaultRegion = "us-east-1"
	// MaxPresignExpiry is the longest validity S3 signature v4 allows
	MaxPresignExpiry = 7 * 24 * time.Hour

	uploadPrefix    = "uploads"
	maxObjectName   = 128
	defaultFileName = "file"
)

// Config holds the bucket connection settings
type Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	Region       string
	UploadURLTTL time.Duration
	FileURLTTL   time.Duration
}

// PresignedUpload is returned to the browser, which PUTs the file to UploadURL
// and then hands FileURL to the analysis endpoints.
type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	ObjectKey string    `json:"object_key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BlobStore implements presigned uploads over MinIO/S3 compatible storage
type BlobStore struct {
	client    *minio.Client
	bucket    string
	uploadTTL time.Duration
	fileTTL   time.Duration
	now       func() time.Time
}

// NewBlobStore creates a MinIO client. It does not contact the server; call EnsureBucket for that.
func NewBlobStore(cfg Config) (*BlobStore, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	uploadTTL := cfg.UploadURLTTL
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	fileTTL := cfg.FileURLTTL
	if fileTTL <= 0 || fileTTL > MaxPresignExpiry {
		fileTTL = MaxPresignExpiry
	}

	return &BlobStore{
		client:    client,
		bucket:    cfg.Bucket,
		uploadTTL: min(uploadTTL, MaxPresignExpiry),
		fileTTL:   fileTTL,
		now:       time.Now,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist
func (s *BlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Ping verifies the bucket is reachable
func (s *BlobStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

// PresignUpload reserves a fresh object key and signs a PUT URL for it along
// with a GET URL the analysis workflow can fetch the file from.
func (s *BlobStore) PresignUpload(ctx context.Context, fileName string) (*PresignedUpload, error) {
	key := ObjectKey(uuid.New(), fileName)

	putURL, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	getURL, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.fileTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	return &PresignedUpload{
		UploadURL: putURL.String(),
		FileURL:   getURL.String(),
		ObjectKey: key,
		Method:    "PUT",
		ExpiresAt: s.now().Add(s.uploadTTL).UTC(),
	}, nil
}

// ObjectKey builds the storage key uploads/<id>/<safe-name>
func ObjectKey(id uuid.UUID, fileName string) string {
	return path.Join(uploadPrefix, id.String(), SafeFileName(fileName))
}

// SafeFileName keeps letters, digits, dot, dash and underscore from the base
// name and replaces everything else with an underscore.
func SafeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	safe := strings.Trim(b.String(), "._")
	if safe == "" {
		return defaultFileName
	}
	if len(safe) > maxObjectName {
		ext := path.Ext(safe)
		if len(ext) > 16 {
			ext = ""
		}
		safe = safe[:maxObjectName-len(ext)] + ext
	}
	return safe
}
