// Package blob stores uploaded statement files in Google Cloud Storage.
// Objects are addressed by gs:// URIs so rows in the database stay portable
// across buckets.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Storage is an interface for statement file persistence. It enables mocking
// in service tests.
type Storage interface {
	Upload(ctx context.Context, objectName string, r io.Reader) (string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
	Remove(ctx context.Context, uri string) error
	SignedURL(objectName string, ttl time.Duration) (string, error)
}

// GCSStorage implements Storage against a single GCS bucket. It assumes
// Application Default Credentials are configured.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage creates a storage client bound to one bucket.
func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("blob.NewGCSStorage: create storage client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Upload streams r into the bucket under objectName and returns the gs://
// URI of the stored object.
func (s *GCSStorage) Upload(ctx context.Context, objectName string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Upload: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// Fetch downloads the object bytes for a gs:// URI.
func (s *GCSStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// Remove deletes the object behind a gs:// URI. A missing object is not an
// error so cleanup stays idempotent.
func (s *GCSStorage) Remove(ctx context.Context, uri string) error {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return fmt.Errorf("Remove: %w", err)
	}

	err = s.client.Bucket(bucket).Object(object).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("Remove: deleting object %s/%s: %w", bucket, object, err)
	}
	return nil
}

// SignedURL returns a V4 signed download URL for an object in the bucket.
func (s *GCSStorage) SignedURL(objectName string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(objectName, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("SignedURL: %w", err)
	}
	return url, nil
}

// ParseURI splits a gs://bucket/object URI into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI extracts the final path element of a gs:// URI.
// e.g. "gs://bucket/imports/file.pdf" yields "file.pdf".
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
