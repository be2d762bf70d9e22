package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// ObjectStore fetches objects for s3:// locations.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// MinioStore reads objects from S3 or any S3-compatible store.
type MinioStore struct {
	client *minio.Client
}

// Ensure MinioStore implements the interface.
var _ ObjectStore = (*MinioStore)(nil)

// NewMinioStore creates an object store client. Pass useSSL for AWS and other TLS endpoints.
func NewMinioStore(endpoint, accessKeyID, secretAccessKey string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

// GetObject returns the object body.
func (m *MinioStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioError(err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the body is read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapMinioError(err)
	}
	return obj, nil
}

// mapMinioError names missing objects and denied access explicitly.
func mapMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, resp.Message)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("access denied: %s", resp.Message)
	default:
		return fmt.Errorf("object store: %w", err)
	}
}
