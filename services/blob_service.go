package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kurin/blazer/b2"
)

// BlobStore is the capability the core needs from blob storage: streaming
// the uploaded bytes in, signed URLs out for download, and deletion at
// purge time. B2 has no client-facing presigned PUT, so uploads are proxied
// through the server rather than handed a URL.
type BlobStore interface {
	Upload(ctx context.Context, storageKey string, r io.Reader) error
	DownloadURL(ctx context.Context, storageKey string) (string, error)
	Delete(ctx context.Context, storageKey string) error
}

const downloadURLExpiry = 24 * time.Hour

// B2BlobStore backs BlobStore with a Backblaze B2 bucket.
type B2BlobStore struct {
	client     *b2.Client
	bucketName string
	bucket     *b2.Bucket
}

func NewB2BlobStore(ctx context.Context, keyID, applicationKey, bucketName string) (*B2BlobStore, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &B2BlobStore{
		client:     client,
		bucketName: bucketName,
		bucket:     bucket,
	}, nil
}

var _ BlobStore = (*B2BlobStore)(nil)

func (s *B2BlobStore) Upload(ctx context.Context, storageKey string, r io.Reader) error {
	w := s.bucket.Object(storageKey).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("%w: upload blob %s: %v", ErrDependencyUnavailable, storageKey, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: upload blob %s: %v", ErrDependencyUnavailable, storageKey, err)
	}
	return nil
}

func (s *B2BlobStore) DownloadURL(ctx context.Context, storageKey string) (string, error) {
	urlStr, err := s.bucket.Object(storageKey).AuthURL(ctx, downloadURLExpiry, "GET")
	if err != nil {
		return "", fmt.Errorf("%w: signed download URL for %s: %v", ErrDependencyUnavailable, storageKey, err)
	}
	return urlStr.String(), nil
}

func (s *B2BlobStore) Delete(ctx context.Context, storageKey string) error {
	if err := s.bucket.Object(storageKey).Delete(ctx); err != nil {
		return fmt.Errorf("%w: delete blob %s: %v", ErrDependencyUnavailable, storageKey, err)
	}
	return nil
}
