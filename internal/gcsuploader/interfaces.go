package gcsuploader

import (
	"context"
)

// StorageService stores exported reports and reads ledger fixtures from
// cloud storage. It lets commands be tested without a bucket.
type StorageService interface {
	// UploadBytes stores data under objectName and returns its URI.
	UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) (string, error)

	// DownloadFile reads the object at a gs:// URI.
	DownloadFile(ctx context.Context, uri string) ([]byte, error)
}

// GCSStorageService is the Google Cloud Storage implementation of
// StorageService.
type GCSStorageService struct{}

var _ StorageService = (*GCSStorageService)(nil)

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// UploadBytes delegates to UploadBytes.
func (s *GCSStorageService) UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) (string, error) {
	return UploadBytes(ctx, bucketName, objectName, contentType, data)
}

// DownloadFile delegates to DownloadFile.
func (s *GCSStorageService) DownloadFile(ctx context.Context, uri string) ([]byte, error) {
	return DownloadFile(ctx, uri)
}
