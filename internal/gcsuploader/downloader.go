package gcsuploader

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// DownloadFile reads the object at a gs:// URI.
func DownloadFile(ctx context.Context, uri string) ([]byte, error) {
	bucketName, objectName, err := ParseGCSURI(uri)
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: open object %s/%s: %w", bucketName, objectName, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("DownloadFile: read object: %w", err)
	}
	return data, nil
}
