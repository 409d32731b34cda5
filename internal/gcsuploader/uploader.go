package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// uploadTimeout bounds a single upload.
const uploadTimeout = 2 * time.Minute

// UploadBytes stores data in bucketName under objectName and returns the
// gs:// URI of the object. It assumes Application Default Credentials are
// configured (gcloud auth application-default login).
func UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("UploadBytes: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadBytes: copy to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadBytes: finalize upload: %w", err)
	}

	return "gs://" + bucketName + "/" + objectName, nil
}

// ObjectName builds the object path of an exported report, e.g.
// "reports/2024-02/treasury-20240301T101500Z.xlsx".
func ObjectName(prefix, period string, generatedAt time.Time, ext string) string {
	file := fmt.Sprintf("treasury-%s.%s", generatedAt.UTC().Format("20060102T150405Z"), strings.TrimPrefix(ext, "."))
	return path.Join(strings.Trim(prefix, "/"), period, file)
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
