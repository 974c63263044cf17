package utils

import (
	"context"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getStorageClient initializes a Google Cloud Storage client.
// Prefers ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS);
// set GCS_CREDENTIALS_JSON to provide explicit JSON locally.
func getStorageClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// ArchiveBucket returns the bucket used for raw partner-envelope archival,
// or "" when archival is disabled.
func ArchiveBucket() string {
	return strings.TrimSpace(os.Getenv("SYNC_ARCHIVE_BUCKET"))
}

// ArchiveEnvelope stores a raw partner response under objectName in the
// archive bucket. Callers treat failures as best-effort.
func ArchiveEnvelope(ctx context.Context, objectName string, data []byte) error {
	bucketName := ArchiveBucket()
	if bucketName == "" {
		return nil
	}

	client, err := getStorageClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		return err
	}
	return wc.Close()
}
