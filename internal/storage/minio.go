package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ddmr2811/Facturas/internal/models"
)

// ErrNotConfigured is returned when no storage endpoint or credentials are set
var ErrNotConfigured = errors.New("storage not configured")

const presignTTL = 24 * time.Hour

var Client *minio.Client
var BucketName string

// Init connects to MinIO and checks that the bucket exists
func Init(cfg models.StorageConfig) error {
	if !cfg.Enabled() {
		return ErrNotConfigured
	}

	var err error
	Client, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		Client = nil
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}
	BucketName = cfg.Bucket

	// Verify bucket exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := Client.BucketExists(ctx, BucketName)
	if err != nil {
		Client = nil
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		Client = nil
		return fmt.Errorf("bucket %s does not exist", BucketName)
	}

	return nil
}

// Available reports whether Init succeeded
func Available() bool {
	return Client != nil
}

// ObjectName builds the per-owner path {owner}/YYYY/MM/{id}/{filename}.
// The id keeps documents with the same synthesized name apart.
func ObjectName(owner string, id uuid.UUID, filename string, now time.Time) string {
	owner = strings.Trim(path.Clean("/"+owner), "/")
	if owner == "" {
		owner = "shared"
	}
	return fmt.Sprintf("%s/%d/%02d/%s/%s", owner, now.Year(), now.Month(), id, path.Base("/"+filename))
}

// UploadInvoiceDocument stores an invoice document and returns its
// bucket-qualified path
func UploadInvoiceDocument(ctx context.Context, owner string, id uuid.UUID, filename string, data []byte, contentType string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}
	if contentType == "" {
		contentType = ContentType(filename)
	}
	objectName := ObjectName(owner, id, filename, time.Now())

	_, err := Client.PutObject(ctx, BucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	// Return the full path for storage in DB
	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a download URL. The browser saves the file
// under the synthesized name, without the id directory.
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}
	objectName := strings.TrimPrefix(objectPath, BucketName+"/")

	params := make(map[string][]string)
	params["response-content-disposition"] = []string{
		mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(objectName)}),
	}
	url, err := Client.PresignedGetObject(ctx, BucketName, objectName, presignTTL, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// ContentType guesses the content type from a filename extension
func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Bucket exposes the package client as a document store
type Bucket struct{}

// PutDocument uploads one document
func (Bucket) PutDocument(ctx context.Context, owner string, id uuid.UUID, name string, data []byte, contentType string) (string, error) {
	return UploadInvoiceDocument(ctx, owner, id, name, data, contentType)
}

// DocumentURL returns a presigned download URL
func (Bucket) DocumentURL(ctx context.Context, objectPath string) (string, error) {
	return GetPresignedURL(ctx, objectPath)
}
