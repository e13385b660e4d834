// Package storage moves input drawings and output artifacts to and from
// the S3-compatible object store that backs the surrounding application.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Error wraps a storage failure with the operation and key involved.
// Storage failures are terminal for the current attempt; the job is
// marked failed and may be resubmitted by the caller.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store is the narrow interface the worker needs from object storage.
type Store interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// MinioStore is the production Store backed by an S3-compatible server.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the object store.
func NewMinio(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Download fetches an object's full contents.
func (s *MinioStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &Error{Op: "download", Key: key, Err: err}
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &Error{Op: "download", Key: key, Err: err}
	}
	return data, nil
}

// Upload writes an object.
func (s *MinioStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return &Error{Op: "upload", Key: key, Err: err}
	}
	return nil
}
