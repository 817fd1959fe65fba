package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "image not found")
	ErrInvalidKey     = errors.New(errors.ErrCodeValidation, "object key must not be empty")
)

// ImageStore keeps rendered similarity map images in the configured bucket.
// It satisfies simmap.ImageStore.
type ImageStore struct {
	client *Client
	logger logging.Logger
}

func NewImageStore(client *Client, log logging.Logger) *ImageStore {
	return &ImageStore{client: client, logger: log}
}

// Put uploads data under key. An empty contentType is sniffed from the data.
func (s *ImageStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if s.client.isClosed() {
		return ErrMinIOClientClosed
	}
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}

	info, err := s.client.api.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail(key)
	}
	s.logger.Debug("Stored image",
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.String("etag", info.ETag),
	)
	return nil
}

func (s *ImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if s.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	obj, err := s.client.api.GetObject(ctx, s.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail(key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed").WithDetail(key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed").WithDetail(key)
	}
	return data, nil
}

// Exists reports whether key is present.
func (s *ImageStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed").WithDetail(key)
	}
	return true, nil
}

// Delete removes key. Removing a missing key is not an error.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.client.api.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete failed").WithDetail(key)
	}
	return nil
}

// PresignedURL returns a time-limited GET URL for key. A zero expiry uses
// minio.presign_expiry.
func (s *ImageStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	if expiry == 0 {
		expiry = s.client.config.PresignExpiry
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.Bucket(), key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign image url").WithDetail(key)
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

//Personal.AI order the ending
