// Package s3 implements the blob store port on top of an S3-compatible
// object store via the MinIO client. Selected with BLOB_BACKEND=s3.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type Store struct {
	client *minio.Client
	bucket string
	region string
}

func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
}

func (s *Store) Upload(ctx context.Context, src io.Reader, meta ports.BlobUpload) (domain.BlobID, error) {
	// Object keys share the ObjectID hex format with the GridFS backend so
	// file URLs are interchangeable between backends.
	key := primitive.NewObjectID().Hex()
	_, err := s.client.PutObject(ctx, s.bucket, key, src, -1, minio.PutObjectOptions{
		ContentType: meta.ContentType,
		UserMetadata: map[string]string{
			"original-name": meta.Filename,
			"field-name":    string(meta.Role),
			"uploaded-by":   string(meta.UploaderID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return domain.BlobID(key), nil
}

func (s *Store) Download(ctx context.Context, id domain.BlobID) (io.ReadCloser, domain.BlobInfo, error) {
	return s.DownloadRange(ctx, id, 0, -1)
}

func (s *Store) DownloadRange(ctx context.Context, id domain.BlobID, offset, length int64) (io.ReadCloser, domain.BlobInfo, error) {
	if _, err := primitive.ObjectIDFromHex(string(id)); err != nil {
		return nil, domain.BlobInfo{}, domain.ErrInvalidID
	}
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, domain.BlobInfo{}, err
	}

	opts := minio.GetObjectOptions{}
	if offset > 0 || length >= 0 {
		end := info.Length - 1
		if length >= 0 {
			end = offset + length - 1
		}
		if err := opts.SetRange(offset, end); err != nil {
			return nil, domain.BlobInfo{}, err
		}
	}
	object, err := s.client.GetObject(ctx, s.bucket, string(id), opts)
	if err != nil {
		return nil, domain.BlobInfo{}, translateError(err)
	}
	return object, info, nil
}

func (s *Store) Stat(ctx context.Context, id domain.BlobID) (domain.BlobInfo, error) {
	if _, err := primitive.ObjectIDFromHex(string(id)); err != nil {
		return domain.BlobInfo{}, domain.ErrInvalidID
	}
	stat, err := s.client.StatObject(ctx, s.bucket, string(id), minio.StatObjectOptions{})
	if err != nil {
		return domain.BlobInfo{}, translateError(err)
	}
	return domain.BlobInfo{
		ID:          id,
		Length:      stat.Size,
		ContentType: stat.ContentType,
		Filename:    userMeta(stat, "original-name"),
		Role:        domain.BlobRole(userMeta(stat, "field-name")),
		UploaderID:  domain.UserID(userMeta(stat, "uploaded-by")),
	}, nil
}

func (s *Store) Delete(ctx context.Context, id domain.BlobID) error {
	if _, err := primitive.ObjectIDFromHex(string(id)); err != nil {
		return domain.ErrInvalidID
	}
	if err := s.client.RemoveObject(ctx, s.bucket, string(id), minio.RemoveObjectOptions{}); err != nil {
		return translateError(err)
	}
	return nil
}

// The client canonicalizes user metadata keys, so look up both spellings.
func userMeta(info minio.ObjectInfo, key string) string {
	if v, ok := info.UserMetadata[key]; ok {
		return v
	}
	return info.UserMetadata[http.CanonicalHeaderKey(key)]
}

func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}

var _ ports.BlobStore = (*Store)(nil)
