// Package gridfs adapts a MongoDB GridFS bucket to the blob store port.
package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type Store struct {
	bucket *gridfs.Bucket
}

type blobMetadata struct {
	ContentType  string `bson:"contentType"`
	OriginalName string `bson:"originalName"`
	FieldName    string `bson:"fieldName"`
	UploadedBy   string `bson:"uploadedBy"`
}

func New(client *mongo.Client, dbName, bucketName string) (*Store, error) {
	bucket, err := gridfs.NewBucket(
		client.Database(dbName),
		options.GridFSBucket().SetName(bucketName),
	)
	if err != nil {
		return nil, err
	}
	return &Store{bucket: bucket}, nil
}

// The v1 GridFS API is deadline-based rather than context-based; propagate
// the caller's context deadline onto the bucket before each operation.
func (s *Store) applyDeadlines(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	_ = s.bucket.SetReadDeadline(deadline)
	_ = s.bucket.SetWriteDeadline(deadline)
}

func (s *Store) Upload(ctx context.Context, src io.Reader, meta ports.BlobUpload) (domain.BlobID, error) {
	s.applyDeadlines(ctx)
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "contentType", Value: meta.ContentType},
		{Key: "originalName", Value: meta.Filename},
		{Key: "fieldName", Value: string(meta.Role)},
		{Key: "uploadedBy", Value: string(meta.UploaderID)},
	})
	id, err := s.bucket.UploadFromStream(meta.Filename, src, opts)
	if err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return domain.BlobID(id.Hex()), nil
}

func (s *Store) Download(ctx context.Context, id domain.BlobID) (io.ReadCloser, domain.BlobInfo, error) {
	return s.DownloadRange(ctx, id, 0, -1)
}

func (s *Store) DownloadRange(ctx context.Context, id domain.BlobID, offset, length int64) (io.ReadCloser, domain.BlobInfo, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, domain.BlobInfo{}, domain.ErrInvalidID
	}
	s.applyDeadlines(ctx)
	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.BlobInfo{}, domain.ErrNotFound
		}
		return nil, domain.BlobInfo{}, err
	}
	info := fileInfo(id, stream.GetFile())

	if offset > 0 {
		if _, err := stream.Skip(offset); err != nil {
			_ = stream.Close()
			return nil, domain.BlobInfo{}, err
		}
	}
	var reader io.ReadCloser = stream
	if length >= 0 {
		reader = &limitedStream{Reader: io.LimitReader(stream, length), stream: stream}
	}
	return reader, info, nil
}

func (s *Store) Stat(ctx context.Context, id domain.BlobID) (domain.BlobInfo, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.BlobInfo{}, domain.ErrInvalidID
	}
	s.applyDeadlines(ctx)
	cursor, err := s.bucket.Find(bson.M{"_id": oid})
	if err != nil {
		return domain.BlobInfo{}, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return domain.BlobInfo{}, err
		}
		return domain.BlobInfo{}, domain.ErrNotFound
	}
	var file gridfs.File
	if err := cursor.Decode(&file); err != nil {
		return domain.BlobInfo{}, err
	}
	return fileInfo(id, &file), nil
}

func (s *Store) Delete(ctx context.Context, id domain.BlobID) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	s.applyDeadlines(ctx)
	if err := s.bucket.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func fileInfo(id domain.BlobID, file *gridfs.File) domain.BlobInfo {
	info := domain.BlobInfo{ID: id}
	if file == nil {
		return info
	}
	info.Length = file.Length
	info.Filename = file.Name
	if len(file.Metadata) > 0 {
		var meta blobMetadata
		if err := bson.Unmarshal(file.Metadata, &meta); err == nil {
			info.ContentType = meta.ContentType
			if meta.OriginalName != "" {
				info.Filename = meta.OriginalName
			}
			info.Role = domain.BlobRole(meta.FieldName)
			info.UploaderID = domain.UserID(meta.UploadedBy)
		}
	}
	return info
}

// limitedStream closes the underlying download stream when the bounded view
// is closed.
type limitedStream struct {
	io.Reader
	stream *gridfs.DownloadStream
}

func (l *limitedStream) Close() error { return l.stream.Close() }

var _ ports.BlobStore = (*Store)(nil)
