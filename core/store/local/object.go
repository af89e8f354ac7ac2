package local

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"press-pass/core/pass"
	"press-pass/core/storage"

	"github.com/minio/minio-go/v7"
)

// DefaultObjectName is the collection object used when none is configured.
const DefaultObjectName = "fallback/press_passes.json"

// ObjectStore keeps the collection in one bucket object.
type ObjectStore struct {
	client storage.Client
	bucket string
	object string
}

// NewObjectStore creates an ObjectStore for bucket/object.
func NewObjectStore(client storage.Client, bucket, object string) *ObjectStore {
	if object == "" {
		object = DefaultObjectName
	}
	return &ObjectStore{client: client, bucket: bucket, object: object}
}

// Load downloads the collection. A missing object is an empty collection.
func (s *ObjectStore) Load(ctx context.Context) ([]pass.Record, error) {
	rc, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", s.bucket, s.object, err)
	}
	defer rc.Close()

	// minio reports a missing key on first read, not on GetObject.
	data, err := io.ReadAll(rc)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", s.bucket, s.object, err)
	}
	return decodeCollection(data)
}

// Save uploads the collection, replacing the object.
func (s *ObjectStore) Save(ctx context.Context, recs []pass.Record) error {
	data, err := encodeCollection(recs)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", s.bucket, s.object, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
