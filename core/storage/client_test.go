package storage_test

import (
	"context"
	"errors"
	"testing"

	"press-pass/core/storage"
	"press-pass/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		client, err := storage.NewClient(storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "press-pass",
			Region:    "us-east-1",
		})
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithScheme", func(t *testing.T) {
		client, err := storage.NewClient(storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
		})
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EmptyEndpoint", func(t *testing.T) {
		_, err := storage.NewClient(storage.Config{Endpoint: "http://"})
		assert.Error(t, err)
	})
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "press-pass").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, m, "press-pass", ""))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "press-pass").Return(false, nil)
		m.On("MakeBucket", ctx, "press-pass", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, m, "press-pass", "eu-west-1"))
		m.AssertExpectations(t)
	})

	t.Run("Unreachable", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "press-pass").Return(false, errors.New("dial tcp: connection refused"))

		err := storage.EnsureBucket(ctx, m, "press-pass", "")
		assert.ErrorContains(t, err, "failed to check bucket")
	})
}
