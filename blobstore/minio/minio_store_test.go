package minio

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hyperlsh/blobstore"
)

func TestStoreKey(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{"", "a.csv", "a.csv"},
		{"datasets/", "a.csv", "datasets/a.csv"},
		{"datasets", "sub/a.csv", "datasets/sub/a.csv"},
	}
	for _, tt := range tests {
		s := NewStore(nil, "bucket", tt.prefix)
		assert.Equal(t, tt.want, s.key(tt.name))
	}
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-hyperlsh"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("1,2,3\n4,5,6\n")
	require.NoError(t, store.Put(ctx, "points.csv", data))

	blob, err := store.Open(ctx, "points.csv")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "4,5,6", string(buf[:n]))

	n, err = blob.ReadAt(ctx, buf, int64(len(data))-2)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, n)
	require.NoError(t, blob.Close())

	all, err := blobstore.ReadAll(ctx, store, "points.csv")
	require.NoError(t, err)
	assert.Equal(t, data, all)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "points.csv")

	_, err = store.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_ = client.RemoveObject(ctx, bucket, store.key("points.csv"), minio.RemoveObjectOptions{})
}
