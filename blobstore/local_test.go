package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	stores := map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte("1,2,3\n4,5,6\n")

			require.NoError(t, store.Put(ctx, "sets/a.csv", data))
			require.NoError(t, store.Put(ctx, "sets/b.csv", []byte("7\n")))
			require.NoError(t, store.Put(ctx, "other.csv", []byte("8\n")))

			blob, err := store.Open(ctx, "sets/a.csv")
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err := blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, "4,5,6", string(buf))

			n, err = blob.ReadAt(ctx, buf, int64(len(data))-2)
			assert.Equal(t, io.EOF, err)
			assert.Equal(t, 2, n)

			got, err := io.ReadAll(Reader(ctx, blob))
			require.NoError(t, err)
			assert.Equal(t, data, got)
			require.NoError(t, blob.Close())

			all, err := ReadAll(ctx, store, "sets/a.csv")
			require.NoError(t, err)
			assert.Equal(t, data, all)

			names, err := store.List(ctx, "sets/")
			require.NoError(t, err)
			assert.Equal(t, []string{"sets/a.csv", "sets/b.csv"}, names)

			require.NoError(t, store.Put(ctx, "sets/b.csv", []byte("9\n")))
			all, err = ReadAll(ctx, store, "sets/b.csv")
			require.NoError(t, err)
			assert.Equal(t, "9\n", string(all))

			_, err = store.Open(ctx, "missing.csv")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = ReadAll(ctx, store, "missing.csv")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLocalStore_PutLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	require.NoError(t, store.Put(context.Background(), "out/meta.csv", []byte("a,b\n")))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "meta.csv", entries[0].Name())
	assert.Equal(t, dir, store.Root())
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "empty", nil))

	data, err := ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}
