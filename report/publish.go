package report

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/hupe1980/hyperlsh/blobstore"
)

// Publish copies the local files to store under prefix, keyed by base name.
// Empty paths are skipped.
func Publish(ctx context.Context, store blobstore.BlobStore, prefix string, files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("publish %s: %w", f, err)
		}
		name := path.Join(prefix, filepath.Base(f))
		if err := store.Put(ctx, name, data); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
	}
	return nil
}
