package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/hyperlsh/blobstore"
	miniostore "github.com/hupe1980/hyperlsh/blobstore/minio"
	s3store "github.com/hupe1980/hyperlsh/blobstore/s3"
	"github.com/hupe1980/hyperlsh/config"
	"github.com/hupe1980/hyperlsh/dataset"
)

// openStore returns the blob store the input lives in. Local inputs are
// rooted at the directory of the input path.
func openStore(ctx context.Context, in config.InputConfig) (blobstore.BlobStore, error) {
	switch in.Store {
	case "", "local":
		return blobstore.NewLocalStore(filepath.Dir(in.Path)), nil
	case "s3":
		return s3store.New(ctx, in.Bucket, func(o *s3store.Options) {
			o.Prefix = in.Prefix
			o.Region = in.Region
		})
	case "minio":
		client, err := minio.New(in.Endpoint, &minio.Options{
			Creds: credentials.NewChainCredentials([]credentials.Provider{
				&credentials.EnvMinio{},
				&credentials.EnvAWS{},
			}),
			Secure: in.Secure,
			Region: in.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, in.Bucket, in.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store %q", in.Store)
	}
}

// loadData reads the dataset. Local files are read directly so that
// binary inputs are memory-mapped.
func loadData(ctx context.Context, in config.InputConfig, store blobstore.BlobStore) ([][]float64, error) {
	if in.Store == "" || in.Store == "local" {
		return dataset.Open(in.Path, in.Dim)
	}
	return dataset.Load(ctx, store, in.Path, in.Dim)
}
