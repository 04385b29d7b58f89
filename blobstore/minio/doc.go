// Package minio provides a BlobStore backed by the MinIO client, for MinIO
// and other S3-compatible object stores.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "datasets", "hyperplane/")
//	data, err := dataset.Load(ctx, store, "points.csv.gz", 0)
package minio
