// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    func(o *s3.Options) {
//	        o.Prefix = "datasets/"
//	        o.Region = "eu-central-1"
//	    },
//	)
//	data, err := dataset.Load(ctx, store, "points.fbin", 128)
//
// Blobs read byte ranges with GetObject. Whole-object reads and Put go
// through the s3 transfer manager, which splits them into parallel parts.
package s3
