// Package s3 provides an S3 implementation of the blobstore.WritableStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("catalogs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	m, err := colormatch.Open(ctx, colormatch.FromStore(store, "paint.bin"))
//
// # Features
//
//   - Range reads for the streaming fallback scan
//   - Multipart uploads for large catalogs
//   - Configurable prefix for multi-tenant isolation
package s3
