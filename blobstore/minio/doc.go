// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This package
// uses the official MinIO Go client library for compatibility with MinIO
// and other S3-compatible storage systems like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.Connect("localhost:9000", "minioadmin", "minioadmin", false, "paints", "catalogs/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := colormatch.Open(ctx, colormatch.FromStore(store, "catalog.bin"))
//
// Catalog reads are ranged GETs, one per buffered refill of the decoder.
package minio
