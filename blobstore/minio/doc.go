// Package minio provides a BlobStore backed by MinIO or any other
// S3-compatible server (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	store, err := minio.Connect("localhost:9000", "minioadmin", "minioadmin", "indexes",
//	    minio.WithPrefix("products"),
//	)
//	idx, err := lexgo.Open(ctx, lexgo.Remote(store), sch)
package minio
