// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/products"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	idx, err := lexgo.Open(ctx, lexgo.Remote(store), sch)
//
// Segment files are written once and never modified, so plain S3 semantics
// suffice for them. The CURRENT pointer is the only mutable object; use
// DDBCommitStore when more than one process may commit to the same prefix.
package s3
