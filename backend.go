package lexgo

import (
	"github.com/hupe1980/lexgo/blobstore"
)

// Backend is the blob store an index lives in.
type Backend struct {
	store blobstore.BlobStore
	name  string
}

// Memory returns a backend holding the index in memory.
func Memory() Backend {
	return Backend{store: blobstore.NewMemoryStore(), name: "memory"}
}

// Local returns a backend storing the index in dir.
// The directory is created on first write.
func Local(dir string) Backend {
	return Backend{store: blobstore.NewLocalStore(dir), name: "local:" + dir}
}

// Remote returns a backend on top of any blob store, e.g. s3.Store,
// s3.DDBCommitStore or minio.Store.
func Remote(store blobstore.BlobStore) Backend {
	return Backend{store: store, name: "remote"}
}

// Store returns the underlying blob store.
func (b Backend) Store() blobstore.BlobStore { return b.store }

func (b Backend) String() string { return b.name }
