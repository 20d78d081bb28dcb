package segment

import (
	"bytes"
	"context"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/spaceusage"
)

// DeleteSet is the set of deleted doc ids of a segment.
// It is not safe for concurrent mutation.
type DeleteSet struct {
	rb *roaring.Bitmap
}

// NewDeleteSet returns an empty set.
func NewDeleteSet() *DeleteSet {
	return &DeleteSet{rb: roaring.New()}
}

// DecodeDeleteSet decodes a serialized set.
func DecodeDeleteSet(data []byte) (*DeleteSet, error) {
	rb := roaring.New()
	if _, err := rb.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: delete bitmap: %v", ErrCorrupt, err)
	}
	return &DeleteSet{rb: rb}, nil
}

// Add marks doc as deleted and reports whether it was live before.
func (d *DeleteSet) Add(doc uint32) bool {
	return d.rb.CheckedAdd(doc)
}

// Contains reports whether doc is deleted. A nil set contains nothing.
func (d *DeleteSet) Contains(doc uint32) bool {
	return d != nil && d.rb.Contains(doc)
}

// Len returns the number of deleted docs.
func (d *DeleteSet) Len() uint32 {
	if d == nil {
		return 0
	}
	return uint32(d.rb.GetCardinality())
}

// Clone returns a deep copy. Cloning nil yields an empty set.
func (d *DeleteSet) Clone() *DeleteSet {
	if d == nil {
		return NewDeleteSet()
	}
	return &DeleteSet{rb: d.rb.Clone()}
}

// All iterates the deleted doc ids in ascending order.
func (d *DeleteSet) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if d == nil {
			return
		}
		it := d.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Encode serializes the set in the portable roaring format.
func (d *DeleteSet) Encode() ([]byte, error) {
	d.rb.RunOptimize()
	var buf bytes.Buffer
	if _, err := d.rb.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("segment: encode delete bitmap: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDeletes stores ds as delete generation gen of segment id and returns
// the number of bytes written.
func WriteDeletes(ctx context.Context, store blobstore.BlobStore, id ID, gen uint64, ds *DeleteSet) (int, error) {
	data, err := ds.Encode()
	if err != nil {
		return 0, err
	}
	name := Filename(id, spaceusage.Delete, gen)
	if err := store.Put(ctx, name, data); err != nil {
		return 0, fmt.Errorf("segment: write %s: %w", name, err)
	}
	return len(data), nil
}
