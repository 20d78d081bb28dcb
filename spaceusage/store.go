package spaceusage

import "encoding/json"

// StoreSpaceUsage is the space used by the document store of a segment.
//
// The store has two parts: the compressed document blocks (data) and the
// index that maps a document to the block holding it (offsets).
type StoreSpaceUsage struct {
	data    ByteCount
	offsets ByteCount
}

// NewStoreSpaceUsage creates a store usage from its two parts.
func NewStoreSpaceUsage(data, offsets ByteCount) StoreSpaceUsage {
	return StoreSpaceUsage{data: data, offsets: offsets}
}

// DataUsage returns the bytes used by compressed document blocks.
func (s StoreSpaceUsage) DataUsage() ByteCount {
	return s.data
}

// OffsetsUsage returns the bytes used by the block offset index.
func (s StoreSpaceUsage) OffsetsUsage() ByteCount {
	return s.offsets
}

// Total returns data + offsets.
func (s StoreSpaceUsage) Total() ByteCount {
	return s.data + s.offsets
}

func (StoreSpaceUsage) isComponentSpaceUsage() {}

type storeJSON struct {
	Data    ByteCount `json:"data"`
	Offsets ByteCount `json:"offsets"`
}

// MarshalJSON implements json.Marshaler.
func (s StoreSpaceUsage) MarshalJSON() ([]byte, error) {
	return json.Marshal(storeJSON{Data: s.data, Offsets: s.offsets})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StoreSpaceUsage) UnmarshalJSON(data []byte) error {
	var aux storeJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = NewStoreSpaceUsage(aux.Data, aux.Offsets)
	return nil
}
