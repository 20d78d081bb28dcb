package spaceusage

import (
	"encoding/json"

	"github.com/dustin/go-humanize"
)

// ByteCount is a number of bytes.
type ByteCount uint64

// Add returns b + other.
func (b ByteCount) Add(other ByteCount) ByteCount {
	return b + other
}

// Total returns b. It makes a raw byte count usable as a ComponentSpaceUsage.
func (b ByteCount) Total() ByteCount {
	return b
}

// String returns a human-readable size such as "1.5 KiB".
func (b ByteCount) String() string {
	return humanize.IBytes(uint64(b))
}

func (ByteCount) isComponentSpaceUsage() {}

// Sum adds up all counts.
func Sum(counts ...ByteCount) ByteCount {
	var total ByteCount
	for _, c := range counts {
		total += c
	}
	return total
}

// OptionalByteCount is a byte count that may be absent.
// It encodes to JSON as null when absent.
type OptionalByteCount struct {
	Bytes   ByteCount
	Present bool
}

// Some returns a present OptionalByteCount.
func Some(b ByteCount) OptionalByteCount {
	return OptionalByteCount{Bytes: b, Present: true}
}

// Get returns the count and whether it is present.
func (o OptionalByteCount) Get() (ByteCount, bool) {
	return o.Bytes, o.Present
}

// MarshalJSON implements json.Marshaler.
func (o OptionalByteCount) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(uint64(o.Bytes))
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalByteCount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalByteCount{}
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = Some(ByteCount(n))
	return nil
}
