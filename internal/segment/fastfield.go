package segment

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/lexgo/internal/conv"
	"github.com/hupe1980/lexgo/schema"
)

// Numeric fast field column (idx 0):
//
//	[min u64][width u8][uvarint numDocs][bit-packed (value - min)]
//
// Text fast fields use two sections: idx 0 holds numDocs+1 little-endian u32
// offsets into idx 1, which holds the concatenated values.

func encodeNumericColumn(vals []uint64) []byte {
	var lo, hi uint64
	if len(vals) > 0 {
		lo, hi = slices.Min(vals), slices.Max(vals)
	}
	width := bitWidth(hi - lo)

	out := binary.LittleEndian.AppendUint64(nil, lo)
	out = append(out, width)
	out = binary.AppendUvarint(out, uint64(len(vals)))

	shifted := make([]uint64, len(vals))
	for i, v := range vals {
		shifted[i] = v - lo
	}
	return packBits(out, shifted, width)
}

type numericColumn struct {
	min     uint64
	width   uint8
	numDocs int
	packed  []byte
}

func decodeNumericColumn(data []byte) (*numericColumn, error) {
	d := &decoder{buf: data}
	c := &numericColumn{min: d.fixed64(), width: d.byte()}
	n := d.uvarint()
	if d.err != nil {
		return nil, d.err
	}
	if c.width > 64 {
		return nil, fmt.Errorf("%w: fast field bit width %d", ErrCorrupt, c.width)
	}
	numDocs, err := conv.Uint64ToInt(n)
	if err != nil || n > math.MaxUint32 {
		return nil, fmt.Errorf("%w: fast field doc count %d", ErrCorrupt, n)
	}
	if packedLen(numDocs, c.width) > len(d.buf) {
		return nil, fmt.Errorf("%w: fast field column truncated", ErrCorrupt)
	}
	c.numDocs, c.packed = numDocs, d.buf
	return c, nil
}

func (c *numericColumn) get(doc uint32) uint64 {
	return c.min + unpackBits(c.packed, int(doc), c.width)
}

func encodeTextColumn(vals []string) (offsets, data []byte) {
	offsets = make([]byte, 0, (len(vals)+1)*4)
	offsets = binary.LittleEndian.AppendUint32(offsets, 0)
	for _, v := range vals {
		data = append(data, v...)
		offsets = binary.LittleEndian.AppendUint32(offsets, uint32(len(data)))
	}
	return offsets, data
}

type textColumn struct {
	offsets []byte
	data    []byte
}

func decodeTextColumn(offsets, data []byte, numDocs uint32) (*textColumn, error) {
	if len(offsets) != (int(numDocs)+1)*4 {
		return nil, fmt.Errorf("%w: text fast field has %d offset bytes for %d docs", ErrCorrupt, len(offsets), numDocs)
	}
	if last := binary.LittleEndian.Uint32(offsets[len(offsets)-4:]); int(last) != len(data) {
		return nil, fmt.Errorf("%w: text fast field data length mismatch", ErrCorrupt)
	}
	return &textColumn{offsets: offsets, data: data}, nil
}

func (c *textColumn) get(doc uint32) string {
	start := binary.LittleEndian.Uint32(c.offsets[doc*4:])
	end := binary.LittleEndian.Uint32(c.offsets[doc*4+4:])
	if start > end || int(end) > len(c.data) {
		return ""
	}
	return string(c.data[start:end])
}

// fromSortable maps a fast field value back to a typed value.
func fromSortable(t schema.FieldType, bits uint64) schema.Value {
	switch t {
	case schema.FieldTypeI64:
		return schema.I64(int64(bits ^ (1 << 63)))
	case schema.FieldTypeF64:
		if bits&(1<<63) != 0 {
			return schema.F64(math.Float64frombits(bits &^ (1 << 63)))
		}
		return schema.F64(math.Float64frombits(^bits))
	default:
		return schema.U64(bits)
	}
}
