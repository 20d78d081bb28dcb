package segment

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/lexgo/internal/cache"
	"github.com/hupe1980/lexgo/internal/conv"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
)

// DefaultStoreBlockSize is the uncompressed size at which a store block is cut.
const DefaultStoreBlockSize = 16 * 1024

// Store layout:
//
//	[block]...[offsets index][data length u64][compression u8][magic u32]
//
// The offsets index is a uvarint block count followed by, for each block, the
// delta of its first doc id and the delta of its byte offset, and finally the
// total number of docs.
const (
	storeMagic       = 0x4c585331 // "LXS1"
	storeTrailerSize = 8 + 1 + 4
)

type storeBlock struct {
	firstDoc uint32
	offset   uint64
}

// storeWriter serializes stored fields into compressed blocks.
type storeWriter struct {
	compression Compression
	blockSize   int

	data    []byte
	blocks  []storeBlock
	pending []byte
	first   uint32
	numDocs uint32
}

func newStoreWriter(c Compression, blockSize int) *storeWriter {
	if blockSize <= 0 {
		blockSize = DefaultStoreBlockSize
	}
	return &storeWriter{compression: c, blockSize: blockSize}
}

// add appends the stored values of the next document. On error the writer
// is left as it was before the call.
func (w *storeWriter) add(values []schema.FieldValue) error {
	doc := encodeStoredDoc(values)
	mark := len(w.pending)
	w.pending = appendBytes(w.pending, doc)
	w.numDocs++
	if len(w.pending) >= w.blockSize {
		if err := w.flush(); err != nil {
			w.pending = w.pending[:mark]
			w.numDocs--
			return err
		}
	}
	return nil
}

func (w *storeWriter) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	block, err := compressBlock(w.pending, w.compression)
	if err != nil {
		return err
	}
	w.blocks = append(w.blocks, storeBlock{firstDoc: w.first, offset: uint64(len(w.data))})
	w.data = append(w.data, block...)
	w.pending = w.pending[:0]
	w.first = w.numDocs
	return nil
}

// finish returns the complete store blob.
func (w *storeWriter) finish() ([]byte, error) {
	if err := w.flush(); err != nil {
		return nil, err
	}
	out := w.data
	out = binary.AppendUvarint(out, uint64(len(w.blocks)))
	var prevDoc uint32
	var prevOff uint64
	for _, b := range w.blocks {
		out = binary.AppendUvarint(out, uint64(b.firstDoc-prevDoc))
		out = binary.AppendUvarint(out, b.offset-prevOff)
		prevDoc, prevOff = b.firstDoc, b.offset
	}
	out = binary.AppendUvarint(out, uint64(w.numDocs))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(w.data)))
	out = append(out, byte(w.compression))
	out = binary.LittleEndian.AppendUint32(out, storeMagic)
	return out, nil
}

func encodeStoredDoc(values []schema.FieldValue) []byte {
	out := binary.AppendUvarint(nil, uint64(len(values)))
	for _, fv := range values {
		out = binary.AppendUvarint(out, uint64(fv.Field))
		out = append(out, byte(fv.Value.Kind))
		switch fv.Value.Kind {
		case schema.KindU64:
			out = binary.AppendUvarint(out, fv.Value.U64)
		case schema.KindI64:
			out = binary.AppendVarint(out, fv.Value.I64)
		case schema.KindF64:
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(fv.Value.F64))
		case schema.KindString:
			out = appendBytes(out, []byte(fv.Value.Str))
		}
	}
	return out
}

func decodeStoredDoc(data []byte) (*schema.Document, error) {
	d := &decoder{buf: data}
	n := d.uvarint()
	if d.err != nil {
		return nil, d.err
	}
	if _, err := conv.Len(n, len(d.buf)); err != nil {
		return nil, fmt.Errorf("%w: stored doc: %v", ErrCorrupt, err)
	}

	doc := schema.NewDocument()
	for i := uint64(0); i < n && d.err == nil; i++ {
		field := schema.Field(d.uint32())
		kind := schema.Kind(d.byte())
		switch kind {
		case schema.KindU64:
			doc.AddU64(field, d.uvarint())
		case schema.KindI64:
			v, m := binary.Varint(d.buf)
			if m <= 0 {
				d.fail("bad varint")
				break
			}
			d.buf = d.buf[m:]
			doc.AddI64(field, v)
		case schema.KindF64:
			doc.AddF64(field, math.Float64frombits(d.fixed64()))
		case schema.KindString:
			doc.AddText(field, string(d.bytes()))
		default:
			d.fail("unknown value kind %d", kind)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return doc, nil
}

// storeReader reads documents from a store blob.
type storeReader struct {
	compression Compression
	data        []byte
	blocks      []storeBlock
	numDocs     uint32
	offsetsLen  int

	segment string
	cache   *cache.LRU
}

// openStore parses a store blob. Decompressed blocks are shared through c
// under segment; c may be nil.
func openStore(blob []byte, segment string, c *cache.LRU) (*storeReader, error) {
	if len(blob) < storeTrailerSize {
		return nil, fmt.Errorf("%w: store too small", ErrCorrupt)
	}
	trailer := blob[len(blob)-storeTrailerSize:]
	if binary.LittleEndian.Uint32(trailer[9:]) != storeMagic {
		return nil, fmt.Errorf("%w: store: bad magic", ErrCorrupt)
	}
	dataLen, err := conv.Len(binary.LittleEndian.Uint64(trailer[0:]), len(blob)-storeTrailerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: store: %v", ErrCorrupt, err)
	}

	r := &storeReader{
		compression: Compression(trailer[8]),
		data:        blob[:dataLen],
		offsetsLen:  len(blob) - dataLen,
		segment:     segment,
		cache:       c,
	}

	d := &decoder{buf: blob[dataLen : len(blob)-storeTrailerSize]}
	n := d.uvarint()
	if _, err := conv.Len(n, len(d.buf)); d.err == nil && err != nil {
		return nil, fmt.Errorf("%w: store: %v", ErrCorrupt, err)
	}
	r.blocks = make([]storeBlock, 0, n)
	var doc uint32
	var off uint64
	for i := uint64(0); i < n && d.err == nil; i++ {
		doc += d.uint32()
		off += d.uvarint()
		if off > uint64(dataLen) {
			d.fail("block offset %d beyond data", off)
		}
		r.blocks = append(r.blocks, storeBlock{firstDoc: doc, offset: off})
	}
	r.numDocs = d.uint32()
	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}

// spaceUsage splits the blob into the block data and everything after it.
func (r *storeReader) spaceUsage() spaceusage.StoreSpaceUsage {
	return spaceusage.NewStoreSpaceUsage(spaceusage.ByteCount(len(r.data)), spaceusage.ByteCount(r.offsetsLen))
}

func (r *storeReader) block(i int) ([]byte, error) {
	key := cache.Key{Segment: r.segment, Block: i}
	if raw, ok := r.cache.Get(key); ok {
		return raw, nil
	}
	raw, _, err := decompressBlock(r.data[r.blocks[i].offset:], r.compression)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, raw)
	return raw, nil
}

// doc returns the stored fields of doc.
func (r *storeReader) doc(doc uint32) (*schema.Document, error) {
	if doc >= r.numDocs {
		return nil, fmt.Errorf("%w: %d >= %d", ErrDocOutOfRange, doc, r.numDocs)
	}
	i := sort.Search(len(r.blocks), func(i int) bool { return r.blocks[i].firstDoc > doc }) - 1
	if i < 0 {
		return nil, fmt.Errorf("%w: store: no block for doc %d", ErrCorrupt, doc)
	}

	raw, err := r.block(i)
	if err != nil {
		return nil, err
	}
	d := &decoder{buf: raw}
	for skip := doc - r.blocks[i].firstDoc; skip > 0 && d.err == nil; skip-- {
		d.bytes()
	}
	data := d.bytes()
	if d.err != nil {
		return nil, d.err
	}
	return decodeStoredDoc(data)
}
