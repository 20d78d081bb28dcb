package segment

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/hupe1980/lexgo/internal/hash"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
)

// Composite files concatenate independent sections, each addressed by a
// (field, idx) pair, and end with a footer:
//
//	[section]...[entry: field u32, idx u32, offset u64, length u64]...[count u32][magic u32][crc32c u32]
//
// The footer is not attributed to any field.
const (
	compositeMagic     = 0x4c584331 // "LXC1"
	compositeEntrySize = 24
	compositeTrailer   = 8 + hash.ChecksumSize
)

type sectionKey struct {
	field schema.Field
	idx   uint32
}

type section struct {
	sectionKey
	offset uint64
	length uint64
}

// compositeWriter collects sections in insertion order.
type compositeWriter struct {
	data     []byte
	sections []section
}

// add appends a section. Each (field, idx) pair may only be written once.
func (w *compositeWriter) add(field schema.Field, idx uint32, data []byte) error {
	key := sectionKey{field: field, idx: idx}
	if slices.ContainsFunc(w.sections, func(s section) bool { return s.sectionKey == key }) {
		return fmt.Errorf("segment: section (%s, %d) written twice", field, idx)
	}
	w.sections = append(w.sections, section{
		sectionKey: key,
		offset:     uint64(len(w.data)),
		length:     uint64(len(data)),
	})
	w.data = append(w.data, data...)
	return nil
}

// bytes returns the complete file including the footer.
func (w *compositeWriter) bytes() []byte {
	out := slices.Grow(slices.Clip(w.data), len(w.sections)*compositeEntrySize+compositeTrailer)
	for _, s := range w.sections {
		out = binary.LittleEndian.AppendUint32(out, uint32(s.field))
		out = binary.LittleEndian.AppendUint32(out, s.idx)
		out = binary.LittleEndian.AppendUint64(out, s.offset)
		out = binary.LittleEndian.AppendUint64(out, s.length)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(w.sections)))
	out = binary.LittleEndian.AppendUint32(out, compositeMagic)
	return hash.AppendCRC32C(out)
}

// compositeFile is a decoded composite file. Section slices alias the
// underlying blob.
type compositeFile struct {
	data     []byte
	sections []section
	index    map[sectionKey]int
}

func openComposite(data []byte) (*compositeFile, error) {
	body, err := hash.VerifyCRC32C(data)
	if err != nil {
		return nil, fmt.Errorf("%w: composite file: %v", ErrCorrupt, err)
	}
	if len(body) < 8 {
		return nil, fmt.Errorf("%w: composite file too small", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(body[len(body)-4:]) != compositeMagic {
		return nil, fmt.Errorf("%w: composite file: bad magic", ErrCorrupt)
	}
	count := int(binary.LittleEndian.Uint32(body[len(body)-8:]))
	footerStart := len(body) - 8 - count*compositeEntrySize
	if count < 0 || footerStart < 0 {
		return nil, fmt.Errorf("%w: composite file: bad section count %d", ErrCorrupt, count)
	}

	f := &compositeFile{
		data:     body[:footerStart],
		sections: make([]section, count),
		index:    make(map[sectionKey]int, count),
	}
	footer := body[footerStart:]
	for i := range f.sections {
		e := footer[i*compositeEntrySize:]
		s := section{
			sectionKey: sectionKey{
				field: schema.Field(binary.LittleEndian.Uint32(e[0:])),
				idx:   binary.LittleEndian.Uint32(e[4:]),
			},
			offset: binary.LittleEndian.Uint64(e[8:]),
			length: binary.LittleEndian.Uint64(e[16:]),
		}
		// Indexes of one field are dense from zero, so none can reach count.
		if uint64(s.idx) >= uint64(count) {
			return nil, fmt.Errorf("%w: composite section (%s, %d) index out of range", ErrCorrupt, s.field, s.idx)
		}
		if s.offset > uint64(len(f.data)) || s.length > uint64(len(f.data))-s.offset {
			return nil, fmt.Errorf("%w: composite section (%s, %d) out of bounds", ErrCorrupt, s.field, s.idx)
		}
		if _, dup := f.index[s.sectionKey]; dup {
			return nil, fmt.Errorf("%w: composite section (%s, %d) repeated", ErrCorrupt, s.field, s.idx)
		}
		f.index[s.sectionKey] = i
		f.sections[i] = s
	}
	return f, nil
}

// section returns the bytes of (field, idx).
func (f *compositeFile) section(field schema.Field, idx uint32) ([]byte, bool) {
	i, ok := f.index[sectionKey{field: field, idx: idx}]
	if !ok {
		return nil, false
	}
	s := f.sections[i]
	return f.data[s.offset : s.offset+s.length], true
}

// spaceUsage attributes every section to its field, recording the section
// length at its idx.
func (f *compositeFile) spaceUsage() *spaceusage.PerFieldSpaceUsage {
	byField := make(map[schema.Field]*spaceusage.FieldUsage)
	var order []schema.Field
	for _, s := range f.sections {
		u, ok := byField[s.field]
		if !ok {
			u = spaceusage.NewFieldUsage(s.field)
			byField[s.field] = u
			order = append(order, s.field)
		}
		u.Record(int(s.idx), spaceusage.ByteCount(s.length))
	}

	usages := make([]*spaceusage.FieldUsage, 0, len(order))
	for _, field := range order {
		usages = append(usages, byField[field])
	}
	return spaceusage.NewPerFieldSpaceUsage(usages)
}
