package segment

import (
	"encoding/binary"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hupe1980/lexgo/schema"
)

// Posting is one document entry of a term's postings list.
type Posting struct {
	Doc       uint32
	TermFreq  uint32
	Positions []uint32
}

// Term returns the indexed term for a value of a field:
// lowercased text, the raw string, or the 8-byte big-endian sortable
// encoding of a number.
func Term(e schema.FieldEntry, v schema.Value) string {
	switch e.Type {
	case schema.FieldTypeText:
		return strings.ToLower(v.Str)
	case schema.FieldTypeStr:
		return v.Str
	default:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v.SortableBits())
		return string(b[:])
	}
}

// fieldIndex accumulates the inverted index of one field.
type fieldIndex struct {
	terms map[string][]Posting
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{terms: make(map[string][]Posting)}
}

// add records one occurrence of term in doc. Docs must be added in
// ascending order.
func (f *fieldIndex) add(term string, doc, pos uint32, withPositions bool) {
	list := f.terms[term]
	if n := len(list); n == 0 || list[n-1].Doc != doc {
		list = append(list, Posting{Doc: doc})
	}
	p := &list[len(list)-1]
	p.TermFreq++
	if withPositions {
		p.Positions = append(p.Positions, pos)
	}
	f.terms[term] = list
}

// encode returns the term dictionary, postings and positions sections.
// positions is nil unless withPositions is set.
//
// Term dictionary: uvarint term count, then per term in byte order
// [term bytes][doc freq][postings offset][positions offset].
// Postings: per term, delta-coded doc ids each followed by the term frequency.
// Positions: per posting, delta-coded positions.
func (f *fieldIndex) encode(withPositions bool) (termdict, postings, positions []byte) {
	terms := slices.Sorted(maps.Keys(f.terms))
	termdict = binary.AppendUvarint(nil, uint64(len(terms)))
	if withPositions {
		positions = []byte{}
	}

	for _, term := range terms {
		list := f.terms[term]
		termdict = appendBytes(termdict, []byte(term))
		termdict = binary.AppendUvarint(termdict, uint64(len(list)))
		termdict = binary.AppendUvarint(termdict, uint64(len(postings)))
		termdict = binary.AppendUvarint(termdict, uint64(len(positions)))

		var prev uint32
		for _, p := range list {
			postings = binary.AppendUvarint(postings, uint64(p.Doc-prev))
			postings = binary.AppendUvarint(postings, uint64(p.TermFreq))
			prev = p.Doc
			if withPositions {
				var last uint32
				for _, pos := range p.Positions {
					positions = binary.AppendUvarint(positions, uint64(pos-last))
					last = pos
				}
			}
		}
	}
	return termdict, postings, positions
}

type termInfo struct {
	docFreq        uint32
	postingsOffset int
	positionOffset int
}

// invertedField is the decoded index of one field.
type invertedField struct {
	terms     map[string]termInfo
	postings  []byte
	positions []byte
}

func decodeInvertedField(termdict, postings, positions []byte) (*invertedField, error) {
	d := &decoder{buf: termdict}
	n := d.uvarint()
	if d.err == nil && n > uint64(len(d.buf)) {
		d.fail("term count %d", n)
	}
	f := &invertedField{
		terms:     make(map[string]termInfo, n),
		postings:  postings,
		positions: positions,
	}
	for i := uint64(0); i < n && d.err == nil; i++ {
		term := string(d.bytes())
		info := termInfo{docFreq: d.uint32()}
		po, xo := d.uvarint(), d.uvarint()
		if po > uint64(len(postings)) || xo > uint64(len(positions)) {
			d.fail("term %q offsets out of range", term)
			break
		}
		info.postingsOffset, info.positionOffset = int(po), int(xo)
		f.terms[term] = info
	}
	if d.err != nil {
		return nil, fmt.Errorf("term dictionary: %w", d.err)
	}
	return f, nil
}

// sortedTerms returns the terms in byte order.
func (f *invertedField) sortedTerms() []string {
	return slices.Sorted(maps.Keys(f.terms))
}

func (f *invertedField) postingsFor(term string, withPositions bool) ([]Posting, error) {
	info, ok := f.terms[term]
	if !ok {
		return nil, nil
	}

	d := &decoder{buf: f.postings[info.postingsOffset:]}
	var pd *decoder
	if withPositions {
		pd = &decoder{buf: f.positions[info.positionOffset:]}
	}

	list := make([]Posting, 0, info.docFreq)
	var doc uint32
	for i := uint32(0); i < info.docFreq && d.err == nil; i++ {
		doc += d.uint32()
		p := Posting{Doc: doc, TermFreq: d.uint32()}
		if pd != nil {
			if uint64(p.TermFreq) > uint64(len(pd.buf)) {
				pd.fail("term frequency %d exceeds positions", p.TermFreq)
				break
			}
			p.Positions = make([]uint32, p.TermFreq)
			var pos uint32
			for j := range p.Positions {
				pos += pd.uint32()
				p.Positions[j] = pos
			}
		}
		list = append(list, p)
	}
	if d.err != nil {
		return nil, fmt.Errorf("postings of %q: %w", term, d.err)
	}
	if pd != nil && pd.err != nil {
		return nil, fmt.Errorf("positions of %q: %w", term, pd.err)
	}
	return list, nil
}
