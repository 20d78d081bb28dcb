package spaceusage

import "encoding/json"

// SearcherSpaceUsage is the space used by every segment of a searcher.
//
// It is filled with AddSegment while a searcher is measured and must not be
// modified after it has been returned to a caller.
type SearcherSpaceUsage struct {
	segments []*SegmentSpaceUsage
	total    ByteCount
}

// NewSearcherSpaceUsage returns a usage with no segments.
func NewSearcherSpaceUsage() *SearcherSpaceUsage {
	return &SearcherSpaceUsage{}
}

// AddSegment appends a segment and adds its total.
// Segments are not deduplicated; adding the same segment twice counts it twice.
func (s *SearcherSpaceUsage) AddSegment(seg *SegmentSpaceUsage) {
	s.total += seg.Total()
	s.segments = append(s.segments, seg)
}

// Segments returns the segments in the order they were added.
// The returned slice must not be modified.
func (s *SearcherSpaceUsage) Segments() []*SegmentSpaceUsage {
	return s.segments
}

// Total returns the bytes used by all large segment components.
// Index level metadata such as the manifest is not included.
func (s *SearcherSpaceUsage) Total() ByteCount {
	return s.total
}

// ComponentTotal sums the given component over all segments.
func (s *SearcherSpaceUsage) ComponentTotal(c SegmentComponent) ByteCount {
	var total ByteCount
	for _, seg := range s.segments {
		total += seg.ComponentTotal(c)
	}
	return total
}

type searcherJSON struct {
	Segments []*SegmentSpaceUsage `json:"segments"`
	Total    ByteCount            `json:"total"`
}

// MarshalJSON implements json.Marshaler.
func (s *SearcherSpaceUsage) MarshalJSON() ([]byte, error) {
	segs := s.segments
	if segs == nil {
		segs = []*SegmentSpaceUsage{}
	}
	return json.Marshal(searcherJSON{Segments: segs, Total: s.total})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SearcherSpaceUsage) UnmarshalJSON(data []byte) error {
	var aux searcherJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	decoded := NewSearcherSpaceUsage()
	for _, seg := range aux.Segments {
		if seg == nil {
			continue
		}
		decoded.AddSegment(seg)
	}
	if decoded.total != aux.Total {
		return inconsistent("searcher usage", aux.Total, decoded.total)
	}
	*s = *decoded
	return nil
}
