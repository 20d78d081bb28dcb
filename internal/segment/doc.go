// Package segment implements the immutable on-disk segment format.
//
// A segment is a set of blobs sharing one ID:
//
//	<id>.term       term dictionary        composite, one section per indexed field
//	<id>.idx        postings               composite
//	<id>.pos        positions              composite, text fields with positions only
//	<id>.fast       fast fields            composite, numeric idx 0, text offsets idx 0 + data idx 1
//	<id>.fieldnorm  field norms            composite, one byte per document
//	<id>.store      document store         compressed blocks + offsets index
//	<id>.<gen>.del  deleted documents      roaring bitmap, one blob per delete generation
//
// Writer buffers documents in memory and writes every component at Finish.
// Reader loads the components of a committed segment and reports their
// space usage.
package segment
