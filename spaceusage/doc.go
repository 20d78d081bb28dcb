// Package spaceusage reports how many bytes the components of an index occupy.
//
// The report is a tree of immutable aggregates:
//
//	SearcherSpaceUsage
//	└── SegmentSpaceUsage (one per segment)
//	    ├── Termdict, Postings, Positions, FastFields, Fieldnorms (PerFieldSpaceUsage)
//	    │   └── FieldUsage (one per field, optionally split into sub parts)
//	    ├── Store (StoreSpaceUsage: data + offsets)
//	    └── Deletes (ByteCount)
//
// Every aggregate caches its total when it is built, and every total is the
// exact sum of its parts.
//
// Byte counts are what the segment readers report for their in-storage
// representation. File-system block granularity is not taken into account, so a
// file can occupy up to one block more on disk than reported. Small index-level
// files such as the manifest are not part of any total.
//
// Values in this package are built by a single writer and are safe for
// concurrent reads once they are handed out.
package spaceusage
