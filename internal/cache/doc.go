// Package cache holds decompressed document store blocks across segment
// readers, so repeated Doc lookups skip decompression.
package cache
