// Package hash provides the CRC32-Castagnoli checksums that guard segment
// component files.
//
// Component blobs end in a trailer whose last four bytes are the CRC32C of
// everything before them:
//
//	data := hash.AppendCRC32C(body)
//	body, err := hash.VerifyCRC32C(data)
package hash
