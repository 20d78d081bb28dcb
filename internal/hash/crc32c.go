package hash

import (
	"encoding/binary"
	"errors"
	"hash"
	"hash/crc32"
)

// ErrChecksum is returned when a trailing checksum does not match.
var ErrChecksum = errors.New("checksum mismatch")

// ChecksumSize is the length of an appended CRC32C.
const ChecksumSize = 4

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a streaming CRC32-Castagnoli hash.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// AppendCRC32C appends the little-endian checksum of data to data.
func AppendCRC32C(data []byte) []byte {
	return binary.LittleEndian.AppendUint32(data, CRC32C(data))
}

// VerifyCRC32C checks the trailing checksum of data and returns the body
// without it.
func VerifyCRC32C(data []byte) ([]byte, error) {
	if len(data) < ChecksumSize {
		return nil, ErrChecksum
	}
	body := data[:len(data)-ChecksumSize]
	if binary.LittleEndian.Uint32(data[len(body):]) != CRC32C(body) {
		return nil, ErrChecksum
	}
	return body, nil
}
