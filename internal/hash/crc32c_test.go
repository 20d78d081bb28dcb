package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C_KnownValue(t *testing.T) {
	// RFC 3720 B.4 test vector: 32 bytes of zeros.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))
}

func TestCRC32C_Streaming(t *testing.T) {
	h := NewCRC32C()
	_, _ = h.Write([]byte("hello "))
	_, _ = h.Write([]byte("world"))
	assert.Equal(t, CRC32C([]byte("hello world")), h.Sum32())
}

func TestAppendVerify(t *testing.T) {
	data := AppendCRC32C([]byte("segment body"))
	require.Len(t, data, len("segment body")+ChecksumSize)

	body, err := VerifyCRC32C(data)
	require.NoError(t, err)
	assert.Equal(t, "segment body", string(body))

	data[0] ^= 0xff
	_, err = VerifyCRC32C(data)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = VerifyCRC32C([]byte{1, 2})
	assert.ErrorIs(t, err, ErrChecksum)
}
