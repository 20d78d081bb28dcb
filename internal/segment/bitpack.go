package segment

import "math/bits"

// bitWidth returns the number of bits needed to represent v.
func bitWidth(v uint64) uint8 {
	return uint8(bits.Len64(v))
}

// packBits appends vals using width bits each, least significant bit first.
func packBits(dst []byte, vals []uint64, width uint8) []byte {
	if width == 0 {
		return dst
	}
	total := (len(vals)*int(width) + 7) / 8
	start := len(dst)
	dst = append(dst, make([]byte, total)...)
	out := dst[start:]

	bit := 0
	for _, v := range vals {
		for i := uint8(0); i < width; i++ {
			if v&(1<<i) != 0 {
				out[bit>>3] |= 1 << (bit & 7)
			}
			bit++
		}
	}
	return dst
}

// unpackBits reads the i-th value of width bits from packed.
func unpackBits(packed []byte, i int, width uint8) uint64 {
	var v uint64
	bit := i * int(width)
	for j := uint8(0); j < width; j++ {
		if packed[bit>>3]&(1<<(bit&7)) != 0 {
			v |= 1 << j
		}
		bit++
	}
	return v
}

// packedLen returns the byte length of n packed values.
func packedLen(n int, width uint8) int {
	return (n*int(width) + 7) / 8
}
