package conv

import (
	"fmt"
	"math"
)

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d does not fit in uint32", v)
	}
	return uint32(v), nil
}

// Uint64ToInt converts uint64 to int safely.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d does not fit in int", v)
	}
	return int(v), nil
}

// Len converts a decoded length to int and checks it against the number of
// bytes that remain in the buffer.
func Len(v uint64, remaining int) (int, error) {
	n, err := Uint64ToInt(v)
	if err != nil {
		return 0, err
	}
	if n > remaining {
		return 0, fmt.Errorf("length %d exceeds remaining %d bytes", n, remaining)
	}
	return n, nil
}
