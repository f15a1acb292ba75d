package tensor

import (
	"unsafe"
)

// Float32FromBytes returns a float32 slice that shares memory with b.
// b must have length divisible by 4.
func Float32FromBytes(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// uint16FromBytes views b as 16-bit words, for half-precision storage.
func uint16FromBytes(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}
