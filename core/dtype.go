package core

import (
	"math"

	"github.com/x448/float16"
)

// DType represents a tensor element type.
type DType uint8

const (
	Float16 DType = iota
	Float32
	BFloat16
)

// Size returns the byte size of one element of this type.
func (d DType) Size() uintptr {
	switch d {
	case Float16, BFloat16:
		return 2
	case Float32:
		return 4
	default:
		return 4
	}
}

// String returns a human-readable name for the type.
func (d DType) String() string {
	switch d {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case BFloat16:
		return "bfloat16"
	default:
		return "unknown"
	}
}

// Float16Value is the storage type for IEEE 754 half precision.
type Float16Value uint16

// Float32ToFloat16 rounds f to the nearest half (ties to even).
func Float32ToFloat16(f float32) Float16Value {
	return Float16Value(float16.Fromfloat32(f).Bits())
}

// Float32 widens h back to float32. Exact.
func (h Float16Value) Float32() float32 {
	return float16.Frombits(uint16(h)).Float32()
}

// BFloat16Value is the storage type for BFloat16 (upper 16 bits of float32).
type BFloat16Value uint16

// Float32ToBFloat16 truncates f to its upper 16 bits.
func Float32ToBFloat16(f float32) BFloat16Value {
	return BFloat16Value(math.Float32bits(f) >> 16)
}

// Float32 converts BFloat16 to float32 (left-shift 16).
func (b BFloat16Value) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}
