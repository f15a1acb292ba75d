package tensor

import (
	"fmt"

	"github.com/UlisseMini/light/backend"
	"github.com/UlisseMini/light/core"
)

// To returns a contiguous copy of t stored as dtype. Only conversions
// between Float32 and the 16-bit float types are supported; converting to
// the same dtype clones.
func (t *Tensor) To(dtype core.DType) (*Tensor, error) {
	if t.DType == dtype {
		return t.Clone()
	}
	src := t
	if !t.Contiguous() {
		var err error
		if src, err = t.Clone(); err != nil {
			return nil, err
		}
	}
	be, err := t.Backend()
	if err != nil {
		return nil, err
	}
	out, err := allocOn(be, t.Shape.Clone(), dtype)
	if err != nil {
		return nil, err
	}
	switch {
	case src.DType == core.Float32 && dtype == core.Float16:
		dst := uint16FromBytes(out.Storage.Bytes())
		for i, v := range src.Float32() {
			dst[i] = uint16(core.Float32ToFloat16(v))
		}
	case src.DType == core.Float32 && dtype == core.BFloat16:
		dst := uint16FromBytes(out.Storage.Bytes())
		for i, v := range src.Float32() {
			dst[i] = uint16(core.Float32ToBFloat16(v))
		}
	case src.DType == core.Float16 && dtype == core.Float32:
		dst := out.Float32()
		for i, h := range uint16FromBytes(src.Storage.Bytes()) {
			dst[i] = core.Float16Value(h).Float32()
		}
	case src.DType == core.BFloat16 && dtype == core.Float32:
		dst := out.Float32()
		for i, h := range uint16FromBytes(src.Storage.Bytes()) {
			dst[i] = core.BFloat16Value(h).Float32()
		}
	default:
		out.Storage.Free()
		return nil, fmt.Errorf("convert %v to %v: %w", src.DType, dtype, backend.ErrUnsupported)
	}
	return out, nil
}
