package tensor

import "github.com/UlisseMini/light/core"

// Re-export core types so callers can use tensor.Shape, tensor.DType, etc.
// without importing core directly.

type (
	// Shape is core.Shape.
	Shape = core.Shape
	// Strides is core.Strides.
	Strides = core.Strides
	// DType is core.DType.
	DType = core.DType
)

const (
	Float16  = core.Float16
	Float32  = core.Float32
	BFloat16 = core.BFloat16
)
