package tensor

import (
	"fmt"

	"github.com/UlisseMini/light/backend"
	"github.com/UlisseMini/light/core"
)

// ErrShape is returned when data or operands do not fit the requested shape.
var ErrShape = core.ErrShape

// Tensor is the core multi-dimensional array: storage + shape + strides + dtype.
//
// Tensors that take part in autodiff also carry Inputs, the tensors the
// Backward closure reads from, so the graph can be walked from the output.
// Grad is accumulated during backward and stays nil until then.
type Tensor struct {
	Storage      backend.Storage
	Shape        core.Shape
	Strides      core.Strides
	DType        core.DType
	Grad         *Tensor      // accumulated gradient (optional)
	Backward     func() error // propagates Grad into Inputs' Grad (optional)
	Inputs       []*Tensor    // operands of the op that produced this tensor
	RequiresGrad bool
}

// New creates a tensor from existing storage, shape, and strides.
// If strides is nil, contiguous row-major strides are computed.
func New(storage backend.Storage, shape core.Shape, strides core.Strides, dtype core.DType) *Tensor {
	if strides == nil {
		strides = core.ContiguousStrides(shape, dtype.Size())
	}
	return &Tensor{
		Storage: storage,
		Shape:   shape,
		Strides: strides,
		DType:   dtype,
	}
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.Shape.NumElements()
}

// Contiguous returns true if the tensor is row-major contiguous.
func (t *Tensor) Contiguous() bool {
	expected := core.ContiguousStrides(t.Shape, t.DType.Size())
	if len(expected) != len(t.Strides) {
		return false
	}
	for i := range expected {
		if expected[i] != t.Strides[i] {
			return false
		}
	}
	return true
}

// Backend returns the backend owning t's storage.
func (t *Tensor) Backend() (backend.Backend, error) {
	return backend.GetForDevice(t.Storage.Device())
}

// View returns a new tensor sharing storage with t but with the given shape.
// The product of shape must equal t.NumElements(). Strides are recomputed as contiguous.
func (t *Tensor) View(shape ...int) (*Tensor, error) {
	s := core.Shape(shape)
	if s.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("view shape %v has %d elements, tensor has %d: %w", shape, s.NumElements(), t.NumElements(), ErrShape)
	}
	if !t.Contiguous() {
		return nil, fmt.Errorf("view of non-contiguous tensor with shape %v", t.Shape)
	}
	strides := core.ContiguousStrides(s, t.DType.Size())
	return New(t.Storage, s, strides, t.DType), nil
}

// Transpose returns a 2-D view with axes swapped. The data is not moved.
func (t *Tensor) Transpose() (*Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("transpose only supported for 2D tensors, got shape %v", t.Shape)
	}
	newShape := core.Shape{t.Shape[1], t.Shape[0]}
	newStrides := core.Strides{t.Strides[1], t.Strides[0]}
	return New(t.Storage, newShape, newStrides, t.DType), nil
}

// FromFloat32 creates a new CPU tensor from a float32 slice (copy; contiguous).
func FromFloat32(data []float32, shape ...int) (*Tensor, error) {
	s := core.Shape(shape)
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v has %d elements, data has %d: %w", shape, s.NumElements(), len(data), ErrShape)
	}
	out, err := alloc(s, core.Float32)
	if err != nil {
		return nil, err
	}
	copy(out.Float32(), data)
	return out, nil
}

// Zeros returns a zero-filled float32 CPU tensor.
func Zeros(shape ...int) (*Tensor, error) {
	s := core.Shape(shape)
	if s.NumElements() == 0 {
		return nil, fmt.Errorf("zeros: empty shape %v: %w", shape, ErrShape)
	}
	return alloc(s, core.Float32)
}

// Full returns a float32 CPU tensor with every element set to value.
func Full(value float32, shape ...int) (*Tensor, error) {
	t, err := Zeros(shape...)
	if err != nil {
		return nil, err
	}
	be, err := t.Backend()
	if err != nil {
		return nil, err
	}
	if err := be.Fill(t.Storage, t.NumElements(), value); err != nil {
		return nil, err
	}
	return t, nil
}

// ZerosLike returns a zero-filled contiguous tensor with t's shape and device.
func ZerosLike(t *Tensor) (*Tensor, error) {
	be, err := t.Backend()
	if err != nil {
		return nil, err
	}
	return allocOn(be, t.Shape.Clone(), core.Float32)
}

func alloc(s core.Shape, dtype core.DType) (*Tensor, error) {
	be, err := backend.GetForDevice(backend.CPU0)
	if err != nil {
		return nil, err
	}
	return allocOn(be, s, dtype)
}

func allocOn(be backend.Backend, s core.Shape, dtype core.DType) (*Tensor, error) {
	storage, err := be.Alloc(s.NumElements() * int(dtype.Size()))
	if err != nil {
		return nil, err
	}
	return New(storage, s, core.ContiguousStrides(s, dtype.Size()), dtype), nil
}

// Float32 returns the underlying float32 slice for CPU tensors (shared memory).
// Panics if not Float32 dtype.
func (t *Tensor) Float32() []float32 {
	if t.DType != core.Float32 {
		panic("Float32() only for Float32 tensors")
	}
	return Float32FromBytes(t.Storage.Bytes())
}

// Item returns the value of a one-element tensor.
func (t *Tensor) Item() (float32, error) {
	if t.NumElements() != 1 {
		return 0, fmt.Errorf("item of tensor with shape %v: %w", t.Shape, ErrShape)
	}
	return t.Float32()[0], nil
}

// Clone allocates a new contiguous tensor with the same shape and copies data.
// The clone is detached: it carries no gradient or graph.
func (t *Tensor) Clone() (*Tensor, error) {
	be, err := t.Backend()
	if err != nil {
		return nil, err
	}
	out, err := allocOn(be, t.Shape.Clone(), t.DType)
	if err != nil {
		return nil, err
	}
	if t.Contiguous() || len(t.Shape) != 2 {
		byteLen := t.NumElements() * int(t.DType.Size())
		if err := be.Copy(out.Storage, t.Storage, byteLen); err != nil {
			out.Storage.Free()
			return nil, err
		}
		return out, nil
	}
	// Transposed 2-D view: materialize it.
	if err := be.Transpose(out.Storage, t.Storage, 1, t.Shape[1], t.Shape[0]); err != nil {
		out.Storage.Free()
		return nil, err
	}
	return out, nil
}
