package backend

import (
	"errors"
	"fmt"

	"github.com/UlisseMini/light/core"
)

// DeviceType identifies the kind of hardware.
type DeviceType uint8

const (
	CPU DeviceType = iota
	CUDA
)

func (d DeviceType) String() string {
	switch d {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	default:
		return fmt.Sprintf("device(%d)", uint8(d))
	}
}

// Device identifies a specific device (e.g. GPU 0).
type Device struct {
	Type  DeviceType
	Index int
}

// CPU0 is the default CPU device.
var CPU0 = Device{Type: CPU, Index: 0}

// Storage represents raw memory on a device.
type Storage interface {
	Device() Device
	Bytes() []byte // CPU only; nil for GPU
	ByteLen() int
	Free()
}

// Backend is the contract every hardware backend must implement.
// All arithmetic is float32.
type Backend interface {
	Name() string
	DeviceType() DeviceType

	Alloc(byteLen int) (Storage, error)
	Free(s Storage)
	Copy(dst, src Storage, byteLen int) error
	ToDevice(dst Device, src Storage) (Storage, error)

	// Unary (dst, src, nElems)
	Neg(dst, src Storage, nElems int) error
	Scale(dst, src Storage, nElems int, alpha float32) error

	// Axpy: y += alpha * x
	Axpy(y, x Storage, nElems int, alpha float32) error

	// Binary with broadcasting: dst = a op b (shape = broadcast(aShape, bShape))
	Add(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error
	Sub(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error
	Mul(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error

	// Reductions: axis -1 = all axes; keepDim = keep reduced dim as 1
	Sum(dst, src Storage, srcShape core.Shape, srcStrides core.Strides, axis int, keepDim bool) error

	// MatMul: C += A @ B. A [..., M, K], B [..., K, N], C [..., M, N]. Batched by leading dims.
	// dst is accumulated into, so callers zero it first for a plain product.
	MatMul(dst, a, b Storage, batchSize, M, N, K int) error

	// Transpose writes the contiguous [..., cols, rows] transpose of a contiguous [..., rows, cols] src.
	Transpose(dst, src Storage, batchSize, rows, cols int) error

	Fill(dst Storage, nElems int, value float32) error
}

var registry = make(map[DeviceType]Backend)

// Register adds a backend for its device type.
func Register(b Backend) {
	registry[b.DeviceType()] = b
}

// Get returns the backend for a device type.
func Get(dt DeviceType) (Backend, error) {
	b, ok := registry[dt]
	if !ok {
		return nil, fmt.Errorf("no backend registered for device type %v", dt)
	}
	return b, nil
}

// GetForDevice returns the backend that handles the given device.
func GetForDevice(d Device) (Backend, error) {
	return Get(d.Type)
}

// ErrUnsupported is returned when an operation is not supported.
var ErrUnsupported = errors.New("operation not supported")
