// Package ops holds the differentiable tensor operations. Every op returns
// a new contiguous float32 tensor and, when any operand requires grad,
// records its operands in Inputs and a Backward closure that accumulates
// into their Grad.
package ops

import (
	"fmt"

	"github.com/UlisseMini/light/autograd"
	"github.com/UlisseMini/light/backend"
	"github.com/UlisseMini/light/core"
	"github.com/UlisseMini/light/tensor"
)

type binaryKernel func(be backend.Backend, dst, a, b backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error

// broadcastBinary runs kernel over a and b with broadcasting and returns the
// untracked result.
func broadcastBinary(a, b *tensor.Tensor, kernel binaryKernel) (*tensor.Tensor, backend.Backend, error) {
	if err := checkFloat(a, b); err != nil {
		return nil, nil, err
	}
	outShape, err := core.BroadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, nil, err
	}
	be, err := a.Backend()
	if err != nil {
		return nil, nil, err
	}
	out, err := tensor.Zeros(outShape...)
	if err != nil {
		return nil, nil, err
	}
	if err := kernel(be, out.Storage, a.Storage, b.Storage, a.Shape, b.Shape, a.Strides, b.Strides, outShape); err != nil {
		out.Storage.Free()
		return nil, nil, err
	}
	return out, be, nil
}

func checkFloat(ts ...*tensor.Tensor) error {
	for _, t := range ts {
		if t.DType != core.Float32 {
			return fmt.Errorf("ops: %v operand, only float32 is supported", t.DType)
		}
	}
	return nil
}

// track marks out as produced from inputs and installs backward if any
// input requires grad.
func track(out *tensor.Tensor, backward func() error, inputs ...*tensor.Tensor) {
	for _, in := range inputs {
		if in.RequiresGrad {
			out.RequiresGrad = true
			break
		}
	}
	if !out.RequiresGrad {
		return
	}
	out.Inputs = inputs
	out.Backward = backward
}

// Add returns a + b with broadcasting.
func Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	out, _, err := broadcastBinary(a, b, backend.Backend.Add)
	if err != nil {
		return nil, err
	}
	track(out, func() error {
		if err := autograd.AccumulateGrad(a, out.Grad); err != nil {
			return err
		}
		return autograd.AccumulateGrad(b, out.Grad)
	}, a, b)
	return out, nil
}

// Sub returns a - b with broadcasting.
func Sub(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	out, be, err := broadcastBinary(a, b, backend.Backend.Sub)
	if err != nil {
		return nil, err
	}
	track(out, func() error {
		if err := autograd.AccumulateGrad(a, out.Grad); err != nil {
			return err
		}
		if !b.RequiresGrad {
			return nil
		}
		neg, err := tensor.ZerosLike(out.Grad)
		if err != nil {
			return err
		}
		if err := be.Neg(neg.Storage, out.Grad.Storage, out.Grad.NumElements()); err != nil {
			return err
		}
		return autograd.AccumulateGrad(b, neg)
	}, a, b)
	return out, nil
}

// Mul returns a * b (element-wise with broadcast).
func Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	out, be, err := broadcastBinary(a, b, backend.Backend.Mul)
	if err != nil {
		return nil, err
	}
	track(out, func() error {
		g := out.Grad
		// grad_a += grad_out * b, grad_b += grad_out * a
		for _, pair := range [][2]*tensor.Tensor{{a, b}, {b, a}} {
			dst, other := pair[0], pair[1]
			if !dst.RequiresGrad {
				continue
			}
			tmp, err := tensor.ZerosLike(g)
			if err != nil {
				return err
			}
			if err := be.Mul(tmp.Storage, g.Storage, other.Storage, g.Shape, other.Shape, g.Strides, other.Strides, g.Shape); err != nil {
				return err
			}
			if err := autograd.AccumulateGrad(dst, tmp); err != nil {
				return err
			}
		}
		return nil
	}, a, b)
	return out, nil
}

// Neg returns -x.
func Neg(x *tensor.Tensor) (*tensor.Tensor, error) {
	return Scale(x, -1)
}

// Scale returns alpha * x.
func Scale(x *tensor.Tensor, alpha float32) (*tensor.Tensor, error) {
	if err := checkFloat(x); err != nil {
		return nil, err
	}
	src, err := contiguous(x)
	if err != nil {
		return nil, err
	}
	be, err := x.Backend()
	if err != nil {
		return nil, err
	}
	out, err := tensor.ZerosLike(src)
	if err != nil {
		return nil, err
	}
	if err := be.Scale(out.Storage, src.Storage, x.NumElements(), alpha); err != nil {
		return nil, err
	}
	track(out, func() error {
		g, err := tensor.ZerosLike(out.Grad)
		if err != nil {
			return err
		}
		if err := be.Scale(g.Storage, out.Grad.Storage, g.NumElements(), alpha); err != nil {
			return err
		}
		return autograd.AccumulateGrad(x, g)
	}, x)
	return out, nil
}

// Sum reduces every element of x to a scalar of shape [1].
func Sum(x *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkFloat(x); err != nil {
		return nil, err
	}
	be, err := x.Backend()
	if err != nil {
		return nil, err
	}
	src, err := contiguous(x)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Zeros(1)
	if err != nil {
		return nil, err
	}
	if err := be.Sum(out.Storage, src.Storage, src.Shape, src.Strides, -1, false); err != nil {
		return nil, err
	}
	track(out, func() error {
		g, err := out.Grad.Item()
		if err != nil {
			return err
		}
		ones, err := tensor.Full(g, x.Shape...)
		if err != nil {
			return err
		}
		return autograd.AccumulateGrad(x, ones)
	}, x)
	return out, nil
}

// Mean returns the average of every element of x as a scalar of shape [1].
func Mean(x *tensor.Tensor) (*tensor.Tensor, error) {
	s, err := Sum(x)
	if err != nil {
		return nil, err
	}
	return Scale(s, 1/float32(x.NumElements()))
}

// contiguous returns x itself when it is already row-major, else a packed copy.
func contiguous(x *tensor.Tensor) (*tensor.Tensor, error) {
	if x.Contiguous() {
		return x, nil
	}
	return x.Clone()
}
