package ops

import (
	"fmt"

	"github.com/UlisseMini/light/autograd"
	"github.com/UlisseMini/light/backend"
	"github.com/UlisseMini/light/tensor"
)

// MatMul returns a @ b. a: [..., M, K], b: [..., K, N] -> [..., M, N].
// A 1-D b of length K is treated as a column and the result is [..., M].
// Leading (batch) dimensions of a and b must match exactly.
func MatMul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkFloat(a, b); err != nil {
		return nil, err
	}
	if len(a.Shape) < 2 || len(b.Shape) < 1 {
		return nil, fmt.Errorf("matmul requires 2D or batched 2D, got %v @ %v: %w", a.Shape, b.Shape, tensor.ErrShape)
	}
	vec := len(b.Shape) == 1
	M, K := a.Shape[len(a.Shape)-2], a.Shape[len(a.Shape)-1]
	var K2, N int
	if vec {
		K2, N = b.Shape[0], 1
	} else {
		K2, N = b.Shape[len(b.Shape)-2], b.Shape[len(b.Shape)-1]
	}
	if K != K2 {
		return nil, fmt.Errorf("matmul: a last dim %d != b second-to-last %d: %w", K, K2, tensor.ErrShape)
	}
	batchSize := 1
	for i := 0; i < len(a.Shape)-2; i++ {
		batchSize *= a.Shape[i]
	}
	if batchSize > 1 {
		// No broadcasting over batch: b must carry the same leading dims.
		if vec || len(b.Shape) != len(a.Shape) || b.NumElements() != batchSize*K*N {
			return nil, fmt.Errorf("matmul: batch dims of %v and %v differ: %w", a.Shape, b.Shape, tensor.ErrShape)
		}
	}

	be, err := a.Backend()
	if err != nil {
		return nil, err
	}
	ac, err := contiguous(a)
	if err != nil {
		return nil, err
	}
	bc, err := contiguous(b)
	if err != nil {
		return nil, err
	}
	outShape := a.Shape[:len(a.Shape)-1].Clone()
	if !vec {
		outShape = append(outShape, N)
	}
	out, err := tensor.Zeros(outShape...)
	if err != nil {
		return nil, err
	}
	if err := be.MatMul(out.Storage, ac.Storage, bc.Storage, batchSize, M, N, K); err != nil {
		return nil, err
	}
	track(out, func() error {
		// d(a@b)/da = grad_out @ b^T, d(a@b)/db = a^T @ grad_out
		g := out.Grad
		if a.RequiresGrad {
			bt, err := transposed(be, bc, batchSize, K, N)
			if err != nil {
				return err
			}
			ga, err := tensor.ZerosLike(ac)
			if err != nil {
				return err
			}
			if err := be.MatMul(ga.Storage, g.Storage, bt, batchSize, M, K, N); err != nil {
				return err
			}
			if err := autograd.AccumulateGrad(a, ga); err != nil {
				return err
			}
		}
		if b.RequiresGrad {
			at, err := transposed(be, ac, batchSize, M, K)
			if err != nil {
				return err
			}
			gb, err := tensor.ZerosLike(bc)
			if err != nil {
				return err
			}
			if err := be.MatMul(gb.Storage, at, g.Storage, batchSize, K, N, M); err != nil {
				return err
			}
			if err := autograd.AccumulateGrad(b, gb); err != nil {
				return err
			}
		}
		return nil
	}, a, b)
	return out, nil
}

// transposed returns a packed [batch, cols, rows] copy of the contiguous
// [batch, rows, cols] tensor t.
func transposed(be backend.Backend, t *tensor.Tensor, batch, rows, cols int) (backend.Storage, error) {
	dst, err := be.Alloc(batch * rows * cols * 4)
	if err != nil {
		return nil, err
	}
	if err := be.Transpose(dst, t.Storage, batch, rows, cols); err != nil {
		be.Free(dst)
		return nil, err
	}
	return dst, nil
}

// Dot returns the inner product of two 1-D tensors of equal length as a
// scalar of shape [1].
func Dot(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkFloat(a, b); err != nil {
		return nil, err
	}
	if len(a.Shape) != 1 || len(b.Shape) != 1 || a.Shape[0] != b.Shape[0] {
		return nil, fmt.Errorf("dot: need two 1-D tensors of equal length, got %v and %v: %w", a.Shape, b.Shape, tensor.ErrShape)
	}
	be, err := a.Backend()
	if err != nil {
		return nil, err
	}
	n := a.Shape[0]
	out, err := tensor.Zeros(1)
	if err != nil {
		return nil, err
	}
	// [1, n] @ [n, 1]
	if err := be.MatMul(out.Storage, a.Storage, b.Storage, 1, 1, 1, n); err != nil {
		return nil, err
	}
	track(out, func() error {
		g, err := out.Grad.Item()
		if err != nil {
			return err
		}
		for _, pair := range [][2]*tensor.Tensor{{a, b}, {b, a}} {
			dst, other := pair[0], pair[1]
			if !dst.RequiresGrad {
				continue
			}
			tmp, err := tensor.ZerosLike(other)
			if err != nil {
				return err
			}
			if err := be.Scale(tmp.Storage, other.Storage, n, g); err != nil {
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
