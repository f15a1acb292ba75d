package autograd

import (
	"fmt"

	"github.com/UlisseMini/light/core"
	"github.com/UlisseMini/light/tensor"
)

// ZeroGrad allocates gradient storage for t filled with zero, if t requires
// grad and has none yet.
func ZeroGrad(t *tensor.Tensor) error {
	if !t.RequiresGrad || t.Grad != nil {
		return nil
	}
	if t.DType != core.Float32 {
		return fmt.Errorf("grad of %v tensor: only float32 is differentiable", t.DType)
	}
	g, err := tensor.ZerosLike(t)
	if err != nil {
		return err
	}
	t.Grad = g
	return nil
}

// ClearGrad drops t's gradient so the next backward starts from zero.
func ClearGrad(ts ...*tensor.Tensor) {
	for _, t := range ts {
		t.Grad = nil
	}
}

// AccumulateGrad adds grad into t.Grad (creating t.Grad if nil). grad may
// have been broadcast from t's shape; broadcast axes are summed away.
func AccumulateGrad(t *tensor.Tensor, grad *tensor.Tensor) error {
	if !t.RequiresGrad || grad == nil {
		return nil
	}
	if err := ZeroGrad(t); err != nil {
		return err
	}
	reduced, err := reduceTo(grad, t.Shape)
	if err != nil {
		return err
	}
	be, err := t.Backend()
	if err != nil {
		return err
	}
	return be.Axpy(t.Grad.Storage, reduced.Storage, t.NumElements(), 1)
}

// reduceTo sums g over the axes that broadcasting expanded to reach g's
// shape from target. The result is contiguous with target's element count.
func reduceTo(g *tensor.Tensor, target core.Shape) (*tensor.Tensor, error) {
	if g.Shape.Equal(target) && g.Contiguous() {
		return g, nil
	}
	if g.NumElements() == target.NumElements() {
		return g.Clone()
	}
	be, err := g.Backend()
	if err != nil {
		return nil, err
	}
	cur, err := g.Clone()
	if err != nil {
		return nil, err
	}
	pad := len(cur.Shape) - len(target)
	for axis := 0; axis < len(cur.Shape); axis++ {
		want := 1
		if axis >= pad {
			want = target[axis-pad]
		}
		if cur.Shape[axis] == want {
			continue
		}
		if want != 1 {
			return nil, fmt.Errorf("reduce grad %v to %v: %w", g.Shape, target, tensor.ErrShape)
		}
		shape := cur.Shape.Clone()
		shape[axis] = 1
		next, err := tensor.Zeros(shape...)
		if err != nil {
			return nil, err
		}
		if err := be.Sum(next.Storage, cur.Storage, cur.Shape, cur.Strides, axis, true); err != nil {
			return nil, err
		}
		cur = next
	}
	if cur.NumElements() != target.NumElements() {
		return nil, fmt.Errorf("reduce grad %v to %v: %w", g.Shape, target, tensor.ErrShape)
	}
	return cur, nil
}
