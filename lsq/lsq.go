// Package lsq minimizes ||A·x - b||² by gradient descent on the autodiff
// tensor stack, and solves the same system exactly with gonum for reference.
package lsq

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/UlisseMini/light/core"
	"github.com/UlisseMini/light/ops"
	"github.com/UlisseMini/light/optim"
	"github.com/UlisseMini/light/tensor"
	"github.com/UlisseMini/light/train"
)

// Defaults of the gradient-descent solver.
const (
	DefaultLR         = 0.01
	DefaultIterations = 999
)

// Options controls Solve. Zero values take the defaults.
type Options struct {
	LR         float64
	Iterations int
	Optimizer  string // "sgd" (default) or "adamw"
	Observer   train.Observer
}

func (o Options) withDefaults() Options {
	if o.LR == 0 {
		o.LR = DefaultLR
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Optimizer == "" {
		o.Optimizer = "sgd"
	}
	return o
}

// Cost returns the loss x ↦ ||A·x - b||².
func Cost(A, b *tensor.Tensor) func(x *tensor.Tensor) (*tensor.Tensor, error) {
	return func(x *tensor.Tensor) (*tensor.Tensor, error) {
		ax, err := ops.MatMul(A, x)
		if err != nil {
			return nil, err
		}
		diff, err := ops.Sub(ax, b)
		if err != nil {
			return nil, err
		}
		return ops.SquaredNorm(diff)
	}
}

// Solve starts from x = 0 and takes opts.Iterations gradient steps, numbered
// 1..Iterations for the observer. It returns x after the last step.
func Solve(ctx context.Context, A, b *tensor.Tensor, opts Options) (*tensor.Tensor, error) {
	opts = opts.withDefaults()
	if opts.Iterations < 0 || opts.LR < 0 {
		return nil, fmt.Errorf("lsq: invalid options lr=%v iterations=%d", opts.LR, opts.Iterations)
	}
	if len(A.Shape) != 2 || len(b.Shape) != 1 || A.Shape[0] != b.Shape[0] {
		return nil, fmt.Errorf("lsq: A %v and b %v do not form a linear system: %w", A.Shape, b.Shape, tensor.ErrShape)
	}
	x, err := tensor.Zeros(A.Shape[1])
	if err != nil {
		return nil, err
	}
	x.RequiresGrad = true

	params := []*tensor.Tensor{x}
	opt, err := optim.New(opts.Optimizer, params, opts.LR)
	if err != nil {
		return nil, err
	}
	cost := Cost(A, b)
	tr := train.NewTrainer(params, func() (*tensor.Tensor, error) { return cost(x) }, opt)
	tr.Observe = opts.Observer
	if _, err := tr.Run(ctx, 1, opts.Iterations); err != nil {
		return x, err
	}
	return x, nil
}

// Exact solves the square system A·x = b directly.
func Exact(A, b *tensor.Tensor) (*tensor.Tensor, error) {
	a, err := dense(A)
	if err != nil {
		return nil, err
	}
	if b.DType != core.Float32 {
		return nil, fmt.Errorf("lsq: b is %v, only float32 is supported", b.DType)
	}
	rows, cols := a.Dims()
	if rows != cols || len(b.Shape) != 1 || b.Shape[0] != rows {
		return nil, fmt.Errorf("lsq: exact solve needs square A and matching b, got %v and %v: %w", A.Shape, b.Shape, tensor.ErrShape)
	}
	bv := mat.NewVecDense(rows, widen(b.Float32()))
	var x mat.VecDense
	if err := x.SolveVec(a, bv); err != nil {
		return nil, fmt.Errorf("lsq: exact solve: %w", err)
	}
	out := make([]float32, rows)
	for i := range out {
		out[i] = float32(x.AtVec(i))
	}
	return tensor.FromFloat32(out, rows)
}

// Det returns the determinant of the square matrix A.
func Det(A *tensor.Tensor) (float64, error) {
	a, err := dense(A)
	if err != nil {
		return 0, err
	}
	if r, c := a.Dims(); r != c {
		return 0, fmt.Errorf("lsq: determinant of non-square %v: %w", A.Shape, tensor.ErrShape)
	}
	return mat.Det(a), nil
}

func dense(A *tensor.Tensor) (*mat.Dense, error) {
	if len(A.Shape) != 2 {
		return nil, fmt.Errorf("lsq: A must be 2-D, got %v: %w", A.Shape, tensor.ErrShape)
	}
	if A.DType != core.Float32 {
		return nil, fmt.Errorf("lsq: A is %v, only float32 is supported", A.DType)
	}
	c, err := A.Clone()
	if err != nil {
		return nil, err
	}
	return mat.NewDense(A.Shape[0], A.Shape[1], widen(c.Float32())), nil
}

func widen(f []float32) []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = float64(v)
	}
	return out
}
