package ops

import (
	"fmt"

	"github.com/UlisseMini/light/tensor"
)

// SquaredNorm returns ||r||² = r·r for a 1-D residual r.
func SquaredNorm(r *tensor.Tensor) (*tensor.Tensor, error) {
	return Dot(r, r)
}

// MSE returns mean((pred - target)²) over every element.
func MSE(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	if !pred.Shape.Equal(target.Shape) {
		return nil, fmt.Errorf("mse: shapes %v and %v differ: %w", pred.Shape, target.Shape, tensor.ErrShape)
	}
	diff, err := Sub(pred, target)
	if err != nil {
		return nil, err
	}
	sq, err := Mul(diff, diff)
	if err != nil {
		return nil, err
	}
	return Mean(sq)
}
