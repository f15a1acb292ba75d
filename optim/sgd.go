package optim

import (
	"github.com/UlisseMini/light/tensor"
)

// SGD is plain gradient descent: p -= lr * grad.
type SGD struct {
	params []*tensor.Tensor
	lr     float32
}

// NewSGD creates an SGD optimizer over params.
func NewSGD(params []*tensor.Tensor, lr float64) *SGD {
	return &SGD{params: params, lr: float32(lr)}
}

// Step updates every parameter that has a gradient. The update is applied
// directly to the storage and is not recorded for autodiff.
func (s *SGD) Step() error {
	for _, p := range s.params {
		if p.Grad == nil {
			continue
		}
		be, err := p.Backend()
		if err != nil {
			return err
		}
		if err := be.Axpy(p.Storage, p.Grad.Storage, p.NumElements(), -s.lr); err != nil {
			return err
		}
	}
	return nil
}
