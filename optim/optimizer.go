package optim

import (
	"fmt"

	"github.com/UlisseMini/light/tensor"
)

// Optimizer updates parameters in place from their Grad.
type Optimizer interface {
	Step() error
}

// New returns the optimizer registered under name ("sgd" or "adamw") with
// the given learning rate and default hyperparameters.
func New(name string, params []*tensor.Tensor, lr float64) (Optimizer, error) {
	switch name {
	case "sgd", "":
		return NewSGD(params, lr), nil
	case "adamw":
		a, err := NewAdamW(params, lr, 0.9, 0.999, 1e-8, 0)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}
