package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/UlisseMini/light/autograd"
	"github.com/UlisseMini/light/optim"
	"github.com/UlisseMini/light/tensor"
)

// LossFunc builds the scalar loss from the current parameter values.
type LossFunc func() (*tensor.Tensor, error)

// Observer sees the loss and parameters of a step before they are updated.
type Observer func(step int, loss float32, params []*tensor.Tensor)

// Trainer runs a fixed number of gradient steps: clear grads, loss,
// backward, optimizer step. There is no convergence check.
type Trainer struct {
	Params    []*tensor.Tensor
	Loss      LossFunc
	Optimizer optim.Optimizer
	Observe   Observer
}

// NewTrainer creates a trainer.
func NewTrainer(params []*tensor.Tensor, loss LossFunc, opt optim.Optimizer) *Trainer {
	return &Trainer{Params: params, Loss: loss, Optimizer: opt}
}

// Step runs one step and returns the loss computed before the update.
// step is only passed through to the observer.
func (t *Trainer) Step(step int) (loss float32, err error) {
	autograd.ClearGrad(t.Params...)
	lossTensor, err := t.Loss()
	if err != nil {
		return 0, fmt.Errorf("step %d: loss: %w", step, err)
	}
	loss, err = lossTensor.Item()
	if err != nil {
		return 0, fmt.Errorf("step %d: loss must be a scalar: %w", step, err)
	}
	if t.Observe != nil {
		t.Observe(step, loss, t.Params)
	}
	if err := autograd.Backward(lossTensor); err != nil {
		return 0, fmt.Errorf("step %d: %w", step, err)
	}
	if err := t.Optimizer.Step(); err != nil {
		return 0, fmt.Errorf("step %d: optimizer: %w", step, err)
	}
	return loss, nil
}

// Run performs steps first..last inclusive and returns the last loss.
// The context is checked between steps.
func (t *Trainer) Run(ctx context.Context, first, last int) (float32, error) {
	if t.Loss == nil || t.Optimizer == nil {
		return 0, errors.New("trainer: loss and optimizer are required")
	}
	var loss float32
	for step := first; step <= last; step++ {
		if err := ctx.Err(); err != nil {
			return loss, err
		}
		var err error
		if loss, err = t.Step(step); err != nil {
			return loss, err
		}
	}
	return loss, nil
}
