package autograd

import (
	"fmt"

	"github.com/UlisseMini/light/tensor"
)

// Backward seeds out.Grad with ones and runs every Backward closure in the
// graph rooted at out exactly once, consumers before the tensors they read.
// Gradients accumulate into Grad; call ClearGrad on leaves between passes.
func Backward(out *tensor.Tensor) error {
	if !out.RequiresGrad {
		return fmt.Errorf("backward: output does not require grad")
	}
	be, err := out.Backend()
	if err != nil {
		return err
	}
	if out.Grad == nil {
		if err := ZeroGrad(out); err != nil {
			return err
		}
	}
	if err := be.Fill(out.Grad.Storage, out.NumElements(), 1); err != nil {
		return err
	}
	order := topoSort(out)
	for i := len(order) - 1; i >= 0; i-- {
		t := order[i]
		if t.Backward == nil || t.Grad == nil {
			continue
		}
		if err := t.Backward(); err != nil {
			return fmt.Errorf("backward: %w", err)
		}
	}
	return nil
}

// topoSort returns the graph reachable from out through Inputs, inputs first.
func topoSort(out *tensor.Tensor) []*tensor.Tensor {
	var order []*tensor.Tensor
	seen := make(map[*tensor.Tensor]bool)
	type frame struct {
		t    *tensor.Tensor
		next int
	}
	stack := []frame{{t: out}}
	seen[out] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.t.Inputs) {
			in := top.t.Inputs[top.next]
			top.next++
			if in != nil && in.RequiresGrad && !seen[in] {
				seen[in] = true
				stack = append(stack, frame{t: in})
			}
			continue
		}
		order = append(order, top.t)
		stack = stack[:len(stack)-1]
	}
	return order
}

// Reachable reports the number of tensors Backward would visit from out.
func Reachable(out *tensor.Tensor) int {
	return len(topoSort(out))
}

// NoGrad detaches t from any graph; later ops on it are not recorded.
func NoGrad(t *tensor.Tensor) {
	t.RequiresGrad = false
	t.Backward = nil
	t.Inputs = nil
}
