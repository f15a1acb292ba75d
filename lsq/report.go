package lsq

import (
	"fmt"
	"io"

	"github.com/UlisseMini/light/tensor"
	"github.com/UlisseMini/light/train"
)

// StepLine formats one gradient step as printed by the example.
func StepLine(loss float32, x *tensor.Tensor) string {
	return fmt.Sprintf("loss %.4f\tx = %s", loss, x)
}

// ResultLine formats the solution next to the expected one.
func ResultLine(got, want *tensor.Tensor) string {
	return fmt.Sprintf("got %s want %s", got, want)
}

// PrintSteps returns an observer writing StepLine for every step to w.
func PrintSteps(w io.Writer) train.Observer {
	return func(_ int, loss float32, params []*tensor.Tensor) {
		fmt.Fprintln(w, StepLine(loss, params[0]))
	}
}
