package bench

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	gtensor "gorgonia.org/tensor"

	"github.com/UlisseMini/light/ops"
	"github.com/UlisseMini/light/tensor"
)

// Engine is a matrix multiply implementation the benchmark can time.
// Prepare allocates the random operands once; Multiply computes a fresh
// product on every call.
type Engine interface {
	Name() string
	ElemSize() int
	Prepare(rng *rand.Rand, rows, inner, cols int) error
	Multiply() error
}

// NewEngine returns the engine registered under name.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "light":
		return &lightEngine{}, nil
	case "gonum":
		return &gonumEngine{}, nil
	case "gorgonia":
		return &gorgoniaEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// lightEngine multiplies with this module's tensor ops on float32.
type lightEngine struct {
	a, b *tensor.Tensor
	last *tensor.Tensor
}

func (e *lightEngine) Name() string  { return "light" }
func (e *lightEngine) ElemSize() int { return 4 }

func (e *lightEngine) Prepare(rng *rand.Rand, rows, inner, cols int) error {
	var err error
	if e.a, err = tensor.Rand(rng, rows, inner); err != nil {
		return err
	}
	e.b, err = tensor.Rand(rng, inner, cols)
	return err
}

func (e *lightEngine) Multiply() error {
	c, err := ops.MatMul(e.a, e.b)
	if err != nil {
		return err
	}
	e.last = c
	return nil
}

// gonumEngine multiplies float64 matrices with gonum's BLAS-backed Dense.
type gonumEngine struct {
	a, b *mat.Dense
	last *mat.Dense
}

func (e *gonumEngine) Name() string  { return "gonum" }
func (e *gonumEngine) ElemSize() int { return 8 }

func (e *gonumEngine) Prepare(rng *rand.Rand, rows, inner, cols int) error {
	e.a = mat.NewDense(rows, inner, uniform64(rng, rows*inner))
	e.b = mat.NewDense(inner, cols, uniform64(rng, inner*cols))
	return nil
}

func (e *gonumEngine) Multiply() error {
	var c mat.Dense
	c.Mul(e.a, e.b)
	e.last = &c
	return nil
}

// gorgoniaEngine multiplies float32 dense tensors with gorgonia's standard engine.
type gorgoniaEngine struct {
	a, b *gtensor.Dense
	last *gtensor.Dense
}

func (e *gorgoniaEngine) Name() string  { return "gorgonia" }
func (e *gorgoniaEngine) ElemSize() int { return 4 }

func (e *gorgoniaEngine) Prepare(rng *rand.Rand, rows, inner, cols int) error {
	e.a = gtensor.New(gtensor.WithShape(rows, inner), gtensor.WithBacking(uniform32(rng, rows*inner)))
	e.b = gtensor.New(gtensor.WithShape(inner, cols), gtensor.WithBacking(uniform32(rng, inner*cols)))
	return nil
}

func (e *gorgoniaEngine) Multiply() error {
	c, err := e.a.MatMul(e.b)
	if err != nil {
		return fmt.Errorf("gorgonia matmul: %w", err)
	}
	e.last = c
	return nil
}

func uniform64(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}

func uniform32(rng *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = rng.Float32()
	}
	return out
}
