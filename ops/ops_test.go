package ops_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/UlisseMini/light/autograd"
	_ "github.com/UlisseMini/light/backend/cpu"
	"github.com/UlisseMini/light/ops"
	"github.com/UlisseMini/light/tensor"
)

func mustTensor(t *testing.T, data []float32, shape ...int) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromFloat32(data, shape...)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMatMulMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const M, K, N = 37, 50, 11
	a, _ := tensor.Rand(rng, M, K)
	b, _ := tensor.Rand(rng, K, N)
	c, err := ops.MatMul(a, b)
	if err != nil {
		t.Fatal(err)
	}

	toDense := func(x *tensor.Tensor, r, cols int) *mat.Dense {
		d := make([]float64, r*cols)
		for i, v := range x.Float32() {
			d[i] = float64(v)
		}
		return mat.NewDense(r, cols, d)
	}
	var want mat.Dense
	want.Mul(toDense(a, M, K), toDense(b, K, N))
	got := c.Float32()
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			if !near(float64(got[i*N+j]), want.At(i, j), 1e-3) {
				t.Fatalf("c[%d,%d] = %v, gonum %v", i, j, got[i*N+j], want.At(i, j))
			}
		}
	}
}

func TestMatMulVector(t *testing.T) {
	A := mustTensor(t, []float32{1, 2, 3, 4}, 2, 2)
	x := mustTensor(t, []float32{1, 1}, 2)
	y, err := ops.MatMul(A, x)
	if err != nil {
		t.Fatal(err)
	}
	if len(y.Shape) != 1 || y.Shape[0] != 2 {
		t.Fatalf("shape = %v, want [2]", y.Shape)
	}
	if got := y.Float32(); got[0] != 3 || got[1] != 7 {
		t.Fatalf("A@x = %v, want [3 7]", got)
	}
}

func TestMatMulShapeErrors(t *testing.T) {
	a := mustTensor(t, make([]float32, 6), 2, 3)
	b := mustTensor(t, make([]float32, 4), 2, 2)
	if _, err := ops.MatMul(a, b); !errors.Is(err, tensor.ErrShape) {
		t.Fatalf("inner mismatch err = %v", err)
	}
	batched := mustTensor(t, make([]float32, 12), 2, 2, 3)
	v := mustTensor(t, make([]float32, 3), 3)
	if _, err := ops.MatMul(batched, v); !errors.Is(err, tensor.ErrShape) {
		t.Fatalf("batched matrix-vector err = %v", err)
	}
}

func TestBatchedMatMul(t *testing.T) {
	a := mustTensor(t, []float32{1, 0, 0, 1, 2, 0, 0, 2}, 2, 2, 2)
	b := mustTensor(t, []float32{1, 2, 3, 4, 1, 2, 3, 4}, 2, 2, 2)
	c, err := ops.MatMul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 2, 3, 4, 2, 4, 6, 8}
	for i, v := range c.Float32() {
		if v != want[i] {
			t.Fatalf("batched matmul = %v, want %v", c.Float32(), want)
		}
	}
}

// Gradient of ||A·x - b||² is 2·Aᵀ(A·x - b).
func TestLeastSquaresGradient(t *testing.T) {
	A := mustTensor(t, []float32{1, 2, 3, 4}, 2, 2)
	b := mustTensor(t, []float32{1, 2}, 2)
	x := mustTensor(t, []float32{0.3, -0.2}, 2)
	x.RequiresGrad = true

	ax, err := ops.MatMul(A, x)
	if err != nil {
		t.Fatal(err)
	}
	r, err := ops.Sub(ax, b)
	if err != nil {
		t.Fatal(err)
	}
	loss, err := ops.SquaredNorm(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := autograd.Backward(loss); err != nil {
		t.Fatal(err)
	}
	// r = [0.3-0.4-1, 0.9-0.8-2] = [-1.1, -1.9]
	// 2·Aᵀr = 2·[1·-1.1 + 3·-1.9, 2·-1.1 + 4·-1.9] = [-13.6, -19.6]
	g := x.Grad.Float32()
	if !near(float64(g[0]), -13.6, 1e-4) || !near(float64(g[1]), -19.6, 1e-4) {
		t.Fatalf("grad = %v, want [-13.6 -19.6]", g)
	}
	l, _ := loss.Item()
	if !near(float64(l), 1.1*1.1+1.9*1.9, 1e-5) {
		t.Fatalf("loss = %v", l)
	}
	if A.Grad != nil || b.Grad != nil {
		t.Fatal("constants must not receive gradients")
	}
}

func TestBackwardAccumulates(t *testing.T) {
	x := mustTensor(t, []float32{1, 2}, 2)
	x.RequiresGrad = true
	for i := 0; i < 2; i++ {
		loss, err := ops.SquaredNorm(x)
		if err != nil {
			t.Fatal(err)
		}
		if err := autograd.Backward(loss); err != nil {
			t.Fatal(err)
		}
	}
	if g := x.Grad.Float32(); g[0] != 4 || g[1] != 8 {
		t.Fatalf("accumulated grad = %v, want [4 8]", g)
	}
	autograd.ClearGrad(x)
	if x.Grad != nil {
		t.Fatal("ClearGrad left a gradient")
	}
}

// finiteDiff checks the gradient of f at x against central differences.
func finiteDiff(t *testing.T, x *tensor.Tensor, f func() (*tensor.Tensor, error)) {
	t.Helper()
	autograd.ClearGrad(x)
	out, err := f()
	if err != nil {
		t.Fatal(err)
	}
	if err := autograd.Backward(out); err != nil {
		t.Fatal(err)
	}
	analytic := append([]float32(nil), x.Grad.Float32()...)
	const h = 1e-2
	data := x.Float32()
	for i := range data {
		orig := data[i]
		data[i] = orig + h
		up, _ := f()
		data[i] = orig - h
		down, _ := f()
		data[i] = orig
		u, _ := up.Item()
		d, _ := down.Item()
		numeric := (float64(u) - float64(d)) / (2 * h)
		if !near(numeric, float64(analytic[i]), 2e-2*math.Max(1, math.Abs(numeric))) {
			t.Fatalf("grad[%d]: analytic %v, numeric %v", i, analytic[i], numeric)
		}
	}
}

func TestMatMulGradientFiniteDiff(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a, _ := tensor.Rand(rng, 3, 4)
	b, _ := tensor.Rand(rng, 4, 2)
	a.RequiresGrad = true
	b.RequiresGrad = true
	f := func() (*tensor.Tensor, error) {
		c, err := ops.MatMul(a, b)
		if err != nil {
			return nil, err
		}
		sq, err := ops.Mul(c, c)
		if err != nil {
			return nil, err
		}
		return ops.Sum(sq)
	}
	finiteDiff(t, a, f)
	finiteDiff(t, b, f)
}

func TestBroadcastGradient(t *testing.T) {
	x := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	bias := mustTensor(t, []float32{0.5, -1, 2}, 3)
	bias.RequiresGrad = true
	f := func() (*tensor.Tensor, error) {
		y, err := ops.Add(x, bias)
		if err != nil {
			return nil, err
		}
		return ops.MSE(y, x)
	}
	finiteDiff(t, bias, f)
	// d/dbias mean((x+bias-x)²) over 6 elements = 2·bias·2/6
	g := bias.Grad.Float32()
	if !near(float64(g[0]), 2*0.5*2/6, 1e-5) {
		t.Fatalf("bias grad = %v", g)
	}
}

func TestScaleAndNeg(t *testing.T) {
	x := mustTensor(t, []float32{1, -2}, 2)
	x.RequiresGrad = true
	y, err := ops.Neg(x)
	if err != nil {
		t.Fatal(err)
	}
	s, err := ops.Sum(y)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Item(); v != 1 {
		t.Fatalf("sum(-x) = %v, want 1", v)
	}
	if err := autograd.Backward(s); err != nil {
		t.Fatal(err)
	}
	if g := x.Grad.Float32(); g[0] != -1 || g[1] != -1 {
		t.Fatalf("grad = %v, want [-1 -1]", g)
	}
}

func TestDotShapeError(t *testing.T) {
	a := mustTensor(t, []float32{1, 2}, 2)
	b := mustTensor(t, []float32{1, 2, 3}, 3)
	if _, err := ops.Dot(a, b); !errors.Is(err, tensor.ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
}

func TestBackwardWithoutGrad(t *testing.T) {
	x := mustTensor(t, []float32{1}, 1)
	if err := autograd.Backward(x); err == nil {
		t.Fatal("Backward on a constant should fail")
	}
}

func TestScaleRejectsHalf(t *testing.T) {
	x := mustTensor(t, []float32{1, 2, 3, 4}, 4)
	for _, dt := range []tensor.DType{tensor.Float16, tensor.BFloat16} {
		h, err := x.To(dt)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ops.Scale(h, 2); err == nil {
			t.Fatalf("Scale accepted %v", dt)
		}
		if _, err := ops.Neg(h); err == nil {
			t.Fatalf("Neg accepted %v", dt)
		}
		if _, err := ops.Mean(h); err == nil {
			t.Fatalf("Mean accepted %v", dt)
		}
	}
}

func TestAddIncompatibleShapes(t *testing.T) {
	a := mustTensor(t, make([]float32, 6), 2, 3)
	b := mustTensor(t, make([]float32, 2), 2)
	if _, err := ops.Add(a, b); !errors.Is(err, tensor.ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
}
