package bench

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	_ "github.com/UlisseMini/light/backend/cpu"
	"github.com/UlisseMini/light/config"
)

func smallConfig(engine string) *config.Bench {
	return &config.Bench{Engine: engine, Rows: 64, Inner: 784, Cols: 10, Number: 3, Seed: 42}
}

func TestRunEngines(t *testing.T) {
	for _, name := range config.Engines {
		t.Run(name, func(t *testing.T) {
			res, err := Run(context.Background(), smallConfig(name))
			if err != nil {
				t.Fatal(err)
			}
			if res.Status != "pass" || res.Engine != name || res.Number != 3 {
				t.Fatalf("result = %+v", res)
			}
			if res.Average <= 0 || res.Average > res.Total {
				t.Fatalf("average %v, total %v", res.Average, res.Total)
			}
		})
	}
}

// light and gorgonia draw float32 operands from the same stream, so their
// products must agree.
func TestLightMatchesGorgonia(t *testing.T) {
	const rows, inner, cols = 33, 784, 10
	l := &lightEngine{}
	g := &gorgoniaEngine{}
	if err := l.Prepare(rand.New(rand.NewSource(9)), rows, inner, cols); err != nil {
		t.Fatal(err)
	}
	if err := g.Prepare(rand.New(rand.NewSource(9)), rows, inner, cols); err != nil {
		t.Fatal(err)
	}
	if err := l.Multiply(); err != nil {
		t.Fatal(err)
	}
	if err := g.Multiply(); err != nil {
		t.Fatal(err)
	}
	got := l.last.Float32()
	want := g.last.Data().([]float32)
	if len(got) != rows*cols || len(want) != rows*cols {
		t.Fatalf("product sizes %d and %d, want %d", len(got), len(want), rows*cols)
	}
	for i := range got {
		// Each entry is a sum of 784 products in [0,1); allow float32 drift.
		if math.Abs(float64(got[i]-want[i])) > 1e-2 {
			t.Fatalf("c[%d]: light %v, gorgonia %v", i, got[i], want[i])
		}
	}
}

func TestGonumShape(t *testing.T) {
	g := &gonumEngine{}
	if err := g.Prepare(rand.New(rand.NewSource(1)), 5, 784, 10); err != nil {
		t.Fatal(err)
	}
	if err := g.Multiply(); err != nil {
		t.Fatal(err)
	}
	if r, c := g.last.Dims(); r != 5 || c != 10 {
		t.Fatalf("product dims %dx%d, want 5x10", r, c)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := smallConfig("numpy")
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("unknown engine accepted")
	}
	cfg = smallConfig("light")
	cfg.Number = 0
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("number 0 accepted")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, smallConfig("light"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil || res.Status != "fail" {
		t.Fatalf("result = %+v, want a failed result", res)
	}
}

func TestCheckMemory(t *testing.T) {
	if err := CheckMemory(1 << 20); err != nil {
		t.Fatalf("1 MiB rejected: %v", err)
	}
	if err := CheckMemory(math.MaxUint64); err != nil && !errors.Is(err, ErrInsufficientMemory) {
		t.Fatalf("err = %v, want ErrInsufficientMemory", err)
	}
	if got := RequiredBytes(50000, 784, 10, 4); got != (50000*784+784*10+50000*10)*4 {
		t.Fatalf("RequiredBytes = %d", got)
	}
}

func TestSystemInfo(t *testing.T) {
	if SystemInfo() == "" {
		t.Fatal("empty system info")
	}
}

func TestSummary(t *testing.T) {
	r := &Result{Average: 1234567890}
	if got := r.Summary(); got != "took 1.235s" {
		t.Fatalf("Summary = %q", got)
	}
}

func TestResultLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bench.json")
	l, err := OpenResultLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Append(Result{Name: "a", Status: "pass"}); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(Result{Name: "b", Status: "fail", Error: "boom"}); err != nil {
		t.Fatal(err)
	}
	reopened, err := OpenResultLog(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.Results()
	if len(got) != 2 || got[0].Name != "a" || got[1].Error != "boom" {
		t.Fatalf("reloaded results = %+v", got)
	}
}

func BenchmarkLightMatMul(b *testing.B) {
	e := &lightEngine{}
	if err := e.Prepare(rand.New(rand.NewSource(1)), 1000, 784, 10); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Multiply(); err != nil {
			b.Fatal(err)
		}
	}
}
