// Package bench times dense matrix products: two random operands are built
// once, then the product is computed Number times and the mean wall-clock
// time per product is reported.
package bench

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/UlisseMini/light/config"
)

// Result is the outcome of one benchmark run.
type Result struct {
	Name      string        `json:"name"`
	Engine    string        `json:"engine"`
	Status    string        `json:"status"` // "pass" or "fail"
	Rows      int           `json:"rows"`
	Inner     int           `json:"inner"`
	Cols      int           `json:"cols"`
	Number    int           `json:"number"`
	Seed      int64         `json:"seed"`
	Total     time.Duration `json:"total_ns"`
	Average   time.Duration `json:"average_ns"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Run prepares the operands for cfg.Engine and times cfg.Number products.
// The context is checked between products. Garbage collection is paused
// while timing and one collection runs before the first product.
func Run(ctx context.Context, cfg *config.Bench) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eng, err := NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if err := CheckMemory(RequiredBytes(cfg.Rows, cfg.Inner, cfg.Cols, eng.ElemSize())); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res := &Result{
		Name:   fmt.Sprintf("matmul_%dx%d_%dx%d", cfg.Rows, cfg.Inner, cfg.Inner, cfg.Cols),
		Engine: eng.Name(),
		Rows:   cfg.Rows,
		Inner:  cfg.Inner,
		Cols:   cfg.Cols,
		Number: cfg.Number,
		Seed:   seed,
	}
	if err := eng.Prepare(rand.New(rand.NewSource(seed)), cfg.Rows, cfg.Inner, cfg.Cols); err != nil {
		return fail(res, fmt.Errorf("prepare %s: %w", eng.Name(), err))
	}

	total, err := timeit(ctx, eng.Multiply, cfg.Number)
	if err != nil {
		return fail(res, err)
	}
	res.Status = "pass"
	res.Total = total
	res.Average = total / time.Duration(cfg.Number)
	res.Timestamp = time.Now()
	return res, nil
}

// timeit runs fn number times back to back and returns the total elapsed time.
func timeit(ctx context.Context, fn func() error, number int) (time.Duration, error) {
	runtime.GC()
	defer debug.SetGCPercent(debug.SetGCPercent(-1))
	var total time.Duration
	for i := 0; i < number; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		start := time.Now()
		err := fn()
		total += time.Since(start)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func fail(res *Result, err error) (*Result, error) {
	res.Status = "fail"
	res.Error = err.Error()
	res.Timestamp = time.Now()
	return res, err
}

// Summary formats the average the way the benchmark prints it.
func (r *Result) Summary() string {
	return fmt.Sprintf("took %.3fs", r.Average.Seconds())
}
