// Package config resolves the settings of both commands: built-in defaults,
// then LIGHT_* environment variables, then command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Bench configures the matmul benchmark.
type Bench struct {
	Engine  string // light, gonum or gorgonia
	Rows    int
	Inner   int
	Cols    int
	Number  int   // multiplies averaged over
	Seed    int64 // 0 picks a time-based seed
	JSON    string
	Verbose bool
}

// LeastSquares configures the gradient-descent example.
type LeastSquares struct {
	LR         float64
	Iterations int
	Optimizer  string
	Quiet      bool
}

// Engines lists the accepted benchmark engines.
var Engines = []string{"light", "gonum", "gorgonia"}

// LoadBench returns the benchmark defaults overridden by the environment.
func LoadBench() (*Bench, error) {
	c := &Bench{
		Engine: envStr("LIGHT_ENGINE", "light"),
		JSON:   envStr("LIGHT_JSON", ""),
	}
	var err error
	if c.Rows, err = envInt("LIGHT_ROWS", 50000); err != nil {
		return nil, err
	}
	if c.Inner, err = envInt("LIGHT_INNER", 784); err != nil {
		return nil, err
	}
	if c.Cols, err = envInt("LIGHT_COLS", 10); err != nil {
		return nil, err
	}
	if c.Number, err = envInt("LIGHT_NUMBER", 10); err != nil {
		return nil, err
	}
	seed, err := envInt("LIGHT_SEED", 0)
	if err != nil {
		return nil, err
	}
	c.Seed = int64(seed)
	return c, nil
}

// RegisterFlags binds c's fields to fs, using the current values as defaults.
func (c *Bench) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Engine, "engine", c.Engine, "matmul engine: "+strings.Join(Engines, ", "))
	fs.IntVar(&c.Rows, "rows", c.Rows, "rows of the left operand")
	fs.IntVar(&c.Inner, "inner", c.Inner, "shared inner dimension")
	fs.IntVar(&c.Cols, "cols", c.Cols, "columns of the right operand")
	fs.IntVar(&c.Number, "number", c.Number, "number of timed multiplies")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "PRNG seed (0 = time based)")
	fs.StringVar(&c.JSON, "json", c.JSON, "append the result to this JSON file")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "report CPU features and memory on stderr")
}

// Validate verifies the benchmark is runnable.
func (c *Bench) Validate() error {
	var errs []error
	if c.Rows <= 0 || c.Inner <= 0 || c.Cols <= 0 {
		errs = append(errs, fmt.Errorf("shape %dx%d @ %dx%d must be positive", c.Rows, c.Inner, c.Inner, c.Cols))
	}
	if c.Number <= 0 {
		errs = append(errs, fmt.Errorf("number must be > 0, got %d", c.Number))
	}
	known := false
	for _, e := range Engines {
		known = known || e == c.Engine
	}
	if !known {
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}
	return errors.Join(errs...)
}

// LoadLeastSquares returns the example defaults overridden by the environment.
func LoadLeastSquares() (*LeastSquares, error) {
	c := &LeastSquares{Optimizer: envStr("LIGHT_OPTIMIZER", "sgd")}
	var err error
	if c.LR, err = envFloat("LIGHT_LR", 0.01); err != nil {
		return nil, err
	}
	if c.Iterations, err = envInt("LIGHT_ITERS", 999); err != nil {
		return nil, err
	}
	return c, nil
}

// RegisterFlags binds c's fields to fs, using the current values as defaults.
func (c *LeastSquares) RegisterFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.LR, "lr", c.LR, "learning rate")
	fs.IntVar(&c.Iterations, "iters", c.Iterations, "number of gradient steps")
	fs.StringVar(&c.Optimizer, "optimizer", c.Optimizer, "sgd or adamw")
	fs.BoolVar(&c.Quiet, "quiet", c.Quiet, "only print the final result")
}

// Validate verifies the example is runnable.
func (c *LeastSquares) Validate() error {
	var errs []error
	if c.LR <= 0 {
		errs = append(errs, fmt.Errorf("lr must be > 0, got %v", c.LR))
	}
	if c.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iters must be > 0, got %d", c.Iterations))
	}
	if c.Optimizer != "sgd" && c.Optimizer != "adamw" {
		errs = append(errs, fmt.Errorf("unknown optimizer %q", c.Optimizer))
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
