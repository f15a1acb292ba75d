// Command least-squares minimizes ||A·x - b||² for A = [[1,2],[3,4]],
// b = [1,2] by gradient descent, printing the loss and x at every step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/UlisseMini/light/backend/cpu"
	"github.com/UlisseMini/light/config"
	"github.com/UlisseMini/light/lsq"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("least-squares: ")

	cfg, err := config.LoadLeastSquares()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	A, b, want, err := lsq.Example()
	if err != nil {
		log.Fatalf("build system: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := lsq.Options{LR: cfg.LR, Iterations: cfg.Iterations, Optimizer: cfg.Optimizer}
	if !cfg.Quiet {
		opts.Observer = lsq.PrintSteps(os.Stdout)
	}
	x, err := lsq.Solve(ctx, A, b, opts)
	if err != nil {
		log.Fatalf("solve: %v", err)
	}
	fmt.Println(lsq.ResultLine(x, want))
}
