// Command matmul-bench times the product of a random 50000x784 matrix with
// a random 784x10 matrix and prints the mean time per product.
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
	"github.com/UlisseMini/light/bench"
	"github.com/UlisseMini/light/config"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("matmul-bench: ")

	cfg, err := config.LoadBench()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if cfg.Verbose {
		log.Printf("%s", bench.SystemInfo())
		log.Printf("engine=%s %dx%d @ %dx%d number=%d", cfg.Engine, cfg.Rows, cfg.Inner, cfg.Inner, cfg.Cols, cfg.Number)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := bench.Run(ctx, cfg)
	if cfg.JSON != "" && res != nil {
		rl, err := bench.OpenResultLog(cfg.JSON)
		if err != nil {
			log.Fatalf("result log: %v", err)
		}
		if err := rl.Append(*res); err != nil {
			log.Fatalf("result log: %v", err)
		}
	}
	if runErr != nil {
		log.Fatalf("benchmark: %v", runErr)
	}
	fmt.Println(res.Summary())
}
