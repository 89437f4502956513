package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/packlab/sdk/perf"
)

// makefile runner
func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := perf.Run(cfg.pprof, "", func() error { return executeSimulator(cfg) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
