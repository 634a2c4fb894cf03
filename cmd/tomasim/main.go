// Package main provides the entry point for Tomasim.
// Tomasim is a cycle-accurate Tomasulo dynamic-scheduling simulator for a
// simplified floating-point instruction stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/tomasulosim/reader"
	"github.com/sarchlab/tomasulosim/report"
	"github.com/sarchlab/tomasulosim/timing/latency"
	"github.com/sarchlab/tomasulosim/timing/machine"
)

var (
	configPath = flag.String("config", "", "Path to latency configuration JSON file")
	verbose    = flag.Bool("v", false, "Verbose per-cycle diagnostic logging")
	maxCycles  = flag.Uint64("max-cycles", 0, "Abort the run after this many cycles (0 = unbounded)")
)

func main() {
	flag.Parse()

	inputPath := "instruction_input.txt"
	if flag.NArg() >= 1 {
		inputPath = flag.Arg(0)
	}

	os.Exit(run(inputPath))
}

func run(inputPath string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logr.Discard()
	if *verbose {
		log = funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{Verbosity: 1})
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading latency config: %v\n", err)
		return 1
	}

	instrs, err := reader.Parse(inputPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing instruction file: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", inputPath)
		fmt.Printf("Instructions: %d\n", len(instrs))
	}

	m := machine.New(instrs, cfg, log)

	runErr := runLoop(ctx, m)

	if err := report.WriteFinal(os.Stdout, m); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		return 1
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error during simulation: %v\n", runErr)
		return 1
	}

	return 0
}

// runLoop ticks the machine cooperatively on the calling goroutine, printing
// the per-cycle status block after every tick, until the run completes, the
// cycle budget is exceeded, or ctx is cancelled (e.g. by SIGINT). Running the
// loop here rather than handing it to a goroutine guarantees the machine has
// stopped mutating before the caller reads it for the final report: Machine
// is not safe for concurrent use.
func runLoop(ctx context.Context, m *machine.Machine) error {
	for !m.Done() {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "Interrupted; printing partial results.")
			return nil
		}

		if *maxCycles != 0 && m.Clock() >= *maxCycles {
			return machine.ErrCycleBudgetExceeded
		}

		if err := m.Tick(); err != nil {
			return err
		}

		if err := report.WriteCycle(os.Stdout, m.Clock(), m.Table()); err != nil {
			return err
		}
	}

	return nil
}

func loadConfig() (*latency.Config, error) {
	if *configPath == "" {
		return latency.Default(), nil
	}
	cfg, err := latency.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid latency config: %w", err)
	}
	return cfg, nil
}
