// Package main provides the entry point for Tomasim.
// Tomasim is a cycle-accurate Tomasulo dynamic-scheduling simulator.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Tomasim - Tomasulo Dynamic Scheduling Simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasim [options] <instruction_file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to latency configuration JSON file")
	fmt.Println("  -v           Verbose per-cycle diagnostic logging")
	fmt.Println("  -max-cycles  Abort the run after this many cycles (0 = unbounded)")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
