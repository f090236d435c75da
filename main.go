// Package main provides the entry point for R5Sim.
// R5Sim is a functional RV64 simulator with software-walked paging,
// translation caching, and a decoded-instruction cache.
//
// For the full CLI, use: go run ./cmd/r5sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("R5Sim - RV64 Functional Simulator")
	fmt.Println("")
	fmt.Println("Usage: r5sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -rvc       Enable compressed (16-bit) instructions")
	fmt.Println("  -cache     Model data accesses through an L1 cache")
	fmt.Println("  -config    Path to cache configuration JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/r5sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/r5sim' instead.")
	}
}
