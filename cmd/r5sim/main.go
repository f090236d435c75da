// Package main provides the entry point for R5Sim.
// R5Sim is a functional RV64 simulator with software-walked paging.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/r5sim/emu"
	"github.com/sarchlab/r5sim/loader"
	"github.com/sarchlab/r5sim/timing/cache"
)

var (
	verbose    = flag.Bool("v", false, "Verbose output")
	maxInsts   = flag.Uint64("max", 0, "Stop after this many instructions (0 = unlimited)")
	rvc        = flag.Bool("rvc", true, "Enable compressed (16-bit) instructions")
	memSize    = flag.Uint64("mem", emu.DefaultMemorySize, "Physical memory size in bytes")
	cacheModel = flag.Bool("cache", false, "Model data accesses through an L1 cache")
	configPath = flag.String("config", "", "Path to cache configuration JSON file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: r5sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	// Load the ELF program
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	os.Exit(int(run(prog, programPath)))
}

// run executes the program in functional emulation mode.
func run(prog *loader.Program, programPath string) int64 {
	memory := emu.NewMemory(*memSize)

	// Load all segments into memory
	for _, seg := range prog.Segments {
		for i, b := range seg.Data {
			memory.Write8(seg.VirtAddr+uint64(i), b)
		}
		// Zero-fill BSS (memsize > filesize)
		for i := uint64(len(seg.Data)); i < seg.MemSize; i++ {
			memory.Write8(seg.VirtAddr+i, 0)
		}
	}

	// The default link-time stack top sits far above a small physical
	// memory, so clamp it into range.
	sp := prog.InitialSP
	if sp >= memory.Size() {
		sp = memory.Size() - 16
	}

	opts := []emu.EmulatorOption{
		emu.WithMemory(memory),
		emu.WithStackPointer(sp),
		emu.WithCompressed(*rvc),
	}
	if *maxInsts > 0 {
		opts = append(opts, emu.WithMaxInstructions(*maxInsts))
	}

	var observer *cache.Observer
	if *cacheModel {
		obs, err := buildObserver()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading cache config: %v\n", err)
			os.Exit(1)
		}
		observer = obs
		opts = append(opts, emu.WithMemoryObserver(observer))
	}

	emulator := emu.NewEmulator(opts...)
	emulator.RegFile().PC = prog.EntryPoint

	exitCode := emulator.Run()

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	}
	if observer != nil {
		stats := observer.Stats()
		fmt.Printf("\nL1D reads=%d writes=%d hits=%d misses=%d evictions=%d\n",
			stats.Reads, stats.Writes, stats.Hits, stats.Misses, stats.Evictions)
		fmt.Printf("L1D access cycles: %d\n", observer.Cycles())
	}

	return exitCode
}

// buildObserver sets up the L1 data cache model. The cache carries no
// backing store: the emulator remains the source of truth for data, the
// model only tracks hit/miss behavior and latency.
func buildObserver() (*cache.Observer, error) {
	config := cache.DefaultHierarchyConfig()
	if *configPath != "" {
		loaded, err := cache.LoadHierarchyConfig(*configPath)
		if err != nil {
			return nil, err
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		config = loaded
	}

	return cache.NewObserver(cache.New(config.L1D, nil)), nil
}
