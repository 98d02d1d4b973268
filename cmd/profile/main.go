// Package main provides a profiling wrapper for armv5sim to identify
// performance bottlenecks in the emulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/armv5sim/board"
	"github.com/sarchlab/armv5sim/emu"
)

var (
	configPath  = flag.String("config", "", "Path to board configuration file (JSON or YAML)")
	elfKernel   = flag.Bool("elf", false, "Kernel is an ELF executable instead of a flat image")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 100000000, "max instructions to execute (0 = unlimited)")
	console     = flag.Bool("console", false, "Show guest console output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <kernel>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	config := board.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = board.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	config.Kernel = flag.Arg(0)
	config.MaxInstructions = *instruction
	if *elfKernel {
		config.KernelFormat = board.FormatELF
	}

	var out io.Writer = io.Discard
	if *console {
		out = os.Stdout
	}

	machine, err := board.NewMachine(config, board.WithConsole(out))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := machine.Boot(); err != nil {
		fmt.Fprintf(os.Stderr, "Error booting: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", config.Kernel)
	fmt.Printf("Entry point: 0x%X\n", machine.CPU().RegFile().PC())

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	err = machine.Run(ctx, nil)
	elapsed := time.Since(start)

	switch {
	case err == nil, errors.Is(err, emu.ErrInstructionLimit):
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
	default:
		fmt.Fprintf(os.Stderr, "\nEmulation stopped: %v\n", err)
	}

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	instrCount := machine.CPU().InstructionCount()
	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Final PC: 0x%08X\n", machine.CPU().RegFile().PC())
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}
