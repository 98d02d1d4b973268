// Command benchmark runs the armv5sim throughput benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output a JSON report
//	-core       Run only the core subset
//
// Example:
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/armv5sim/benchmarks"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	maxInsts := flag.Uint64("max-insts", 50_000_000, "Instruction limit per benchmark (0: no limit)")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.MaxInstructions = *maxInsts
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		s := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Passed:       %d/%d\n", s.Passed, s.TotalBenchmarks)
		fmt.Printf("Instructions: %d\n", s.TotalInstructions)
		fmt.Printf("Wall Time:    %v\n", s.TotalWallTime)
		fmt.Printf("MIPS:         %.2f\n", s.MIPS)
	}

	for _, r := range results {
		if !r.Passed {
			os.Exit(1)
		}
	}
}
