// Package benchmarks provides throughput benchmarks for the functional
// ARMv5 core.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/devices"
	"github.com/sarchlab/armv5sim/emu"
)

// Memory layout of a benchmark machine.
const (
	ramSize     = 1 << 20
	ProgramAddr = 0x8000
	DataAddr    = 0x40000
	StackTop    = 0xf0000
)

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Instructions is the number of instructions executed, including the
	// final WFI.
	Instructions uint64 `json:"instructions"`

	// R0 is the value left in r0 when the program parked.
	R0 uint32 `json:"r0"`

	// Passed reports whether R0 matched the expected value.
	Passed bool `json:"passed"`

	// Err is set if the program faulted or ran out of instructions.
	Err string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the emulation
	WallTime time.Duration `json:"wall_time_ns"`

	// MIPS is millions of emulated instructions per wall clock second.
	MIPS float64 `json:"mips"`
}

// Benchmark defines a single benchmark program. The program runs from
// ProgramAddr in supervisor mode and ends by executing WFI.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares registers and memory before the run.
	Setup func(regs *emu.RegFile, mem bus.Space) error

	// Program is the ARM machine code to execute
	Program []uint32

	// ExpectedR0 is the value r0 holds at the end (for validation)
	ExpectedR0 uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// MaxInstructions bounds each run. 0 means no limit.
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Log receives per-benchmark diagnostics.
	Log logr.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		MaxInstructions: 50_000_000,
		Output:          os.Stdout,
		Log:             logr.Discard(),
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Log.GetSink() == nil {
		config.Log = logr.Discard()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// newMachine builds a bare core with RAM at address zero.
func newMachine(log logr.Logger) (*bus.Bus, *emu.CPU, error) {
	b := bus.New()
	if err := b.Attach(devices.NewRAM(ramSize), 0, ramSize); err != nil {
		return nil, nil, err
	}
	b.Seal()
	return b, emu.NewCPU(b, emu.WithLogger(log)), nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}
	log := h.config.Log.WithValues("benchmark", bench.Name)

	b, cpu, err := newMachine(log)
	if err == nil {
		err = load(cpu, bench)
	}
	if err == nil && bench.Setup != nil {
		err = bench.Setup(cpu.RegFile(), b)
	}
	if err != nil {
		result.Err = err.Error()
		return result
	}

	start := time.Now()
	err = h.run(cpu)
	result.WallTime = time.Since(start)

	result.Instructions = cpu.InstructionCount()
	result.R0 = cpu.RegFile().GetReg(0)
	result.Passed = err == nil && result.R0 == bench.ExpectedR0
	if err != nil {
		result.Err = err.Error()
		log.Error(err, "benchmark stopped")
	}
	if secs := result.WallTime.Seconds(); secs > 0 {
		result.MIPS = float64(result.Instructions) / secs / 1e6
	}

	return result
}

func load(cpu *emu.CPU, bench Benchmark) error {
	for i, w := range bench.Program {
		if err := cpu.Write32(ProgramAddr+uint32(4*i), w); err != nil {
			return fmt.Errorf("load program: %w", err)
		}
	}
	regs := cpu.RegFile()
	regs.SetReg(13, StackTop)
	regs.SetPC(ProgramAddr)
	regs.ClearJump()
	return nil
}

// run steps the core until it parks in WFI.
func (h *Harness) run(cpu *emu.CPU) error {
	for {
		if max := h.config.MaxInstructions; max > 0 && cpu.InstructionCount() >= max {
			return emu.ErrInstructionLimit
		}
		result := cpu.Step()
		if result.Waiting {
			return nil
		}
		if result.Err != nil {
			return result.Err
		}
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== armv5sim Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description:  %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions: %d\n", r.Instructions)
		_, _ = fmt.Fprintf(h.config.Output, "  r0:           0x%08x\n", r.R0)
		_, _ = fmt.Fprintf(h.config.Output, "  Passed:       %v\n", r.Passed)
		if r.Err != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error:        %s\n", r.Err)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time:    %v\n", r.WallTime)
		_, _ = fmt.Fprintf(h.config.Output, "  MIPS:         %.2f\n", r.MIPS)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "name,instructions,r0,passed,wall_time_ns,mips")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%v,%d,%.2f\n",
			r.Name,
			r.Instructions,
			r.R0,
			r.Passed,
			r.WallTime.Nanoseconds(),
			r.MIPS,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Passed            int           `json:"passed"`
	TotalInstructions uint64        `json:"total_instructions"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
	MIPS              float64       `json:"mips"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalInstructions += r.Instructions
		s.TotalWallTime += r.WallTime
		if r.Passed {
			s.Passed++
		}
	}
	if secs := s.TotalWallTime.Seconds(); secs > 0 {
		s.MIPS = float64(s.TotalInstructions) / secs / 1e6
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   results,
		Summary:   Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
