// Package emu provides functional ARMv5 emulation.
package emu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/coproc"
	"github.com/sarchlab/armv5sim/insts"
)

// idleInterval is how long Run sleeps between interrupt polls while the
// core waits for an interrupt.
const idleInterval = 50 * time.Microsecond

// InterruptLine is a level-sensitive interrupt input.
type InterruptLine interface {
	Asserted() bool
}

// StepResult represents the result of a single step.
type StepResult struct {
	// Waiting is true if the core is parked in wait-for-interrupt and no
	// instruction was executed.
	Waiting bool

	// Err is set if the instruction faulted. It is always a *Fault.
	Err error
}

// CPU executes ARM instructions functionally. It is a bus master: every
// fetch and data access goes through the bus.Space it was built with.
type CPU struct {
	regs    *RegFile
	memory  bus.Space
	decoder *insts.Decoder
	coprocs *coproc.Registry

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	irq InterruptLine
	fiq InterruptLine

	log    logr.Logger
	disasm io.Writer
	policy FaultPolicy

	// Execution state
	instructionCount atomic.Uint64
	maxInstructions  uint64 // 0 means no limit
	halted           atomic.Bool
	waiting          atomic.Bool
}

// CPUOption is a functional option for configuring the CPU.
type CPUOption func(*CPU)

// WithLogger sets the logger for diagnostics.
func WithLogger(log logr.Logger) CPUOption {
	return func(c *CPU) {
		c.log = log
	}
}

// WithDisasm writes a disassembly line for every instruction to w.
func WithDisasm(w io.Writer) CPUOption {
	return func(c *CPU) {
		c.disasm = w
	}
}

// WithFaultPolicy sets how Run reacts to faults.
func WithFaultPolicy(p FaultPolicy) CPUOption {
	return func(c *CPU) {
		c.policy = p
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) CPUOption {
	return func(c *CPU) {
		c.maxInstructions = max
	}
}

// WithCoprocessors replaces the default registry, which holds only the
// system control coprocessor.
func WithCoprocessors(r *coproc.Registry) CPUOption {
	return func(c *CPU) {
		c.coprocs = r
	}
}

// WithInterrupts connects the IRQ and FIQ inputs. Either may be nil.
func WithInterrupts(irq, fiq InterruptLine) CPUOption {
	return func(c *CPU) {
		c.irq = irq
		c.fiq = fiq
	}
}

// NewCPU creates a CPU in its reset state attached to memory.
func NewCPU(memory bus.Space, opts ...CPUOption) *CPU {
	regs := NewRegFile()

	c := &CPU{
		regs:    regs,
		memory:  memory,
		decoder: insts.NewDecoder(),
		log:     logr.Discard(),
		policy:  DefaultFaultPolicy,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.coprocs == nil {
		c.coprocs, _ = coproc.NewRegistry(coproc.NewSystemControl())
	}

	c.alu = NewALU(regs)
	c.lsu = NewLoadStoreUnit(regs, memory)
	c.branchUnit = NewBranchUnit(regs)

	c.regs.SetPC(c.VectorBase())
	c.regs.ClearJump()

	return c
}

// RegFile returns the CPU's register file.
func (c *CPU) RegFile() *RegFile {
	return c.regs
}

// Coprocessors returns the coprocessor registry.
func (c *CPU) Coprocessors() *coproc.Registry {
	return c.coprocs
}

// InstructionCount returns the number of instructions executed. It is
// safe to call from any goroutine.
func (c *CPU) InstructionCount() uint64 {
	return c.instructionCount.Load()
}

// Halt asks Run to return before the next instruction. It is safe to call
// from any goroutine.
func (c *CPU) Halt() {
	c.halted.Store(true)
}

// Halted reports whether Halt has been called.
func (c *CPU) Halted() bool {
	return c.halted.Load()
}

// Waiting reports whether the core is parked in wait-for-interrupt.
func (c *CPU) Waiting() bool {
	return c.waiting.Load()
}

// Reset puts the core in its reset state: supervisor mode, interrupts
// disabled, PC at the reset vector.
func (c *CPU) Reset() {
	c.regs.SetCPSR(PSR(ModeSvc) | PSRI | PSRF)
	c.regs.SetPC(c.VectorBase() + ExceptionReset.Vector())
	c.regs.ClearJump()
	c.waiting.Store(false)
	c.halted.Store(false)
}

// Write8 stores a byte through the bus. Used to populate memory before the
// core starts.
func (c *CPU) Write8(addr uint32, v uint8) error {
	return c.memory.Write8(uint64(addr), v)
}

// Write32 stores a word through the bus.
func (c *CPU) Write32(addr uint32, v uint32) error {
	return c.memory.Write32(uint64(addr), v)
}

// Write64 stores a double-word through the bus.
func (c *CPU) Write64(addr uint32, v uint64) error {
	return c.memory.Write64(uint64(addr), v)
}

// Read32 loads a word through the bus.
func (c *CPU) Read32(addr uint32) (uint32, error) {
	return c.memory.Read32(uint64(addr))
}

// Step executes a single instruction, after entering any pending
// interrupt.
func (c *CPU) Step() StepResult {
	if c.pollInterrupts() {
		c.regs.NextPC()
	}
	if c.waiting.Load() {
		return StepResult{Waiting: true}
	}

	pc := c.regs.PC()

	if c.regs.Flag(PSRT) {
		return StepResult{Err: newFault(pc, 0, fmt.Errorf("thumb state: %w", ErrNotImplemented))}
	}

	// 1. Fetch
	word, err := c.memory.Read32(uint64(pc))
	if err != nil {
		return StepResult{Err: newFault(pc, 0, fmt.Errorf("fetch: %w", err))}
	}

	// 2. Decode
	inst := c.decoder.Decode(word)

	// 3. Execute
	if err := c.execute(inst, pc); err != nil {
		return StepResult{Err: newFault(pc, word, err)}
	}

	c.regs.NextPC()
	c.instructionCount.Add(1)

	return StepResult{}
}

// Run executes instructions until ctx is done, Halt is called, the
// instruction limit is reached or the fault policy aborts.
func (c *CPU) Run(ctx context.Context) error {
	done := ctx.Done()

	for {
		if c.halted.Load() {
			return nil
		}
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		if c.maxInstructions > 0 && c.InstructionCount() >= c.maxInstructions {
			return ErrInstructionLimit
		}

		result := c.Step()
		if result.Waiting {
			time.Sleep(idleInterval)
			continue
		}
		if result.Err == nil {
			continue
		}

		var f *Fault
		if !errors.As(result.Err, &f) || c.policy(f) == FaultAbort {
			return result.Err
		}

		c.log.Error(f.Err, "instruction skipped",
			"pc", hex32(f.PC), "inst", hex32(f.Inst), "kind", f.Kind.String())
		c.regs.NextPC()
		c.instructionCount.Add(1)
	}
}

// execute traces, checks the condition and dispatches inst.
func (c *CPU) execute(inst *insts.Instruction, pc uint32) error {
	if c.disasm != nil {
		c.trace(inst, pc)
	}

	if !ConditionPassed(inst.Cond(), c.regs.CPSR()) {
		return nil
	}

	switch inst.Format {
	case insts.FormatDataProc:
		c.alu.DataProc(inst)
		return nil
	case insts.FormatMisc:
		return c.executeMisc(inst)
	case insts.FormatMultiply:
		if inst.Op == insts.OpSWP || inst.Op == insts.OpSWPB {
			return c.lsu.Swap(inst)
		}
		c.alu.Multiply(inst)
		return nil
	case insts.FormatExtraLoadStore:
		return c.lsu.ExtraLoadStore(inst)
	case insts.FormatLoadStore:
		if inst.Op == insts.OpPLD {
			return nil
		}
		return c.lsu.LoadStore(inst)
	case insts.FormatBlock:
		return c.lsu.Block(inst)
	case insts.FormatBranch:
		c.branchUnit.Execute(inst)
		return nil
	case insts.FormatCoproc:
		return c.executeCoproc(inst, pc)
	case insts.FormatSWI:
		c.Raise(ExceptionSWI, pc+4)
		return nil
	case insts.FormatUndefined:
		c.undefined(inst, pc, "undefined encoding")
		return nil
	}

	return fmt.Errorf("%s: %w", inst.Op, ErrUnsupportedEncoding)
}

// undefined takes the undefined instruction exception for inst.
func (c *CPU) undefined(inst *insts.Instruction, pc uint32, reason string) {
	c.log.V(1).Info("undefined instruction",
		"pc", hex32(pc), "inst", hex32(inst.Raw), "reason", reason)
	c.Raise(ExceptionUndefined, pc+4)
}

func (c *CPU) trace(inst *insts.Instruction, pc uint32) {
	mnemonic, operands := insts.Disassemble(inst, pc)
	_, _ = fmt.Fprintf(c.disasm, "%08x:    %08x    %-7s %s\n", pc, inst.Raw, mnemonic, operands)
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
