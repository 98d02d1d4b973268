package emu

import (
	"github.com/sarchlab/armv5sim/coproc"
)

// Exception identifies an exception vector.
type Exception int

// Exceptions taken by the CPU.
const (
	ExceptionReset Exception = iota
	ExceptionUndefined
	ExceptionSWI
	ExceptionIRQ
	ExceptionFIQ
)

type vector struct {
	name   string
	offset uint32
	mode   Mode
	fiqOff bool
}

var vectors = [...]vector{
	ExceptionReset:     {"reset", 0x00, ModeSvc, true},
	ExceptionUndefined: {"undefined", 0x04, ModeUnd, false},
	ExceptionSWI:       {"swi", 0x08, ModeSvc, false},
	ExceptionIRQ:       {"irq", 0x18, ModeIRQ, false},
	ExceptionFIQ:       {"fiq", 0x1c, ModeFIQ, true},
}

func (e Exception) String() string {
	return vectors[e].name
}

// Vector returns the vector offset of e from the vector base.
func (e Exception) Vector() uint32 {
	return vectors[e].offset
}

// HighVectorBase is the vector base selected by the control register V bit.
const HighVectorBase = 0xffff0000

// VectorBase returns the address of the exception vector table.
func (c *CPU) VectorBase() uint32 {
	cp := c.coprocs.Get(coproc.SystemControlNumber)
	if cp == nil {
		return 0
	}
	ctrl, err := cp.Get(coproc.RegControl)
	if err != nil || ctrl&coproc.ControlHighVectors == 0 {
		return 0
	}
	return HighVectorBase
}

// Raise enters exception e. The CPSR is saved into the SPSR of the target
// mode, lr is set to returnAddr, and the PC jumps to the vector.
func (c *CPU) Raise(e Exception, returnAddr uint32) {
	v := vectors[e]
	old := c.regs.CPSR()

	next := old.WithMode(v.mode)&^PSRT | PSRI
	if v.fiqOff {
		next |= PSRF
	}

	c.regs.SetCPSR(next)
	c.regs.SetSPSR(old)
	c.regs.SetReg(14, returnAddr)
	c.regs.SetPC(c.VectorBase() + v.offset)

	c.log.V(2).Info("exception", "vector", e.String(), "lr", hex32(returnAddr), "cpsr", old.String())
}

// pollInterrupts wakes a waiting core on any asserted line and enters the
// FIQ or IRQ exception when the line is asserted and unmasked. It reports
// whether an exception was taken.
func (c *CPU) pollInterrupts() bool {
	fiq := c.fiq != nil && c.fiq.Asserted()
	irq := c.irq != nil && c.irq.Asserted()

	if fiq || irq {
		c.waiting.Store(false)
	}

	// The stored PC is the next instruction to run; the handler returns
	// with SUBS pc, lr, #4.
	ret := c.regs.PC() + 4

	switch {
	case fiq && !c.regs.Flag(PSRF):
		c.Raise(ExceptionFIQ, ret)
		return true
	case irq && !c.regs.Flag(PSRI):
		c.Raise(ExceptionIRQ, ret)
		return true
	}
	return false
}
