package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/armv5sim/coproc"
	"github.com/sarchlab/armv5sim/insts"
)

// MSR field mask bits and the PSR bytes they select.
var msrFields = [4]PSR{0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000}

func (c *CPU) executeMisc(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.OpMRS:
		c.mrs(inst)
	case insts.OpMSR:
		c.msr(inst)
	case insts.OpBX, insts.OpBLXReg:
		c.branchUnit.Execute(inst)
	case insts.OpCLZ:
		c.alu.CLZ(inst)
	case insts.OpBKPT, insts.OpDSP:
		return fmt.Errorf("%s: %w", inst.Op, ErrNotImplemented)
	default:
		return fmt.Errorf("%s: %w", inst.Op, ErrUnsupportedEncoding)
	}
	return nil
}

func (c *CPU) mrs(inst *insts.Instruction) {
	v := c.regs.CPSR()
	if inst.B() {
		v = c.regs.SPSR()
	}
	c.regs.SetReg(inst.Rd(), uint32(v))
}

// msr writes the fields selected by the mask. Outside privileged modes
// only the flags byte of the CPSR is writable.
func (c *CPU) msr(inst *insts.Instruction) {
	var v PSR
	if inst.Operand == insts.ShifterImm {
		v = PSR(inst.Imm32())
	} else {
		v = PSR(c.regs.GetReg(inst.Rm()))
	}

	if inst.Rd() != 0xf {
		c.log.V(1).Info("msr: SBO field is not all ones", "inst", hex32(inst.Raw))
	}

	var mask PSR
	fields := inst.FieldMask()
	for i, m := range msrFields {
		if fields&(1<<uint(i)) != 0 {
			mask |= m
		}
	}

	if inst.B() {
		c.regs.SetSPSR(c.regs.SPSR()&^mask | v&mask)
		return
	}

	if !c.regs.Mode().Privileged() {
		mask &= msrFields[3]
	}
	c.regs.SetCPSR(c.regs.CPSR()&^mask | v&mask)
}

// executeCoproc runs MRC, MCR and CDP against the registry. Missing
// coprocessors and registers take the undefined instruction exception.
func (c *CPU) executeCoproc(inst *insts.Instruction, pc uint32) error {
	if inst.Op == insts.OpLDC || inst.Op == insts.OpSTC {
		return fmt.Errorf("%s p%d: %w", inst.Op, inst.CPNum(), ErrNotImplemented)
	}

	cp := c.coprocs.Get(inst.CPNum())
	if cp == nil {
		c.undefined(inst, pc, fmt.Sprintf("no coprocessor p%d", inst.CPNum()))
		return nil
	}

	if inst.Op == insts.OpCDP {
		c.undefined(inst, pc, cp.Name()+" has no data operations")
		return nil
	}

	id := coproc.RegID(inst.CRn(), inst.CPOpc1(), inst.CRm(), inst.CPOpc2())

	switch inst.Op {
	case insts.OpMRC:
		v, err := cp.Get(id)
		if err != nil {
			c.undefined(inst, pc, err.Error())
			return nil
		}
		if inst.Rd() == 15 {
			c.regs.SetCPSR(c.regs.CPSR()&^0xf0000000 | PSR(v)&0xf0000000)
			return nil
		}
		c.regs.SetReg(inst.Rd(), v)
	case insts.OpMCR:
		err := cp.Set(id, c.regs.GetReg(inst.Rd()))
		switch {
		case errors.Is(err, coproc.ErrUnregistered):
			c.undefined(inst, pc, err.Error())
			return nil
		case errors.Is(err, coproc.ErrReadOnly):
			c.log.V(1).Info("write to read-only coprocessor register ignored",
				"pc", hex32(pc), "reg", coproc.FormatRegID(id))
			return nil
		}
		if cp.Number() == coproc.SystemControlNumber && id == coproc.RegWaitForInterrupt {
			c.waiting.Store(true)
		}
	}

	return nil
}
