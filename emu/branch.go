package emu

import "github.com/sarchlab/armv5sim/insts"

// ConditionPassed evaluates cond against the flags of psr.
func ConditionPassed(cond insts.Cond, psr PSR) bool {
	n, z := psr.Has(PSRN), psr.Has(PSRZ)
	c, v := psr.Has(PSRC), psr.Has(PSRV)

	switch cond {
	case insts.CondEQ:
		return z
	case insts.CondNE:
		return !z
	case insts.CondCS:
		return c
	case insts.CondCC:
		return !c
	case insts.CondMI:
		return n
	case insts.CondPL:
		return !n
	case insts.CondVS:
		return v
	case insts.CondVC:
		return !v
	case insts.CondHI:
		return c && !z
	case insts.CondLS:
		return !c || z
	case insts.CondGE:
		return n == v
	case insts.CondLT:
		return n != v
	case insts.CondGT:
		return !z && n == v
	case insts.CondLE:
		return z || n != v
	case insts.CondAL:
		return true
	}

	// NV selects the unconditional space, which is not gated on flags.
	return true
}

// BranchUnit implements ARM branch operations.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// link saves the address of the next instruction in r14.
func (b *BranchUnit) link() {
	b.regFile.SetReg(14, b.regFile.GetReg(15)-4)
}

// B branches to PC + offset, where PC carries the read bias.
func (b *BranchUnit) B(offset int32) {
	b.regFile.JumpRel(offset)
}

// BL branches with link.
func (b *BranchUnit) BL(offset int32) {
	b.link()
	b.regFile.JumpRel(offset)
}

// BLX branches with link to a Thumb target at PC + offset, plus 2 when
// half is set.
func (b *BranchUnit) BLX(offset int32, half bool) {
	if half {
		offset += 2
	}
	b.link()
	b.regFile.SetFlag(PSRT, true)
	b.regFile.JumpRel(offset)
}

// BX branches to the address in register rm, selecting the instruction
// set from bit 0.
func (b *BranchUnit) BX(rm int) {
	target := b.regFile.GetReg(rm)
	b.regFile.SetFlag(PSRT, target&1 != 0)
	b.regFile.SetPC(target &^ 1)
}

// BLXReg is BX with link.
func (b *BranchUnit) BLXReg(rm int) {
	target := b.regFile.GetReg(rm)
	b.link()
	b.regFile.SetFlag(PSRT, target&1 != 0)
	b.regFile.SetPC(target &^ 1)
}

// Execute dispatches a decoded branch instruction.
func (b *BranchUnit) Execute(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpB:
		b.B(inst.BranchOffset())
	case insts.OpBL:
		b.BL(inst.BranchOffset())
	case insts.OpBLX:
		b.BLX(inst.BranchOffset(), inst.H())
	case insts.OpBX:
		b.BX(inst.Rm())
	case insts.OpBLXReg:
		b.BLXReg(inst.Rm())
	}
}
