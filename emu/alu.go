package emu

import (
	"math/bits"

	"github.com/sarchlab/armv5sim/bitops"
	"github.com/sarchlab/armv5sim/insts"
)

// CarryFrom reports whether l + r carries out of 32 bits.
func CarryFrom(l, r uint32) bool {
	return (uint64(l)+uint64(r))>>32 != 0
}

// BorrowFrom reports whether l - r borrows.
func BorrowFrom(l, r uint32) bool {
	return r > l
}

// OverflowFrom reports signed overflow of l + r (add) or l - r.
func OverflowFrom(l, r uint32, add bool) bool {
	if add {
		res := l + r
		return (l^r)&0x80000000 == 0 && (l^res)&0x80000000 != 0
	}
	res := l - r
	return (l^r)&0x80000000 != 0 && (l^res)&0x80000000 != 0
}

// ALU implements ARM data-processing and multiply operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

func isTest(op insts.Op) bool {
	return op >= insts.OpTST && op <= insts.OpCMN
}

// DataProc executes one of the sixteen data-processing operations.
func (a *ALU) DataProc(inst *insts.Instruction) {
	op1 := a.regFile.GetReg(inst.Rn())
	op2, shifterCarry := shifterOperand(a.regFile, inst)
	cin := bitops.BoolToBit(a.regFile.Flag(PSRC))

	var (
		res      uint32
		carry    bool
		overflow bool
		logical  bool
	)

	switch inst.Op {
	case insts.OpAND, insts.OpTST:
		res, logical = op1&op2, true
	case insts.OpEOR, insts.OpTEQ:
		res, logical = op1^op2, true
	case insts.OpORR:
		res, logical = op1|op2, true
	case insts.OpMOV:
		res, logical = op2, true
	case insts.OpBIC:
		res, logical = op1&^op2, true
	case insts.OpMVN:
		res, logical = ^op2, true
	case insts.OpSUB, insts.OpCMP:
		res = op1 - op2
		carry = !BorrowFrom(op1, op2)
		overflow = OverflowFrom(op1, op2, false)
	case insts.OpRSB:
		res = op2 - op1
		carry = !BorrowFrom(op2, op1)
		overflow = OverflowFrom(op2, op1, false)
	case insts.OpADD, insts.OpCMN:
		res = op1 + op2
		carry = CarryFrom(op1, op2)
		overflow = OverflowFrom(op1, op2, true)
	case insts.OpADC:
		res = op1 + op2 + cin
		carry = uint64(op1)+uint64(op2)+uint64(cin) > 0xffffffff
		overflow = (op1^res)&(op2^res)&0x80000000 != 0
	case insts.OpSBC:
		res = op1 - op2 - (1 - cin)
		carry = uint64(op1) >= uint64(op2)+uint64(1-cin)
		overflow = (op1^op2)&(op1^res)&0x80000000 != 0
	case insts.OpRSC:
		res = op2 - op1 - (1 - cin)
		carry = uint64(op2) >= uint64(op1)+uint64(1-cin)
		overflow = (op2^op1)&(op2^res)&0x80000000 != 0
	}

	test := isTest(inst.Op)
	if !test {
		a.regFile.SetReg(inst.Rd(), res)
	}

	if !inst.S() {
		return
	}

	// Writing the PC with S set returns from an exception.
	if inst.Rd() == 15 && !test {
		a.regFile.SetCPSR(a.regFile.SPSR())
		return
	}

	a.regFile.SetNZ(res)
	if logical {
		a.regFile.SetFlag(PSRC, shifterCarry)
		return
	}
	a.regFile.SetFlag(PSRC, carry)
	a.regFile.SetFlag(PSRV, overflow)
}

// Multiply executes MUL, MLA and the long multiplies. The destination is
// in [19:16] and the accumulator (RdLo for long forms) in [15:12]. With S
// set only N and Z are updated.
func (a *ALU) Multiply(inst *insts.Instruction) {
	rm := a.regFile.GetReg(inst.Rm())
	rs := a.regFile.GetReg(inst.Rs())
	hi, lo := inst.Rn(), inst.Rd()

	switch inst.Op {
	case insts.OpMUL, insts.OpMLA:
		res := rm * rs
		if inst.Op == insts.OpMLA {
			res += a.regFile.GetReg(lo)
		}
		a.regFile.SetReg(hi, res)
		if inst.S() {
			a.regFile.SetNZ(res)
		}
		return
	}

	var res uint64
	switch inst.Op {
	case insts.OpUMULL, insts.OpUMLAL:
		res = uint64(rm) * uint64(rs)
	case insts.OpSMULL, insts.OpSMLAL:
		res = uint64(int64(int32(rm)) * int64(int32(rs)))
	}
	if inst.Op == insts.OpUMLAL || inst.Op == insts.OpSMLAL {
		res += uint64(a.regFile.GetReg(hi))<<32 | uint64(a.regFile.GetReg(lo))
	}

	a.regFile.SetReg(lo, uint32(res))
	a.regFile.SetReg(hi, uint32(res>>32))
	if inst.S() {
		a.regFile.SetFlag(PSRN, res>>63 != 0)
		a.regFile.SetFlag(PSRZ, res == 0)
	}
}

// CLZ counts the leading zero bits of Rm into Rd.
func (a *ALU) CLZ(inst *insts.Instruction) {
	v := a.regFile.GetReg(inst.Rm())
	a.regFile.SetReg(inst.Rd(), uint32(bits.LeadingZeros32(v)))
}
