package emu

import (
	"github.com/sarchlab/armv5sim/bitops"
	"github.com/sarchlab/armv5sim/insts"
)

// ShiftImm applies an immediate-specified shift to v and returns the result
// with the shifter carry-out. An amount of 0 encodes LSR #32, ASR #32 and
// RRX for the right shifts.
func ShiftImm(v uint32, typ insts.ShiftType, amount uint32, carry bool) (uint32, bool) {
	switch typ {
	case insts.ShiftLSL:
		if amount == 0 {
			return v, carry
		}
		return v << amount, bitops.Bit(v, uint(32-amount))
	case insts.ShiftLSR:
		if amount == 0 {
			return 0, bitops.Bit(v, 31)
		}
		return v >> amount, bitops.Bit(v, uint(amount-1))
	case insts.ShiftASR:
		if amount == 0 {
			if bitops.Bit(v, 31) {
				return 0xffffffff, true
			}
			return 0, false
		}
		return uint32(int32(v) >> amount), bitops.Bit(v, uint(amount-1))
	default:
		if amount == 0 {
			return bitops.BoolToBit(carry)<<31 | v>>1, bitops.Bit(v, 0)
		}
		return bitops.RotateRight(v, uint(amount)), bitops.Bit(v, uint(amount-1))
	}
}

// ShiftReg applies a register-specified shift to v. Only the bottom byte of
// amount is significant.
func ShiftReg(v uint32, typ insts.ShiftType, amount uint32, carry bool) (uint32, bool) {
	amount &= 0xff
	if amount == 0 {
		return v, carry
	}

	switch typ {
	case insts.ShiftLSL:
		switch {
		case amount < 32:
			return v << amount, bitops.Bit(v, uint(32-amount))
		case amount == 32:
			return 0, bitops.Bit(v, 0)
		}
		return 0, false
	case insts.ShiftLSR:
		switch {
		case amount < 32:
			return v >> amount, bitops.Bit(v, uint(amount-1))
		case amount == 32:
			return 0, bitops.Bit(v, 31)
		}
		return 0, false
	case insts.ShiftASR:
		if amount < 32 {
			return uint32(int32(v) >> amount), bitops.Bit(v, uint(amount-1))
		}
		if bitops.Bit(v, 31) {
			return 0xffffffff, true
		}
		return 0, false
	default:
		r := amount & 31
		if r == 0 {
			return v, bitops.Bit(v, 31)
		}
		return bitops.RotateRight(v, uint(r)), bitops.Bit(v, uint(r-1))
	}
}

// shifterOperand evaluates a data-processing second operand.
func shifterOperand(regs *RegFile, inst *insts.Instruction) (uint32, bool) {
	carry := regs.Flag(PSRC)

	switch inst.Operand {
	case insts.ShifterImm:
		v := inst.Imm32()
		if inst.RotateImm() == 0 {
			return v, carry
		}
		return v, bitops.Bit(v, 31)
	case insts.ShifterImmShift:
		return ShiftImm(regs.GetReg(inst.Rm()), inst.Shift(), inst.ShiftImm(), carry)
	case insts.ShifterRegShift:
		return ShiftReg(regs.GetReg(inst.Rm()), inst.Shift(), regs.GetReg(inst.Rs()), carry)
	}

	return 0, carry
}

// addressOffset evaluates a load/store offset, without its sign.
func addressOffset(regs *RegFile, inst *insts.Instruction) uint32 {
	switch inst.Operand {
	case insts.AddrImm:
		if inst.Format == insts.FormatExtraLoadStore {
			return inst.ImmHL()
		}
		return inst.Imm12()
	case insts.AddrReg:
		return regs.GetReg(inst.Rm())
	case insts.AddrScaledReg:
		v, _ := ShiftImm(regs.GetReg(inst.Rm()), inst.Shift(), inst.ShiftImm(), regs.Flag(PSRC))
		return v
	}
	return 0
}
