package insts

import (
	"fmt"
	"strings"
)

var opNames = map[Op]string{
	OpAND: "and", OpEOR: "eor", OpSUB: "sub", OpRSB: "rsb",
	OpADD: "add", OpADC: "adc", OpSBC: "sbc", OpRSC: "rsc",
	OpTST: "tst", OpTEQ: "teq", OpCMP: "cmp", OpCMN: "cmn",
	OpORR: "orr", OpMOV: "mov", OpBIC: "bic", OpMVN: "mvn",

	OpMRS: "mrs", OpMSR: "msr", OpBX: "bx", OpBLXReg: "blx",
	OpCLZ: "clz", OpBKPT: "bkpt", OpDSP: "dsp",

	OpMUL: "mul", OpMLA: "mla", OpUMULL: "umull", OpUMLAL: "umlal",
	OpSMULL: "smull", OpSMLAL: "smlal", OpSWP: "swp", OpSWPB: "swpb",

	OpLDRH: "ldrh", OpSTRH: "strh", OpLDRSB: "ldrsb", OpLDRSH: "ldrsh",
	OpLDRD: "ldrd", OpSTRD: "strd",

	OpLDR: "ldr", OpLDRB: "ldrb", OpLDRT: "ldrt", OpLDRBT: "ldrbt",
	OpSTR: "str", OpSTRB: "strb", OpSTRT: "strt", OpSTRBT: "strbt",
	OpPLD: "pld",

	OpLDM1: "ldm", OpLDM2: "ldm", OpLDM3: "ldm", OpSTM1: "stm", OpSTM2: "stm",

	OpB: "b", OpBL: "bl", OpBLX: "blx",

	OpCDP: "cdp", OpMRC: "mrc", OpMCR: "mcr", OpLDC: "ldc", OpSTC: "stc",
	OpSWI: "swi",

	OpUND:     "und",
	OpUnknown: "unknown",
}

// String returns the base mnemonic of the opcode.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint16(o))
}

var regNames = [16]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "fp", "ip", "sp", "lr", "pc",
}

// RegName returns the assembler name of register n.
func RegName(n int) string {
	return regNames[n&0xf]
}

// Disassemble renders inst, located at address pc, as a mnemonic and an
// operand string.
func Disassemble(inst *Instruction, pc uint32) (mnemonic, operands string) {
	cond := inst.Cond().String()
	if inst.Cond() == CondNV {
		cond = ""
	}

	switch inst.Format {
	case FormatDataProc:
		return disasmDataProc(inst, cond)
	case FormatMisc:
		return disasmMisc(inst, cond)
	case FormatMultiply:
		return disasmMultiply(inst, cond)
	case FormatExtraLoadStore, FormatLoadStore:
		return disasmLoadStore(inst, cond)
	case FormatBlock:
		return disasmBlock(inst, cond)
	case FormatBranch:
		return disasmBranch(inst, cond, pc)
	case FormatCoproc:
		return disasmCoproc(inst, cond)
	case FormatSWI:
		return "swi" + cond, fmt.Sprintf("0x%06x", inst.SWINum())
	case FormatUndefined:
		return "und" + cond, ""
	}

	return "unknown", fmt.Sprintf("0x%08x", inst.Raw)
}

// ShifterOperand renders a data-processing second operand.
func ShifterOperand(inst *Instruction) string {
	switch inst.Operand {
	case ShifterImm:
		return fmt.Sprintf("#%d", inst.Imm32())
	case ShifterImmShift:
		return shiftedReg(inst)
	case ShifterRegShift:
		return fmt.Sprintf("%s, %s %s", RegName(inst.Rm()), inst.Shift(), RegName(inst.Rs()))
	}
	return ""
}

func shiftedReg(inst *Instruction) string {
	rm := RegName(inst.Rm())
	amount := inst.ShiftImm()

	switch inst.Shift() {
	case ShiftLSL:
		if amount == 0 {
			return rm
		}
	case ShiftLSR, ShiftASR:
		if amount == 0 {
			amount = 32
		}
	case ShiftROR:
		if amount == 0 {
			return rm + ", rrx"
		}
	}

	return fmt.Sprintf("%s, %s #%d", rm, inst.Shift(), amount)
}

func disasmDataProc(inst *Instruction, cond string) (string, string) {
	op := inst.Op
	s := ""
	if inst.S() && !(op >= OpTST && op <= OpCMN) {
		s = "s"
	}
	mnemonic := op.String() + cond + s
	operand := ShifterOperand(inst)

	switch {
	case op == OpMOV || op == OpMVN:
		return mnemonic, fmt.Sprintf("%s, %s", RegName(inst.Rd()), operand)
	case op >= OpTST && op <= OpCMN:
		return mnemonic, fmt.Sprintf("%s, %s", RegName(inst.Rn()), operand)
	}

	return mnemonic, fmt.Sprintf("%s, %s, %s", RegName(inst.Rd()), RegName(inst.Rn()), operand)
}

func psrName(spsr bool) string {
	if spsr {
		return "spsr"
	}
	return "cpsr"
}

// FieldMaskName renders an MSR field mask as a _fsxc suffix.
func FieldMaskName(mask uint32) string {
	var b strings.Builder
	for i, c := range []byte{'c', 'x', 's', 'f'} {
		if mask&(1<<uint(i)) != 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func disasmMisc(inst *Instruction, cond string) (string, string) {
	mnemonic := inst.Op.String() + cond

	switch inst.Op {
	case OpMRS:
		return mnemonic, fmt.Sprintf("%s, %s", RegName(inst.Rd()), psrName(inst.B()))
	case OpMSR:
		dst := psrName(inst.B()) + "_" + FieldMaskName(inst.FieldMask())
		if inst.Operand == ShifterImm {
			return mnemonic, fmt.Sprintf("%s, #%d", dst, inst.Imm32())
		}
		return mnemonic, fmt.Sprintf("%s, %s", dst, RegName(inst.Rm()))
	case OpBX, OpBLXReg:
		return mnemonic, RegName(inst.Rm())
	case OpCLZ:
		return mnemonic, fmt.Sprintf("%s, %s", RegName(inst.Rd()), RegName(inst.Rm()))
	case OpBKPT:
		return "bkpt", fmt.Sprintf("0x%04x", inst.BKPTImm())
	}

	return mnemonic, fmt.Sprintf("0x%08x", inst.Raw)
}

func disasmMultiply(inst *Instruction, cond string) (string, string) {
	s := ""
	if inst.S() {
		s = "s"
	}
	// Multiplies keep Rd in [19:16] and the accumulator in [15:12].
	rd, rn := RegName(inst.Rn()), RegName(inst.Rd())
	rm, rs := RegName(inst.Rm()), RegName(inst.Rs())

	switch inst.Op {
	case OpMUL:
		return "mul" + cond + s, fmt.Sprintf("%s, %s, %s", rd, rm, rs)
	case OpMLA:
		return "mla" + cond + s, fmt.Sprintf("%s, %s, %s, %s", rd, rm, rs, rn)
	case OpSWP, OpSWPB:
		b := ""
		if inst.Op == OpSWPB {
			b = "b"
		}
		return "swp" + cond + b, fmt.Sprintf("%s, %s, [%s]",
			RegName(inst.Rd()), RegName(inst.Rm()), RegName(inst.Rn()))
	}

	// Long multiplies: RdHi in [19:16], RdLo in [15:12].
	return inst.Op.String() + cond + s, fmt.Sprintf("%s, %s, %s, %s", rn, rd, rm, rs)
}

func loadStoreMnemonic(inst *Instruction, cond string) string {
	switch inst.Op {
	case OpPLD:
		return "pld"
	case OpLDR, OpSTR:
		return inst.Op.String() + cond
	}
	// Pre-UAL order: condition before the size suffix.
	name := inst.Op.String()
	return name[:3] + cond + name[3:]
}

func loadStoreOffset(inst *Instruction) string {
	sign := ""
	if !inst.U() {
		sign = "-"
	}

	switch inst.Operand {
	case AddrImm:
		off := inst.Imm12()
		if inst.Format == FormatExtraLoadStore {
			off = inst.ImmHL()
		}
		if off == 0 {
			return ""
		}
		return fmt.Sprintf("#%s%d", sign, off)
	case AddrReg:
		return sign + RegName(inst.Rm())
	case AddrScaledReg:
		return sign + shiftedReg(inst)
	}
	return ""
}

func disasmLoadStore(inst *Instruction, cond string) (string, string) {
	rn := RegName(inst.Rn())
	off := loadStoreOffset(inst)

	var addr string
	switch {
	case !inst.P():
		addr = "[" + rn + "]"
		if off != "" {
			addr += ", " + off
		}
	case off == "":
		addr = "[" + rn + "]"
	default:
		addr = "[" + rn + ", " + off + "]"
	}
	if inst.P() && inst.W() {
		addr += "!"
	}

	if inst.Op == OpPLD {
		return "pld", addr
	}
	return loadStoreMnemonic(inst, cond), fmt.Sprintf("%s, %s", RegName(inst.Rd()), addr)
}

// RegListString renders a block transfer register list.
func RegListString(list uint32) string {
	names := make([]string, 0, 16)
	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) != 0 {
			names = append(names, RegName(r))
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func disasmBlock(inst *Instruction, cond string) (string, string) {
	mnemonic := inst.Op.String() + cond + puNames[inst.PU()]

	operand := RegName(inst.Rn())
	if inst.W() {
		operand += "!"
	}
	operand += ", " + RegListString(inst.RegList())
	if inst.B() {
		operand += "^"
	}

	return mnemonic, operand
}

func disasmBranch(inst *Instruction, cond string, pc uint32) (string, string) {
	target := pc + 8 + uint32(inst.BranchOffset())
	if inst.Op == OpBLX && inst.H() {
		target += 2
	}
	return inst.Op.String() + cond, fmt.Sprintf("%08x", target)
}

func disasmCoproc(inst *Instruction, cond string) (string, string) {
	mnemonic := inst.Op.String() + cond
	cp := fmt.Sprintf("p%d", inst.CPNum())

	switch inst.Op {
	case OpMRC, OpMCR:
		return mnemonic, fmt.Sprintf("%s, %d, %s, c%d, c%d, %d",
			cp, inst.CPOpc1(), RegName(inst.Rd()), inst.CRn(), inst.CRm(), inst.CPOpc2())
	case OpCDP:
		return mnemonic, fmt.Sprintf("%s, %d, c%d, c%d, c%d, %d",
			cp, inst.CDPOpc1(), inst.Rd(), inst.CRn(), inst.CRm(), inst.CPOpc2())
	}

	return mnemonic, fmt.Sprintf("%s, c%d, [%s]", cp, inst.Rd(), RegName(inst.Rn()))
}
