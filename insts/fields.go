package insts

import "github.com/sarchlab/armv5sim/bitops"

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always
	CondNV Cond = 0b1111 // Unconditional instruction space
)

var condNames = [16]string{
	"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le", "", "nv",
}

// String returns the assembler suffix; AL renders as the empty string.
func (c Cond) String() string {
	return condNames[c&0xf]
}

// ShiftType represents a barrel shifter operation.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right (RRX when the amount is 0)
)

var shiftNames = [4]string{"lsl", "lsr", "asr", "ror"}

func (s ShiftType) String() string {
	return shiftNames[s&0x3]
}

// Block transfer addressing modes, from the P and U bits.
const (
	PUDecrementAfter  = 0b00
	PUIncrementAfter  = 0b01
	PUDecrementBefore = 0b10
	PUIncrementBefore = 0b11
)

var puNames = [4]string{"da", "ia", "db", "ib"}

func (i *Instruction) bit(n uint) bool {
	return bitops.Bit(i.Raw, n)
}

// Cond returns bits [31:28].
func (i *Instruction) Cond() Cond { return Cond(i.Raw >> 28) }

// SubCode returns bits [27:26], the top-level dispatch class.
func (i *Instruction) SubCode() uint32 { return bitops.Field(i.Raw, 27, 26) }

// Opcode returns the data-processing opcode, bits [24:21].
func (i *Instruction) Opcode() uint32 { return bitops.Field(i.Raw, 24, 21) }

// I returns bit 25, the immediate bit.
func (i *Instruction) I() bool { return i.bit(25) }

// P returns bit 24, the pre-index bit.
func (i *Instruction) P() bool { return i.bit(24) }

// U returns bit 23, the up bit.
func (i *Instruction) U() bool { return i.bit(23) }

// B returns bit 22: byte transfer, SPSR select (R) or user bank (S) for
// block transfers, depending on the format.
func (i *Instruction) B() bool { return i.bit(22) }

// W returns bit 21, the write-back bit.
func (i *Instruction) W() bool { return i.bit(21) }

// S returns bit 20, the set-flags bit.
func (i *Instruction) S() bool { return i.bit(20) }

// L returns bit 20, the load bit.
func (i *Instruction) L() bool { return i.bit(20) }

// H returns bit 24, the half-word offset bit of BLX(1).
func (i *Instruction) H() bool { return i.bit(24) }

// Rn returns bits [19:16].
func (i *Instruction) Rn() int { return int(bitops.Field(i.Raw, 19, 16)) }

// Rd returns bits [15:12].
func (i *Instruction) Rd() int { return int(bitops.Field(i.Raw, 15, 12)) }

// Rs returns bits [11:8].
func (i *Instruction) Rs() int { return int(bitops.Field(i.Raw, 11, 8)) }

// Rm returns bits [3:0].
func (i *Instruction) Rm() int { return int(bitops.Field(i.Raw, 3, 0)) }

// ShiftImm returns the 5-bit shift amount, bits [11:7].
func (i *Instruction) ShiftImm() uint32 { return bitops.Field(i.Raw, 11, 7) }

// Shift returns the shift type, bits [6:5].
func (i *Instruction) Shift() ShiftType { return ShiftType(bitops.Field(i.Raw, 6, 5)) }

// RotateImm returns the immediate rotate field, bits [11:8].
func (i *Instruction) RotateImm() uint32 { return bitops.Field(i.Raw, 11, 8) }

// Imm8 returns bits [7:0].
func (i *Instruction) Imm8() uint32 { return bitops.Field(i.Raw, 7, 0) }

// Imm32 returns the rotated data-processing immediate.
func (i *Instruction) Imm32() uint32 {
	return bitops.RotateRight(i.Imm8(), uint(i.RotateImm()*2))
}

// Imm12 returns the load/store immediate offset, bits [11:0].
func (i *Instruction) Imm12() uint32 { return bitops.Field(i.Raw, 11, 0) }

// ImmHL returns the split 8-bit offset of the extra load/store forms.
func (i *Instruction) ImmHL() uint32 {
	return bitops.Field(i.Raw, 11, 8)<<4 | bitops.Field(i.Raw, 3, 0)
}

// RegList returns the block transfer register list, bits [15:0].
func (i *Instruction) RegList() uint32 { return bitops.Field(i.Raw, 15, 0) }

// PU returns bits [24:23].
func (i *Instruction) PU() uint32 { return bitops.Field(i.Raw, 24, 23) }

// BranchOffset returns the sign-extended 24-bit offset scaled to bytes.
func (i *Instruction) BranchOffset() int32 {
	return bitops.SignExtend(bitops.Field(i.Raw, 23, 0), 24) << 2
}

// FieldMask returns the MSR field mask, bits [19:16].
func (i *Instruction) FieldMask() uint32 { return bitops.Field(i.Raw, 19, 16) }

// CPNum returns the coprocessor number, bits [11:8].
func (i *Instruction) CPNum() int { return int(bitops.Field(i.Raw, 11, 8)) }

// CPOpc1 returns opcode1 of MRC/MCR, bits [23:21].
func (i *Instruction) CPOpc1() uint32 { return bitops.Field(i.Raw, 23, 21) }

// CDPOpc1 returns opcode1 of CDP, bits [23:20].
func (i *Instruction) CDPOpc1() uint32 { return bitops.Field(i.Raw, 23, 20) }

// CPOpc2 returns opcode2, bits [7:5].
func (i *Instruction) CPOpc2() uint32 { return bitops.Field(i.Raw, 7, 5) }

// CRn returns bits [19:16].
func (i *Instruction) CRn() uint32 { return bitops.Field(i.Raw, 19, 16) }

// CRm returns bits [3:0].
func (i *Instruction) CRm() uint32 { return bitops.Field(i.Raw, 3, 0) }

// SWINum returns the 24-bit comment field of SWI.
func (i *Instruction) SWINum() uint32 { return bitops.Field(i.Raw, 23, 0) }

// BKPTImm returns the 16-bit immediate of BKPT.
func (i *Instruction) BKPTImm() uint32 {
	return bitops.Field(i.Raw, 19, 8)<<4 | bitops.Field(i.Raw, 3, 0)
}
