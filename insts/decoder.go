// Package insts provides ARMv5 instruction definitions and decoding.
package insts

// Op represents an ARM opcode.
type Op uint16

// ARM opcodes. The sixteen data-processing opcodes come first, in the
// order of the instruction's opcode field.
const (
	OpAND Op = iota
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN

	OpMRS
	OpMSR
	OpBX
	OpBLXReg
	OpCLZ
	OpBKPT
	OpDSP

	OpMUL
	OpMLA
	OpUMULL
	OpUMLAL
	OpSMULL
	OpSMLAL
	OpSWP
	OpSWPB

	OpLDRH
	OpSTRH
	OpLDRSB
	OpLDRSH
	OpLDRD
	OpSTRD

	OpLDR
	OpLDRB
	OpLDRT
	OpLDRBT
	OpSTR
	OpSTRB
	OpSTRT
	OpSTRBT
	OpPLD

	OpLDM1
	OpLDM2
	OpLDM3
	OpSTM1
	OpSTM2

	OpB
	OpBL
	OpBLX

	OpCDP
	OpMRC
	OpMCR
	OpLDC
	OpSTC
	OpSWI

	// OpUND is an encoding the architecture defines as undefined.
	OpUND

	// OpUnknown is a reserved pattern this decoder assigns no meaning to.
	OpUnknown
)

// Format represents an instruction encoding class.
type Format uint8

// Instruction formats.
const (
	FormatUnknown        Format = iota
	FormatDataProc              // Data processing
	FormatMisc                  // Status register access, BX, CLZ, DSP
	FormatMultiply              // Multiply and swap
	FormatExtraLoadStore        // Half-word, signed byte and double-word transfers
	FormatLoadStore             // Word and unsigned byte transfers
	FormatBlock                 // Load/store multiple
	FormatBranch                // B, BL, BLX
	FormatCoproc                // Coprocessor operations
	FormatSWI                   // Software interrupt
	FormatUndefined             // Architecturally undefined
)

// Operand selects how the second operand or the address is formed.
type Operand uint8

// Operand forms.
const (
	OperandNone Operand = iota

	// Data-processing shifter operands.
	ShifterImm      // 8-bit immediate rotated right by twice the rotate field
	ShifterImmShift // Rm shifted by a 5-bit immediate
	ShifterRegShift // Rm shifted by the bottom byte of Rs

	// Load/store offsets.
	AddrImm       // 12-bit (or split 8-bit) immediate offset
	AddrReg       // Rm offset
	AddrScaledReg // Rm offset shifted by an immediate
)

// Instruction is a decoded ARM instruction. It is immutable; all fields
// other than the classification are read through accessors on Raw.
type Instruction struct {
	Raw     uint32
	Op      Op
	Format  Format
	Operand Operand
}

// Decoder decodes ARM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Raw: word, Op: OpUnknown, Format: FormatUnknown}

	if Cond(word>>28) == CondNV {
		d.decodeUnconditional(word, inst)
		return inst
	}

	// Bits [27:26] select one of four sub-decoders.
	switch (word >> 26) & 0x3 {
	case 0:
		d.decodeDataProc(word, inst)
	case 1:
		d.decodeLoadStore(word, inst)
	case 2:
		d.decodeBlockBranch(word, inst)
	case 3:
		d.decodeCoprocSWI(word, inst)
	}

	return inst
}

// decodeUnconditional handles the NV condition space, which ARMv5 uses
// only for BLX(1) and PLD.
func (d *Decoder) decodeUnconditional(word uint32, inst *Instruction) {
	switch {
	case (word>>25)&0x7 == 0b101:
		inst.Op = OpBLX
		inst.Format = FormatBranch
	case word&0x0d70f000 == 0x0550f000:
		// 1111 01x1 x101 xxxx 1111 xxxx xxxx xxxx
		inst.Op = OpPLD
		inst.Format = FormatLoadStore
		inst.Operand = loadStoreOperand(word)
	default:
		undefined(inst)
	}
}

func undefined(inst *Instruction) {
	inst.Op = OpUND
	inst.Format = FormatUndefined
}

// decodeDataProc decodes the bits [27:26] == 00 space.
func (d *Decoder) decodeDataProc(word uint32, inst *Instruction) {
	opcode := (word >> 21) & 0xf
	sbit := word&(1<<20) != 0
	testOnly := opcode&0xc == 0x8 && !sbit

	if word&(1<<25) != 0 {
		switch {
		case testOnly && opcode&1 == 1:
			inst.Op = OpMSR
			inst.Format = FormatMisc
			inst.Operand = ShifterImm
		case testOnly:
			undefined(inst)
		default:
			inst.Op = Op(opcode)
			inst.Format = FormatDataProc
			inst.Operand = ShifterImm
		}
		return
	}

	bit4 := word&(1<<4) != 0
	bit7 := word&(1<<7) != 0

	switch {
	case bit4 && bit7:
		d.decodeMultiplyExtra(word, inst)
	case testOnly:
		d.decodeMisc(word, inst)
	case bit4:
		inst.Op = Op(opcode)
		inst.Format = FormatDataProc
		inst.Operand = ShifterRegShift
	default:
		inst.Op = Op(opcode)
		inst.Format = FormatDataProc
		inst.Operand = ShifterImmShift
	}
}

// decodeMisc decodes the TST/TEQ/CMP/CMN-without-S space.
func (d *Decoder) decodeMisc(word uint32, inst *Instruction) {
	inst.Format = FormatMisc
	opcode := (word >> 21) & 0xf

	switch (word >> 4) & 0xf {
	case 0b0000:
		if opcode&1 == 0 {
			inst.Op = OpMRS
		} else {
			inst.Op = OpMSR
			inst.Operand = ShifterImmShift
		}
	case 0b0001:
		switch opcode {
		case 0b1001:
			inst.Op = OpBX
		case 0b1011:
			inst.Op = OpCLZ
		}
	case 0b0011:
		if opcode == 0b1001 {
			inst.Op = OpBLXReg
		}
	case 0b0101:
		// QADD, QSUB, QDADD, QDSUB
		inst.Op = OpDSP
	case 0b0111:
		if opcode == 0b1001 {
			inst.Op = OpBKPT
		}
	case 0b1000, 0b1010, 0b1100, 0b1110:
		// SMLA<x><y>, SMLAW<y>, SMULW<y>, SMLAL<x><y>, SMUL<x><y>
		inst.Op = OpDSP
	}

	if inst.Op == OpUnknown {
		inst.Format = FormatUnknown
	}
}

// decodeMultiplyExtra decodes bits [7] == 1 and [4] == 1 of the
// data-processing space.
func (d *Decoder) decodeMultiplyExtra(word uint32, inst *Instruction) {
	load := word&(1<<20) != 0

	switch (word >> 5) & 0x3 {
	case 0b00:
		inst.Format = FormatMultiply
		switch {
		case (word>>24)&0xf == 0:
			switch (word >> 21) & 0x7 {
			case 0b000:
				inst.Op = OpMUL
			case 0b001:
				inst.Op = OpMLA
			case 0b100:
				inst.Op = OpUMULL
			case 0b101:
				inst.Op = OpUMLAL
			case 0b110:
				inst.Op = OpSMULL
			case 0b111:
				inst.Op = OpSMLAL
			}
		case (word>>23)&0x1f == 0b00010 && (word>>20)&0x3 == 0:
			if word&(1<<22) != 0 {
				inst.Op = OpSWPB
			} else {
				inst.Op = OpSWP
			}
		}
		if inst.Op == OpUnknown {
			inst.Format = FormatUnknown
		}
		return
	case 0b01:
		if load {
			inst.Op = OpLDRH
		} else {
			inst.Op = OpSTRH
		}
	case 0b10:
		if load {
			inst.Op = OpLDRSB
		} else {
			inst.Op = OpLDRD
		}
	case 0b11:
		if load {
			inst.Op = OpLDRSH
		} else {
			inst.Op = OpSTRD
		}
	}

	inst.Format = FormatExtraLoadStore
	if word&(1<<22) != 0 {
		inst.Operand = AddrImm
	} else {
		inst.Operand = AddrReg
	}
}

func loadStoreOperand(word uint32) Operand {
	switch {
	case word&(1<<25) == 0:
		return AddrImm
	case (word>>4)&0xff == 0:
		return AddrReg
	default:
		return AddrScaledReg
	}
}

// decodeLoadStore decodes the bits [27:26] == 01 space.
func (d *Decoder) decodeLoadStore(word uint32, inst *Instruction) {
	if word&(1<<25) != 0 && word&(1<<4) != 0 {
		undefined(inst)
		return
	}

	inst.Format = FormatLoadStore
	inst.Operand = loadStoreOperand(word)

	p := word&(1<<24) != 0
	b := word&(1<<22) != 0
	w := word&(1<<21) != 0
	user := !p && w

	if word&(1<<20) != 0 {
		switch {
		case user && b:
			inst.Op = OpLDRBT
		case user:
			inst.Op = OpLDRT
		case b:
			inst.Op = OpLDRB
		default:
			inst.Op = OpLDR
		}
		return
	}

	switch {
	case user && b:
		inst.Op = OpSTRBT
	case user:
		inst.Op = OpSTRT
	case b:
		inst.Op = OpSTRB
	default:
		inst.Op = OpSTR
	}
}

// decodeBlockBranch decodes the bits [27:26] == 10 space.
func (d *Decoder) decodeBlockBranch(word uint32, inst *Instruction) {
	if word&(1<<25) != 0 {
		inst.Format = FormatBranch
		if word&(1<<24) != 0 {
			inst.Op = OpBL
		} else {
			inst.Op = OpB
		}
		return
	}

	inst.Format = FormatBlock
	sbit := word&(1<<22) != 0

	if word&(1<<20) != 0 {
		switch {
		case !sbit:
			inst.Op = OpLDM1
		case word&(1<<15) == 0:
			inst.Op = OpLDM2
		default:
			inst.Op = OpLDM3
		}
		return
	}

	switch {
	case !sbit:
		inst.Op = OpSTM1
	case word&(1<<21) == 0:
		inst.Op = OpSTM2
	default:
		undefined(inst)
	}
}

// decodeCoprocSWI decodes the bits [27:26] == 11 space.
func (d *Decoder) decodeCoprocSWI(word uint32, inst *Instruction) {
	inst.Format = FormatCoproc

	switch (word >> 24) & 0x3 {
	case 0b00, 0b01:
		if word&(1<<20) != 0 {
			inst.Op = OpLDC
		} else {
			inst.Op = OpSTC
		}
	case 0b10:
		switch {
		case word&(1<<4) == 0:
			inst.Op = OpCDP
		case word&(1<<20) != 0:
			inst.Op = OpMRC
		default:
			inst.Op = OpMCR
		}
	case 0b11:
		inst.Op = OpSWI
		inst.Format = FormatSWI
	}
}
