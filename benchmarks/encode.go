package benchmarks

import "github.com/sarchlab/armv5sim/insts"

// Data processing opcodes.
const (
	opAND = 0x0
	opSUB = 0x2
	opADD = 0x4
	opCMP = 0xa
	opMOV = 0xd
)

func cond(c insts.Cond) uint32 {
	return uint32(c) << 28
}

// EncodeDataProcImm encodes a data processing instruction with a rotated
// immediate operand: imm8 rotated right by 2*rot.
func EncodeDataProcImm(op uint32, setFlags bool, rd, rn uint8, imm8, rot uint8) uint32 {
	inst := cond(insts.CondAL) | 1<<25
	inst |= (op & 0xf) << 21
	if setFlags {
		inst |= 1 << 20
	}
	inst |= uint32(rn&0xf) << 16
	inst |= uint32(rd&0xf) << 12
	inst |= uint32(rot&0xf) << 8
	inst |= uint32(imm8)
	return inst
}

// EncodeMOVImm encodes MOV Rd, #imm8 ror 2*rot
func EncodeMOVImm(rd, imm8, rot uint8) uint32 {
	return EncodeDataProcImm(opMOV, false, rd, 0, imm8, rot)
}

// EncodeADDImm encodes ADD/ADDS Rd, Rn, #imm8
func EncodeADDImm(rd, rn, imm8 uint8, setFlags bool) uint32 {
	return EncodeDataProcImm(opADD, setFlags, rd, rn, imm8, 0)
}

// EncodeSUBImm encodes SUB/SUBS Rd, Rn, #imm8
func EncodeSUBImm(rd, rn, imm8 uint8, setFlags bool) uint32 {
	return EncodeDataProcImm(opSUB, setFlags, rd, rn, imm8, 0)
}

// EncodeANDImm encodes AND Rd, Rn, #imm8
func EncodeANDImm(rd, rn, imm8 uint8) uint32 {
	return EncodeDataProcImm(opAND, false, rd, rn, imm8, 0)
}

// EncodeCMPImm encodes CMP Rn, #imm8
func EncodeCMPImm(rn, imm8 uint8) uint32 {
	return EncodeDataProcImm(opCMP, true, 0, rn, imm8, 0)
}

// EncodeADDReg encodes ADD/ADDS Rd, Rn, Rm
func EncodeADDReg(rd, rn, rm uint8, setFlags bool) uint32 {
	inst := cond(insts.CondAL) | opADD<<21
	if setFlags {
		inst |= 1 << 20
	}
	inst |= uint32(rn&0xf) << 16
	inst |= uint32(rd&0xf) << 12
	inst |= uint32(rm & 0xf)
	return inst
}

// EncodeMLA encodes MLA Rd, Rm, Rs, Rn: Rd = Rm*Rs + Rn
func EncodeMLA(rd, rm, rs, rn uint8) uint32 {
	inst := cond(insts.CondAL) | 1<<21 | 0x9<<4
	inst |= uint32(rd&0xf) << 16
	inst |= uint32(rn&0xf) << 12
	inst |= uint32(rs&0xf) << 8
	inst |= uint32(rm & 0xf)
	return inst
}

// EncodeLDRPost encodes LDR Rd, [Rn], #imm12
func EncodeLDRPost(rd, rn uint8, imm12 uint16) uint32 {
	return cond(insts.CondAL) | 0x049<<20 | uint32(rn&0xf)<<16 | uint32(rd&0xf)<<12 | uint32(imm12&0xfff)
}

// EncodeSTRPost encodes STR Rd, [Rn], #imm12
func EncodeSTRPost(rd, rn uint8, imm12 uint16) uint32 {
	return cond(insts.CondAL) | 0x048<<20 | uint32(rn&0xf)<<16 | uint32(rd&0xf)<<12 | uint32(imm12&0xfff)
}

// EncodeB encodes B{cond} with offset counted in bytes from the branch
// itself.
func EncodeB(c insts.Cond, offset int32) uint32 {
	imm24 := uint32((offset-8)/4) & 0xffffff
	return cond(c) | 0xa<<24 | imm24
}

// EncodeBL encodes BL with offset counted in bytes from the branch itself.
func EncodeBL(offset int32) uint32 {
	imm24 := uint32((offset-8)/4) & 0xffffff
	return cond(insts.CondAL) | 0xb<<24 | imm24
}

// EncodeBXLR encodes BX lr
func EncodeBXLR() uint32 {
	return 0xE12FFF1E
}

// EncodePush encodes STMDB sp!, {list}
func EncodePush(list uint16) uint32 {
	return 0xE92D0000 | uint32(list)
}

// EncodePop encodes LDMIA sp!, {list}
func EncodePop(list uint16) uint32 {
	return 0xE8BD0000 | uint32(list)
}

// EncodeWFI encodes MCR p15, 0, r0, c7, c0, 4, which parks the core.
func EncodeWFI() uint32 {
	return 0xEE070F90
}
