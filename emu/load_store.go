package emu

import (
	"fmt"

	"github.com/sarchlab/armv5sim/bitops"
	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/insts"
)

// LoadStoreUnit implements ARM load and store operations.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  bus.Space
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and address space.
func NewLoadStoreUnit(regFile *RegFile, memory bus.Space) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// address returns the transfer address and the value the base register
// takes on write-back.
func (lsu *LoadStoreUnit) address(inst *insts.Instruction) (addr, next uint32) {
	base := lsu.regFile.GetReg(inst.Rn())
	off := addressOffset(lsu.regFile, inst)

	next = base - off
	if inst.U() {
		next = base + off
	}

	if inst.P() {
		return next, next
	}
	return base, next
}

// writeBack updates the base register unless the form is a plain offset.
func (lsu *LoadStoreUnit) writeBack(inst *insts.Instruction, next uint32) {
	if !inst.P() || inst.W() {
		lsu.regFile.SetReg(inst.Rn(), next)
	}
}

// loadReg writes a loaded word to rd. Loads into r15 are interworking
// branches.
func (lsu *LoadStoreUnit) loadReg(rd int, v uint32) {
	if rd == 15 {
		lsu.regFile.SetFlag(PSRT, v&1 != 0)
		lsu.regFile.SetPC(v &^ 1)
		return
	}
	lsu.regFile.SetReg(rd, v)
}

func (lsu *LoadStoreUnit) read32(addr uint32) (uint32, error) {
	return lsu.memory.Read32(uint64(addr &^ 3))
}

func (lsu *LoadStoreUnit) write32(addr, v uint32) error {
	return lsu.memory.Write32(uint64(addr&^3), v)
}

// LoadStore executes a word or unsigned byte transfer, including the
// unprivileged T forms. A word load from an unaligned address is rotated
// so that the addressed byte ends up in the low byte.
func (lsu *LoadStoreUnit) LoadStore(inst *insts.Instruction) error {
	addr, next := lsu.address(inst)
	rd := inst.Rd()

	switch inst.Op {
	case insts.OpLDR, insts.OpLDRT:
		word, err := lsu.read32(addr)
		if err != nil {
			return err
		}
		lsu.writeBack(inst, next)
		lsu.loadReg(rd, bitops.RotateRight(word, uint(addr&3)*8))
	case insts.OpLDRB, insts.OpLDRBT:
		b, err := lsu.memory.Read8(uint64(addr))
		if err != nil {
			return err
		}
		lsu.writeBack(inst, next)
		lsu.regFile.SetReg(rd, uint32(b))
	case insts.OpSTR, insts.OpSTRT:
		if err := lsu.write32(addr, lsu.regFile.GetReg(rd)); err != nil {
			return err
		}
		lsu.writeBack(inst, next)
	case insts.OpSTRB, insts.OpSTRBT:
		if err := lsu.memory.Write8(uint64(addr), uint8(lsu.regFile.GetReg(rd))); err != nil {
			return err
		}
		lsu.writeBack(inst, next)
	default:
		return fmt.Errorf("%s: %w", inst.Op, ErrUnsupportedEncoding)
	}

	return nil
}

// ExtraLoadStore executes the half-word, signed byte and double-word
// transfers.
func (lsu *LoadStoreUnit) ExtraLoadStore(inst *insts.Instruction) error {
	addr, next := lsu.address(inst)
	rd := inst.Rd()

	switch inst.Op {
	case insts.OpLDRH, insts.OpLDRSH:
		h, err := lsu.memory.Read16(uint64(addr &^ 1))
		if err != nil {
			return err
		}
		v := uint32(h)
		if inst.Op == insts.OpLDRSH {
			v = uint32(int32(int16(h)))
		}
		lsu.writeBack(inst, next)
		lsu.regFile.SetReg(rd, v)
	case insts.OpLDRSB:
		b, err := lsu.memory.Read8(uint64(addr))
		if err != nil {
			return err
		}
		lsu.writeBack(inst, next)
		lsu.regFile.SetReg(rd, uint32(int32(int8(b))))
	case insts.OpSTRH:
		if err := lsu.memory.Write16(uint64(addr&^1), uint16(lsu.regFile.GetReg(rd))); err != nil {
			return err
		}
		lsu.writeBack(inst, next)
	case insts.OpLDRD, insts.OpSTRD:
		if rd%2 != 0 || rd == 14 {
			return fmt.Errorf("%s with r%d: %w", inst.Op, rd, ErrUnsupportedEncoding)
		}
		return lsu.doubleWord(inst, addr, next)
	default:
		return fmt.Errorf("%s: %w", inst.Op, ErrUnsupportedEncoding)
	}

	return nil
}

func (lsu *LoadStoreUnit) doubleWord(inst *insts.Instruction, addr, next uint32) error {
	rd := inst.Rd()

	if inst.Op == insts.OpSTRD {
		if err := lsu.write32(addr, lsu.regFile.GetReg(rd)); err != nil {
			return err
		}
		if err := lsu.write32(addr+4, lsu.regFile.GetReg(rd+1)); err != nil {
			return err
		}
		lsu.writeBack(inst, next)
		return nil
	}

	lo, err := lsu.read32(addr)
	if err != nil {
		return err
	}
	hi, err := lsu.read32(addr + 4)
	if err != nil {
		return err
	}
	lsu.writeBack(inst, next)
	lsu.regFile.SetReg(rd, lo)
	lsu.regFile.SetReg(rd+1, hi)
	return nil
}

// Swap executes SWP and SWPB.
func (lsu *LoadStoreUnit) Swap(inst *insts.Instruction) error {
	addr := lsu.regFile.GetReg(inst.Rn())
	src := lsu.regFile.GetReg(inst.Rm())

	if inst.Op == insts.OpSWPB {
		b, err := lsu.memory.Read8(uint64(addr))
		if err != nil {
			return err
		}
		if err := lsu.memory.Write8(uint64(addr), uint8(src)); err != nil {
			return err
		}
		lsu.regFile.SetReg(inst.Rd(), uint32(b))
		return nil
	}

	word, err := lsu.read32(addr)
	if err != nil {
		return err
	}
	if err := lsu.write32(addr, src); err != nil {
		return err
	}
	lsu.regFile.SetReg(inst.Rd(), bitops.RotateRight(word, uint(addr&3)*8))
	return nil
}

// blockRange returns the lowest address a block transfer touches and the
// value the base register takes on write-back.
func (lsu *LoadStoreUnit) blockRange(inst *insts.Instruction) (start, next uint32) {
	base := lsu.regFile.GetReg(inst.Rn())
	size := uint32(bitops.PopCount(inst.RegList())) * 4

	switch inst.PU() {
	case insts.PUIncrementAfter:
		start = base
	case insts.PUIncrementBefore:
		start = base + 4
	case insts.PUDecrementAfter:
		start = base - size + 4
	case insts.PUDecrementBefore:
		start = base - size
	}

	if inst.U() {
		return start, base + size
	}
	return start, base - size
}

// blockWriteBack applies W unless the base register was itself loaded.
func (lsu *LoadStoreUnit) blockWriteBack(inst *insts.Instruction, next uint32, loaded bool) {
	if !inst.W() {
		return
	}
	if loaded && bitops.Bit(inst.RegList(), uint(inst.Rn())) {
		return
	}
	lsu.regFile.SetReg(inst.Rn(), next)
}

// Block executes the load and store multiple forms. Registers are
// transferred in ascending order from the lowest address, r15 last.
func (lsu *LoadStoreUnit) Block(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.OpLDM1, insts.OpLDM2, insts.OpLDM3:
		return lsu.loadMultiple(inst)
	case insts.OpSTM1, insts.OpSTM2:
		return lsu.storeMultiple(inst)
	}
	return fmt.Errorf("%s: %w", inst.Op, ErrUnsupportedEncoding)
}

func (lsu *LoadStoreUnit) loadMultiple(inst *insts.Instruction) error {
	addr, next := lsu.blockRange(inst)
	list := inst.RegList()

	for r := 0; r < 15; r++ {
		if !bitops.Bit(list, uint(r)) {
			continue
		}
		v, err := lsu.read32(addr)
		if err != nil {
			return err
		}
		if inst.Op == insts.OpLDM2 {
			lsu.regFile.SetUserReg(r, v)
		} else {
			lsu.regFile.SetReg(r, v)
		}
		addr += 4
	}

	if !bitops.Bit(list, 15) {
		lsu.blockWriteBack(inst, next, true)
		return nil
	}

	pc, err := lsu.read32(addr)
	if err != nil {
		return err
	}
	lsu.blockWriteBack(inst, next, true)

	if inst.Op == insts.OpLDM3 {
		lsu.regFile.SetCPSR(lsu.regFile.SPSR())
		if lsu.regFile.Flag(PSRT) {
			lsu.regFile.SetPC(pc &^ 1)
		} else {
			lsu.regFile.SetPC(pc &^ 3)
		}
		return nil
	}

	lsu.loadReg(15, pc)
	return nil
}

func (lsu *LoadStoreUnit) storeMultiple(inst *insts.Instruction) error {
	addr, next := lsu.blockRange(inst)
	list := inst.RegList()

	for r := 0; r < 16; r++ {
		if !bitops.Bit(list, uint(r)) {
			continue
		}
		v := lsu.regFile.GetReg(r)
		if inst.Op == insts.OpSTM2 {
			v = lsu.regFile.UserReg(r)
		}
		if err := lsu.write32(addr, v); err != nil {
			return err
		}
		addr += 4
	}

	lsu.blockWriteBack(inst, next, false)
	return nil
}
