package board

import (
	"fmt"

	"github.com/sarchlab/armv5sim/loader"
)

// Boot loads the configured kernel, initrd and boot tags into RAM and
// sets up the registers the Linux ARM boot protocol expects: r0 = 0,
// r1 = machine type, r2 = tag list address, MMU off, supervisor mode
// with interrupts masked.
func (m *Machine) Boot() error {
	c := m.config
	if c.Kernel == "" {
		return fmt.Errorf("no kernel configured")
	}

	var (
		prog *loader.Program
		err  error
	)
	switch c.KernelFormat {
	case FormatELF:
		prog, err = loader.Load(c.Kernel)
	default:
		prog, err = loader.LoadRaw(c.Kernel, c.RAMBase+c.KernelOffset)
	}
	if err != nil {
		return fmt.Errorf("load kernel: %w", err)
	}

	var initrd []byte
	if c.Initrd != "" {
		initrd, err = loader.ReadInitrd(c.Initrd)
		if err != nil {
			return fmt.Errorf("load initrd: %w", err)
		}
	}

	return m.BootProgram(prog, initrd)
}

// BootProgram is Boot for images that are already in memory.
func (m *Machine) BootProgram(prog *loader.Program, initrd []byte) error {
	c := m.config

	for _, seg := range prog.Segments {
		if err := m.place(seg.PhysAddr, seg.Data, seg.MemSize); err != nil {
			return fmt.Errorf("kernel segment: %w", err)
		}
	}

	tags := loader.NewATAGs().Mem(c.RAMBase, c.RAMSize)
	if len(initrd) > 0 {
		at := c.RAMBase + c.InitrdOffset
		if err := m.place(at, initrd, uint32(len(initrd))); err != nil {
			return fmt.Errorf("initrd: %w", err)
		}
		tags.Initrd(at, uint32(len(initrd)))
	}
	if c.Cmdline != "" {
		tags.Cmdline(c.Cmdline)
	}
	tags.Serial(c.SerialLow, c.SerialHigh).Revision(c.BoardRevision)

	atagAddr := c.RAMBase + c.ATAGOffset
	if err := tags.Store(m.cpu, atagAddr); err != nil {
		return err
	}

	entry := physEntry(prog)

	m.cpu.Reset()
	regs := m.cpu.RegFile()
	regs.SetReg(0, 0)
	regs.SetReg(1, c.MachineType)
	regs.SetReg(2, atagAddr)
	regs.SetPC(entry)
	regs.ClearJump()

	m.log.Info("boot",
		"entry", fmt.Sprintf("0x%08x", entry),
		"atags", fmt.Sprintf("0x%08x", atagAddr),
		"initrd", len(initrd),
		"cmdline", c.Cmdline)

	return nil
}

// place copies data to the physical address addr, checking that memSize
// bytes fit in RAM.
func (m *Machine) place(addr uint32, data []byte, memSize uint32) error {
	c := m.config
	if addr < c.RAMBase || uint64(addr)+uint64(memSize) > uint64(c.RAMBase)+uint64(c.RAMSize) {
		return fmt.Errorf("0x%08x+0x%x does not fit in ram", addr, memSize)
	}
	return m.ram.Load(uint64(addr-c.RAMBase), data)
}

// physEntry translates the entry point into the segment's load address,
// since the kernel starts with the MMU off.
func physEntry(prog *loader.Program) uint32 {
	for _, s := range prog.Segments {
		if prog.EntryPoint >= s.VirtAddr && prog.EntryPoint-s.VirtAddr < s.MemSize {
			return prog.EntryPoint - s.VirtAddr + s.PhysAddr
		}
	}
	return prog.EntryPoint
}
