package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/coproc"
	"github.com/sarchlab/armv5sim/emu"
)

var _ = Describe("Exceptions", func() {
	var (
		cpu  *emu.CPU
		regs *emu.RegFile
		irq  *line
		fiq  *line
	)

	BeforeEach(func() {
		irq = &line{}
		fiq = &line{}
		cpu = newCPU(emu.WithInterrupts(irq, fiq))
		regs = cpu.RegFile()
	})

	Describe("SWI", func() {
		// SWI #0             -> 0xEF000000
		// MOVS pc, lr        -> 0xE1B0F00E
		It("should enter supervisor mode and return with MOVS pc, lr", func() {
			Expect(cpu.Write32(0x08, 0xE1B0F00E)).To(Succeed())
			regs.SetCPSR(emu.PSR(emu.ModeUsr) | emu.PSRZ)
			program(cpu, 0x8000, 0xEF000000)

			step(cpu)
			Expect(regs.PC()).To(Equal(uint32(0x08)))
			Expect(regs.Mode()).To(Equal(emu.ModeSvc))
			Expect(regs.Flag(emu.PSRI)).To(BeTrue())
			Expect(regs.GetReg(14)).To(Equal(uint32(0x8004)))
			Expect(regs.SPSR()).To(Equal(emu.PSR(emu.ModeUsr) | emu.PSRZ))

			step(cpu)
			Expect(regs.PC()).To(Equal(uint32(0x8004)))
			Expect(regs.CPSR()).To(Equal(emu.PSR(emu.ModeUsr) | emu.PSRZ))
		})
	})

	Describe("Undefined instruction", func() {
		// UDF                -> 0xE7F000F0
		It("should take the undefined vector", func() {
			program(cpu, 0x8000, 0xE7F000F0)
			step(cpu)

			Expect(regs.PC()).To(Equal(uint32(0x04)))
			Expect(regs.Mode()).To(Equal(emu.ModeUnd))
			Expect(regs.GetReg(14)).To(Equal(uint32(0x8004)))
			Expect(regs.SPSR().Mode()).To(Equal(emu.ModeSvc))
		})

		// MRC p14, 0, r0, c0, c0, 0 -> 0xEE100E10
		It("should trap accesses to a missing coprocessor", func() {
			program(cpu, 0x8000, 0xEE100E10)
			step(cpu)
			Expect(regs.PC()).To(Equal(uint32(0x04)))
			Expect(regs.Mode()).To(Equal(emu.ModeUnd))
		})

		// MRC p15, 0, r0, c15, c0, 0 -> 0xEE1F0F10
		It("should trap accesses to an unregistered coprocessor register", func() {
			program(cpu, 0x8000, 0xEE1F0F10)
			step(cpu)
			Expect(regs.Mode()).To(Equal(emu.ModeUnd))
		})

		// CDP p15, 0, c0, c0, c0, 0 -> 0xEE000F00
		It("should trap coprocessor data operations", func() {
			program(cpu, 0x8000, 0xEE000F00)
			step(cpu)
			Expect(regs.Mode()).To(Equal(emu.ModeUnd))
		})
	})

	Describe("Interrupts", func() {
		BeforeEach(func() {
			regs.SetCPSR(emu.PSR(emu.ModeSvc))
			program(cpu, 0x8000, 0xE1A00000)
		})

		It("should take an unmasked IRQ before the next instruction", func() {
			irq.on.Store(true)
			step(cpu)

			Expect(regs.Mode()).To(Equal(emu.ModeIRQ))
			Expect(regs.Flag(emu.PSRI)).To(BeTrue())
			Expect(regs.Flag(emu.PSRF)).To(BeFalse())
			Expect(regs.GetReg(14)).To(Equal(uint32(0x8004)))
			Expect(regs.SPSR()).To(Equal(emu.PSR(emu.ModeSvc)))
			// The instruction at the vector ran.
			Expect(regs.PC()).To(Equal(uint32(0x1c)))
		})

		It("should ignore a masked IRQ", func() {
			regs.SetFlag(emu.PSRI, true)
			irq.on.Store(true)
			step(cpu)

			Expect(regs.Mode()).To(Equal(emu.ModeSvc))
			Expect(regs.PC()).To(Equal(uint32(0x8004)))
		})

		It("should prefer FIQ over IRQ", func() {
			irq.on.Store(true)
			fiq.on.Store(true)
			step(cpu)

			Expect(regs.Mode()).To(Equal(emu.ModeFIQ))
			Expect(regs.Flag(emu.PSRF)).To(BeTrue())
			Expect(regs.Flag(emu.PSRI)).To(BeTrue())
			Expect(regs.PC()).To(Equal(uint32(0x20)))
		})

		// MOV r0, r0         -> 0xE1A00000
		// SUBS pc, lr, #4    -> 0xE25EF004
		It("should return from the handler to the interrupted instruction", func() {
			Expect(cpu.Write32(0x18, 0xE1A00000)).To(Succeed())
			Expect(cpu.Write32(0x1c, 0xE25EF004)).To(Succeed())
			irq.on.Store(true)
			step(cpu)
			Expect(regs.Mode()).To(Equal(emu.ModeIRQ))

			irq.on.Store(false)
			step(cpu)
			Expect(regs.PC()).To(Equal(uint32(0x8000)))
			Expect(regs.Mode()).To(Equal(emu.ModeSvc))
			Expect(regs.Flag(emu.PSRI)).To(BeFalse())
		})
	})

	Describe("Wait for interrupt", func() {
		// MCR p15, 0, r0, c7, c0, 4 -> 0xEE070F90
		It("should park the core until a line is asserted", func() {
			program(cpu, 0x8000, 0xEE070F90, 0xE3A00005)
			step(cpu)
			Expect(cpu.Waiting()).To(BeTrue())

			res := cpu.Step()
			Expect(res.Waiting).To(BeTrue())
			Expect(regs.PC()).To(Equal(uint32(0x8004)))

			irq.on.Store(true)
			step(cpu)
			Expect(cpu.Waiting()).To(BeFalse())
			Expect(regs.GetReg(0)).To(Equal(uint32(5)))
		})
	})

	Describe("High vectors", func() {
		// MCR p15, 0, r0, c1, c0, 0 -> 0xEE010F10
		It("should move the vector table when the V bit is set", func() {
			regs.SetReg(0, 0x00050078|coproc.ControlHighVectors)
			program(cpu, 0x8000, 0xEE010F10, 0xEF000000)
			step(cpu)
			Expect(cpu.VectorBase()).To(Equal(uint32(emu.HighVectorBase)))

			step(cpu)
			Expect(regs.PC()).To(Equal(uint32(emu.HighVectorBase + 0x08)))
			Expect(cpu.Step().Err).To(HaveOccurred())
		})
	})

	It("should name the exceptions", func() {
		Expect(emu.ExceptionIRQ.String()).To(Equal("irq"))
		Expect(emu.ExceptionFIQ.Vector()).To(Equal(uint32(0x1c)))
	})
})

var _ = Describe("System instructions", func() {
	var (
		cpu  *emu.CPU
		regs *emu.RegFile
	)

	BeforeEach(func() {
		cpu = newCPU()
		regs = cpu.RegFile()
	})

	run := func(words ...uint32) {
		program(cpu, 0x8000, words...)
		for range words {
			step(cpu)
		}
	}

	// MRS r0, cpsr       -> 0xE10F0000
	It("should read the CPSR", func() {
		run(0xE10F0000)
		Expect(regs.GetReg(0)).To(Equal(uint32(0xd3)))
	})

	// MSR cpsr_c, #0x1f  -> 0xE321F01F
	It("should change mode through MSR", func() {
		regs.SetReg(13, 0x1000)
		run(0xE321F01F)
		Expect(regs.Mode()).To(Equal(emu.ModeSys))
		Expect(regs.Flag(emu.PSRI)).To(BeFalse())
		Expect(regs.GetReg(13)).To(BeZero())
	})

	// MSR cpsr_f, #0xf0000000 -> 0xE328F4F0
	It("should write only the selected fields", func() {
		run(0xE328F4F0)
		Expect(regs.CPSR()).To(Equal(emu.PSRN | emu.PSRZ | emu.PSRC | emu.PSRV | emu.PSR(0xd3)))
	})

	// MSR cpsr_fc, r0    -> 0xE129F000
	It("should keep control bits out of reach in user mode", func() {
		regs.SetCPSR(emu.PSR(emu.ModeUsr))
		regs.SetReg(0, 0x800000d3)
		run(0xE129F000)
		Expect(regs.Mode()).To(Equal(emu.ModeUsr))
		Expect(regs.Flag(emu.PSRN)).To(BeTrue())
		Expect(regs.Flag(emu.PSRI)).To(BeFalse())
	})

	// MSR spsr_c, #0x10  -> 0xE361F010
	// MRS r0, spsr       -> 0xE14F0000
	It("should write and read the SPSR", func() {
		run(0xE361F010, 0xE14F0000)
		Expect(regs.GetReg(0)).To(Equal(uint32(0x10)))
		Expect(regs.Mode()).To(Equal(emu.ModeSvc))
	})

	// MRC p15, 0, r0, c0, c0, 0 -> 0xEE100F10
	It("should read the main ID register", func() {
		run(0xEE100F10)
		Expect(regs.GetReg(0)).To(Equal(uint32(0x41069265)))
	})

	// MRC p15, 0, pc, c7, c10, 3 -> 0xEE17FF7A
	It("should move the top bits into the flags for an MRC to pc", func() {
		run(0xEE17FF7A)
		Expect(regs.Flag(emu.PSRZ)).To(BeTrue())
		Expect(regs.Flag(emu.PSRN)).To(BeFalse())
		Expect(regs.PC()).To(Equal(uint32(0x8004)))
	})

	// MCR p15, 0, r0, c0, c0, 0 -> 0xEE000F10
	It("should ignore writes to read-only coprocessor registers", func() {
		regs.SetReg(0, 0)
		run(0xEE000F10)
		v, err := cpu.Coprocessors().Get(15).Get(coproc.RegMainID)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x41069265)))
		Expect(regs.Mode()).To(Equal(emu.ModeSvc))
	})

	// MCR p15, 0, r0, c2, c0, 0 -> 0xEE020F10
	It("should write the translation table base", func() {
		regs.SetReg(0, 0x4000)
		run(0xEE020F10)
		v, err := cpu.Coprocessors().Get(15).Get(coproc.RegTTB)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x4000)))
	})

	// PLD [r0]           -> 0xF5D0F000
	It("should treat PLD as a hint", func() {
		run(0xF5D0F000)
		Expect(regs.PC()).To(Equal(uint32(0x8004)))
	})
})
