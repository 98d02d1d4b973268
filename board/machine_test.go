package board_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/board"
	"github.com/sarchlab/armv5sim/devices"
	"github.com/sarchlab/armv5sim/emu"
	"github.com/sarchlab/armv5sim/loader"
)

// hello prints "hi" on UART0 and spins.
var hello = []uint32{
	0xE3A01201, // MOV r1, #0x10000000
	0xE281181F, // ADD r1, r1, #0x1f0000
	0xE2811A01, // ADD r1, r1, #0x1000
	0xE3A00068, // MOV r0, #'h'
	0xE5810000, // STR r0, [r1]
	0xE3A00069, // MOV r0, #'i'
	0xE5810000, // STR r0, [r1]
	0xEAFFFFFE, // B .
}

func image(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

var _ = Describe("Machine", func() {
	var (
		config  *board.Config
		console *bytes.Buffer
		tempDir string
	)

	newMachine := func(opts ...board.MachineOption) *board.Machine {
		opts = append([]board.MachineOption{
			board.WithLogger(GinkgoLogr),
			board.WithConsole(console),
		}, opts...)
		m, err := board.NewMachine(config, opts...)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	BeforeEach(func() {
		console = &bytes.Buffer{}
		tempDir = GinkgoT().TempDir()

		config = board.DefaultConfig()
		config.RAMSize = 16 << 20
		config.InitrdOffset = 0x400000
		config.Kernel = filepath.Join(tempDir, "zImage")
		Expect(os.WriteFile(config.Kernel, image(hello), 0644)).To(Succeed())
	})

	It("should refuse an invalid config", func() {
		config.UARTs = 0
		_, err := board.NewMachine(config)
		Expect(err).To(MatchError(ContainSubstring("invalid board config")))
	})

	Describe("Memory map", func() {
		It("should seal the bus with every device attached", func() {
			m := newMachine()
			Expect(m.Bus().Sealed()).To(BeTrue())
			Expect(m.Bus().Mappings()).To(HaveLen(6))
		})

		It("should identify the peripherals", func() {
			config.UARTs = 3
			m := newMachine()

			for addr, want := range map[uint64]uint32{
				0x10140fe0: 0x90, // VIC
				0x101f1fe0: 0x11, // UART0
				0x101f3fe0: 0x11, // UART2
				0x101e2fe0: 0x04, // timer01
				0x101e3fe0: 0x04, // timer23
				0x10120fe0: 0x10, // CLCD
			} {
				Expect(m.Bus().Read32(addr)).To(Equal(want), "0x%08x", addr)
			}
			Expect(m.UART(2)).NotTo(BeNil())
			Expect(m.UART(3)).To(BeNil())
		})

		It("should route timer interrupts through the VIC", func() {
			m := newMachine()
			b := m.Bus()

			Expect(b.Write32(0x101e2000+devices.TimerLoad, 10)).To(Succeed())
			Expect(b.Write32(0x101e2000+devices.TimerControl,
				devices.TimerEnable|devices.TimerPeriodic|devices.TimerIntEn|devices.TimerSize32)).To(Succeed())
			m.Tick(10)

			Expect(b.Read32(0x10140000 + devices.VICRawIntr)).To(Equal(uint32(1 << 4)))
			Expect(m.VIC().IRQ().Asserted()).To(BeFalse())

			Expect(b.Write32(0x10140000+devices.VICIntEnable, 1<<4)).To(Succeed())
			Expect(m.VIC().IRQ().Asserted()).To(BeTrue())
		})

		It("should route UART receive interrupts through the VIC", func() {
			m := newMachine()
			b := m.Bus()

			Expect(b.Write32(0x101f1000+devices.UARTIMSC, 0x10)).To(Succeed())
			Expect(b.Write32(0x10140000+devices.VICIntEnable, 1<<12)).To(Succeed())
			m.UART(0).Feed('a')
			Expect(m.VIC().IRQStatus()).To(Equal(uint32(1 << 12)))
		})
	})

	Describe("Boot", func() {
		It("should set up the boot registers", func() {
			m := newMachine()
			Expect(m.Boot()).To(Succeed())

			regs := m.CPU().RegFile()
			Expect(regs.PC()).To(Equal(uint32(0x8000)))
			Expect(regs.GetReg(0)).To(BeZero())
			Expect(regs.GetReg(1)).To(Equal(uint32(0x183)))
			Expect(regs.GetReg(2)).To(Equal(uint32(0x100)))
			Expect(regs.Mode()).To(Equal(emu.ModeSvc))
			Expect(regs.Flag(emu.PSRI)).To(BeTrue())
		})

		It("should place the tag list and kernel in RAM", func() {
			m := newMachine()
			Expect(m.Boot()).To(Succeed())

			Expect(m.Bus().Read32(0x104)).To(Equal(uint32(loader.TagCore)))
			Expect(m.Bus().Read32(0x118)).To(Equal(uint32(loader.TagMem)))
			Expect(m.Bus().Read32(0x11c)).To(Equal(uint32(16 << 20)))
			Expect(m.Bus().Read32(0x8000)).To(Equal(hello[0]))

			// cmdline at 0x124 holds "console=ttyAMA0" in four words
			Expect(m.Bus().Read32(0x128)).To(Equal(uint32(loader.TagCmdline)))
			Expect(m.Bus().Read32(0x13c)).To(Equal(uint32(4)))
			Expect(m.Bus().Read32(0x140)).To(Equal(uint32(loader.TagSerial)))
			Expect(m.Bus().Read32(0x144)).To(Equal(uint32(0x20)))
			Expect(m.Bus().Read32(0x148)).To(Equal(uint32(0x30)))
			Expect(m.Bus().Read32(0x14c)).To(Equal(uint32(3)))
			Expect(m.Bus().Read32(0x150)).To(Equal(uint32(loader.TagRevision)))
			Expect(m.Bus().Read32(0x154)).To(Equal(uint32(0x10)))
			Expect(m.Bus().Read32(0x158)).To(BeZero())
			Expect(m.Bus().Read32(0x15c)).To(Equal(uint32(loader.TagNone)))
		})

		It("should pass the configured serial number and revision", func() {
			config.Cmdline = ""
			config.SerialLow = 0x1234
			config.SerialHigh = 0x5678
			config.BoardRevision = 0x2

			m := newMachine()
			Expect(m.Boot()).To(Succeed())

			Expect(m.Bus().Read32(0x128)).To(Equal(uint32(loader.TagSerial)))
			Expect(m.Bus().Read32(0x12c)).To(Equal(uint32(0x1234)))
			Expect(m.Bus().Read32(0x130)).To(Equal(uint32(0x5678)))
			Expect(m.Bus().Read32(0x138)).To(Equal(uint32(loader.TagRevision)))
			Expect(m.Bus().Read32(0x13c)).To(Equal(uint32(0x2)))
		})

		It("should load an initrd and describe it", func() {
			config.Initrd = filepath.Join(tempDir, "initrd")
			Expect(os.WriteFile(config.Initrd, []byte("ramdisk!"), 0644)).To(Succeed())
			config.Cmdline = ""

			m := newMachine()
			Expect(m.Boot()).To(Succeed())

			Expect(m.Bus().Read32(0x400000)).To(Equal(uint32(0x646d6172)))
			// core, mem, initrd2, serial, revision, none
			Expect(m.Bus().Read32(0x128)).To(Equal(uint32(loader.TagInitrd2)))
			Expect(m.Bus().Read32(0x12c)).To(Equal(uint32(0x400000)))
			Expect(m.Bus().Read32(0x130)).To(Equal(uint32(8)))
			Expect(m.Bus().Read32(0x138)).To(Equal(uint32(loader.TagSerial)))
			Expect(m.Bus().Read32(0x148)).To(Equal(uint32(loader.TagRevision)))
			Expect(m.Bus().Read32(0x154)).To(Equal(uint32(loader.TagNone)))
		})

		It("should start an ELF kernel at its load address", func() {
			m := newMachine()
			prog := &loader.Program{
				EntryPoint: 0xc0008000,
				Segments: []loader.Segment{{
					VirtAddr: 0xc0008000,
					PhysAddr: 0x8000,
					Data:     image(hello),
					MemSize:  0x1000,
				}},
			}
			Expect(m.BootProgram(prog, nil)).To(Succeed())
			Expect(m.CPU().RegFile().PC()).To(Equal(uint32(0x8000)))
		})

		It("should reject images that do not fit in RAM", func() {
			m := newMachine()
			prog := &loader.Program{
				EntryPoint: 0x20000000,
				Segments: []loader.Segment{{
					PhysAddr: 0x20000000,
					Data:     []byte{1},
					MemSize:  1,
				}},
			}
			Expect(m.BootProgram(prog, nil)).To(MatchError(ContainSubstring("does not fit")))
		})

		It("should fail without a kernel", func() {
			config.Kernel = ""
			m := newMachine()
			Expect(m.Boot()).To(MatchError(ContainSubstring("no kernel")))
		})

		It("should fail for a missing kernel", func() {
			config.Kernel = filepath.Join(tempDir, "missing")
			m := newMachine()
			Expect(m.Boot()).To(MatchError(ContainSubstring("load kernel")))
		})
	})

	Describe("Run", func() {
		It("should run the kernel until the instruction limit", func() {
			config.MaxInstructions = 100
			m := newMachine()
			Expect(m.Boot()).To(Succeed())

			Expect(m.Run(context.Background(), nil)).To(MatchError(emu.ErrInstructionLimit))
			Expect(console.String()).To(Equal("hi"))
			Expect(m.CPU().InstructionCount()).To(Equal(uint64(100)))
		})

		It("should return nil once the CPU is halted", func() {
			m := newMachine()
			Expect(m.Boot()).To(Succeed())
			m.CPU().Halt()

			Expect(m.Run(context.Background(), strings.NewReader(""))).To(Succeed())
		})

		It("should feed console input and tick the timers while running", func() {
			m := newMachine()
			Expect(m.Boot()).To(Succeed())
			b := m.Bus()
			Expect(b.Write32(0x101e2000+devices.TimerLoad, 1000)).To(Succeed())
			Expect(b.Write32(0x101e2000+devices.TimerControl,
				devices.TimerEnable|devices.TimerPeriodic|devices.TimerIntEn|devices.TimerSize32)).To(Succeed())

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			Expect(m.Run(ctx, strings.NewReader("ok"))).To(MatchError(context.DeadlineExceeded))

			Expect(m.UART(0).Buffered()).To(Equal(2))
			Expect(b.Read32(0x101e2000 + devices.TimerRIS)).To(Equal(uint32(1)))
		})

		It("should trace instructions when disassembly is enabled", func() {
			config.Disasm = true
			config.MaxInstructions = 3
			trace := &bytes.Buffer{}
			m := newMachine(board.WithTrace(trace))
			Expect(m.Boot()).To(Succeed())

			Expect(m.Run(context.Background(), nil)).To(MatchError(emu.ErrInstructionLimit))
			Expect(trace.String()).To(HavePrefix("00008000:    e3a01201    mov"))
			Expect(strings.Count(trace.String(), "\n")).To(Equal(3))
		})
	})
})
