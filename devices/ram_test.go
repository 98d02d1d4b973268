package devices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/devices"
)

var _ = Describe("RAM", func() {
	var (
		ram *devices.RAM
		b   *bus.Bus
	)

	BeforeEach(func() {
		ram = devices.NewRAM(0x10000)
		b = bus.New()
		Expect(b.Attach(ram, 0, 0x10000)).To(Succeed())
		b.Seal()
	})

	It("should read back zero before any write", func() {
		Expect(ram.ReadWord(0x100)).To(BeZero())
	})

	It("should store words little-endian", func() {
		Expect(ram.WriteWord(0x20, 0x11223344)).To(Succeed())
		Expect(ram.Dump(0x20, 4)).To(Equal([]byte{0x44, 0x33, 0x22, 0x11}))
	})

	It("should drop the upper half of a 64-bit write", func() {
		Expect(ram.WriteWord(0x20, 0xdeadbeef_cafef00d)).To(Succeed())
		Expect(ram.ReadWord(0x20)).To(Equal(uint64(0xcafef00d)))
	})

	It("should load images", func() {
		Expect(ram.Load(0x8000, []byte{1, 2, 3, 4, 5})).To(Succeed())
		Expect(ram.ReadWord(0x8000)).To(Equal(uint64(0x04030201)))
		Expect(ram.Load(0x8000, nil)).To(Succeed())
	})

	It("should reject accesses past the end", func() {
		_, err := ram.ReadWord(0x10000)
		Expect(err).To(MatchError(devices.ErrOutOfRange))
		Expect(ram.WriteWord(0xfffe, 1)).To(MatchError(devices.ErrOutOfRange))
		Expect(ram.Load(0xffff, []byte{1, 2})).To(MatchError(devices.ErrOutOfRange))
		Expect(ram.TryRead(0xfffc, 32)).To(BeTrue())
		Expect(ram.TryRead(0xfffd, 32)).To(BeFalse())
	})

	It("should serve sub-word accesses through the bus", func() {
		Expect(b.Write32(0x40, 0x11223344)).To(Succeed())
		Expect(b.Read8(0x41)).To(Equal(uint8(0x33)))
		Expect(b.Read16(0x42)).To(Equal(uint16(0x1122)))

		Expect(b.Write8(0x43, 0xaa)).To(Succeed())
		Expect(b.Read32(0x40)).To(Equal(uint32(0xaa223344)))

		Expect(b.Write16(0x40, 0xbeef)).To(Succeed())
		Expect(b.Read32(0x40)).To(Equal(uint32(0xaa22beef)))
	})

	It("should split double-word accesses into two words", func() {
		Expect(b.Write64(0x80, 0x0102030405060708)).To(Succeed())
		Expect(b.Read32(0x80)).To(Equal(uint32(0x05060708)))
		Expect(b.Read32(0x84)).To(Equal(uint32(0x01020304)))
		Expect(b.Read64(0x80)).To(Equal(uint64(0x0102030405060708)))
	})
})
