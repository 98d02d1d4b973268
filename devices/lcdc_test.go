package devices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/devices"
)

var _ = Describe("LCDC", func() {
	var lcdc *devices.LCDC

	BeforeEach(func() {
		lcdc = devices.NewLCDC(GinkgoLogr)
	})

	It("should expose the PL110 identification registers", func() {
		ids := []uint64{0x10, 0x11, 0x04, 0x00, 0x0d, 0xf0, 0x05, 0xb1}
		for i, want := range ids {
			Expect(lcdc.ReadWord(0xfe0 + uint64(4*i))).To(Equal(want))
		}
	})

	It("should hold whatever is written to the timing registers", func() {
		Expect(lcdc.WriteWord(0x00, 0x3f1f3f9c)).To(Succeed())
		Expect(lcdc.WriteWord(0x10, 0x00200000)).To(Succeed())
		Expect(lcdc.ReadWord(0x00)).To(Equal(uint64(0x3f1f3f9c)))
		Expect(lcdc.ReadWord(0x10)).To(Equal(uint64(0x00200000)))
	})

	It("should ignore writes to identification registers", func() {
		Expect(lcdc.WriteWord(0xfe0, 0)).To(Succeed())
		Expect(lcdc.ReadWord(0xfe0)).To(Equal(uint64(0x10)))
	})

	It("should reject offsets outside the register map", func() {
		Expect(lcdc.TryRead(0x34, 32)).To(BeFalse())
		_, err := lcdc.ReadWord(0x34)
		Expect(err).To(MatchError(devices.ErrNoRegister))
	})

	It("should never raise an interrupt", func() {
		Expect(lcdc.WriteWord(0x18, 0xff)).To(Succeed())
		Expect(lcdc.Asserted()).To(BeFalse())
	})

	It("should list its registers in offset order", func() {
		regs := lcdc.Registers()
		Expect(regs[0].Name).To(Equal("LCDTiming0"))
		Expect(regs[len(regs)-1].Offset).To(Equal(uint64(0xffc)))
	})
})
