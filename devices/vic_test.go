package devices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/devices"
)

const vicBase = 0x10140000

// level is a test interrupt source whose state is set directly.
type level struct{ on bool }

func (l *level) Asserted() bool { return l.on }

var _ = Describe("VIC", func() {
	var (
		b     *bus.Bus
		vic   *devices.VIC
		line3 *level
		line7 *level
	)

	read := func(off uint64) uint32 {
		v, err := b.Read32(vicBase + off)
		Expect(err).NotTo(HaveOccurred())
		return v
	}

	write := func(off uint64, v uint32) {
		Expect(b.Write32(vicBase+off, v)).To(Succeed())
	}

	BeforeEach(func() {
		vic = devices.NewVIC(GinkgoLogr)
		line3 = &level{}
		line7 = &level{}
		Expect(vic.Connect(3, line3)).To(Succeed())
		Expect(vic.Connect(7, line7)).To(Succeed())

		b = bus.New()
		Expect(b.Attach(vic, vicBase, vicBase+0x10000)).To(Succeed())
		b.Seal()
	})

	It("should expose the PL190 identification registers", func() {
		ids := []uint32{0x90, 0x11, 0x10, 0x00, 0x0d, 0xf0, 0x05, 0xb1}
		for i, want := range ids {
			Expect(read(0xfe0 + uint64(4*i))).To(Equal(want))
		}
	})

	It("should reject out of range lines", func() {
		Expect(vic.Connect(32, line3)).NotTo(Succeed())
		Expect(vic.Connect(-1, line3)).NotTo(Succeed())
	})

	It("should report nothing until lines are enabled", func() {
		line3.on = true
		Expect(read(devices.VICRawIntr)).To(Equal(uint32(1 << 3)))
		Expect(read(devices.VICIRQStatus)).To(BeZero())
		Expect(vic.IRQ().Asserted()).To(BeFalse())
	})

	It("should route enabled lines by the select mask", func() {
		line3.on = true
		line7.on = true
		write(devices.VICIntEnable, 1<<3)
		write(devices.VICIntEnable, 1<<7)
		write(devices.VICIntSelect, 1<<7)

		Expect(read(devices.VICIntEnable)).To(Equal(uint32(1<<3 | 1<<7)))
		Expect(read(devices.VICIRQStatus)).To(Equal(uint32(1 << 3)))
		Expect(read(devices.VICFIQStatus)).To(Equal(uint32(1 << 7)))
		Expect(vic.IRQ().Asserted()).To(BeTrue())
		Expect(vic.FIQ().Asserted()).To(BeTrue())
	})

	It("should follow the line level", func() {
		write(devices.VICIntEnable, 1<<3)
		line3.on = true
		Expect(vic.IRQ().Asserted()).To(BeTrue())
		line3.on = false
		Expect(vic.IRQ().Asserted()).To(BeFalse())
	})

	It("should mask lines through INTENCLEAR", func() {
		line3.on = true
		write(devices.VICIntEnable, 1<<3)
		write(devices.VICIntEnClear, 1<<3)
		Expect(read(devices.VICIntEnable)).To(BeZero())
		Expect(vic.IRQ().Asserted()).To(BeFalse())
	})

	It("should raise and clear software interrupts", func() {
		write(devices.VICIntEnable, 1<<1)
		write(devices.VICSoftInt, 1<<1)
		Expect(read(devices.VICIRQStatus)).To(Equal(uint32(1 << 1)))

		write(devices.VICSoftIntClear, 1<<1)
		Expect(read(devices.VICIRQStatus)).To(BeZero())
	})

	It("should ignore writes to status registers", func() {
		write(devices.VICIRQStatus, 0xffffffff)
		write(devices.VICRawIntr, 0xffffffff)
		Expect(read(devices.VICRawIntr)).To(BeZero())
	})

	It("should disconnect lines", func() {
		line3.on = true
		write(devices.VICIntEnable, 1<<3)
		Expect(vic.Disconnect(3)).To(Succeed())
		Expect(vic.IRQ().Asserted()).To(BeFalse())
	})

	It("should read vector addresses as zero", func() {
		write(devices.VICVectAddr, 0x1234)
		Expect(read(devices.VICVectAddr)).To(BeZero())
		write(devices.VICVectAddr0+4, 0x5678)
		Expect(read(devices.VICVectAddr0 + 4)).To(Equal(uint32(0x5678)))
	})
})
