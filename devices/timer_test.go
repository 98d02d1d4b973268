package devices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/devices"
)

var _ = Describe("DualTimer", func() {
	var t *devices.DualTimer

	read := func(off uint64) uint32 {
		v, err := t.ReadWord(off)
		Expect(err).NotTo(HaveOccurred())
		return uint32(v)
	}

	write := func(off uint64, v uint32) {
		Expect(t.WriteWord(off, uint64(v))).To(Succeed())
	}

	BeforeEach(func() {
		t = devices.NewDualTimer("timer0", GinkgoLogr)
	})

	It("should come out of reset with interrupts enabled and counters stopped", func() {
		Expect(read(devices.TimerControl)).To(Equal(uint32(devices.TimerIntEn)))
		Expect(read(devices.TimerValue)).To(Equal(uint32(0xffff)))
		t.Tick(1000)
		Expect(read(devices.TimerValue)).To(Equal(uint32(0xffff)))
	})

	It("should expose the SP804 identification registers", func() {
		Expect(read(0xfe0)).To(Equal(uint32(0x04)))
		Expect(read(0xfe4)).To(Equal(uint32(0x18)))
		Expect(read(0xff0)).To(Equal(uint32(0x0d)))
	})

	It("should count down and reload in periodic mode", func() {
		write(devices.TimerLoad, 10)
		write(devices.TimerControl,
			devices.TimerEnable|devices.TimerPeriodic|devices.TimerIntEn|devices.TimerSize32)

		t.Tick(4)
		Expect(read(devices.TimerValue)).To(Equal(uint32(6)))
		Expect(t.Asserted()).To(BeFalse())

		t.Tick(6)
		Expect(read(devices.TimerValue)).To(BeZero())
		Expect(read(devices.TimerRIS)).To(Equal(uint32(1)))
		Expect(t.Asserted()).To(BeTrue())

		t.Tick(1)
		Expect(read(devices.TimerValue)).To(Equal(uint32(10)))

		write(devices.TimerIntClr, 1)
		Expect(t.Asserted()).To(BeFalse())
	})

	It("should stop a one-shot counter at zero", func() {
		write(devices.TimerLoad, 5)
		write(devices.TimerControl,
			devices.TimerEnable|devices.TimerOneShot|devices.TimerIntEn|devices.TimerSize32)

		t.Tick(100)
		Expect(read(devices.TimerValue)).To(BeZero())
		Expect(read(devices.TimerControl) & devices.TimerEnable).To(BeZero())
		Expect(t.Asserted()).To(BeTrue())
	})

	It("should keep the interrupt masked when IntEn is clear", func() {
		write(devices.TimerLoad, 1)
		write(devices.TimerControl, devices.TimerEnable|devices.TimerPeriodic|devices.TimerSize32)

		t.Tick(5)
		Expect(read(devices.TimerRIS)).To(Equal(uint32(1)))
		Expect(read(devices.TimerMIS)).To(BeZero())
		Expect(t.Asserted()).To(BeFalse())
	})

	It("should apply the prescaler", func() {
		write(devices.TimerLoad, 100)
		write(devices.TimerControl, devices.TimerEnable|devices.TimerPeriodic|devices.TimerSize32|1<<2)

		t.Tick(15)
		Expect(read(devices.TimerValue)).To(Equal(uint32(100)))
		t.Tick(1)
		Expect(read(devices.TimerValue)).To(Equal(uint32(99)))
	})

	It("should drive the second counter independently", func() {
		write(0x20+devices.TimerLoad, 3)
		write(0x20+devices.TimerControl, devices.TimerEnable|devices.TimerPeriodic|devices.TimerIntEn|devices.TimerSize32)

		t.Tick(3)
		Expect(read(0x20 + devices.TimerRIS)).To(Equal(uint32(1)))
		Expect(read(devices.TimerRIS)).To(BeZero())
		Expect(t.Asserted()).To(BeTrue())
	})

	It("should set the reload value without touching the count via BGLoad", func() {
		write(devices.TimerLoad, 50)
		write(devices.TimerBGLoad, 20)
		Expect(read(devices.TimerLoad)).To(Equal(uint32(20)))
		Expect(read(devices.TimerValue)).To(Equal(uint32(50)))
	})
})
