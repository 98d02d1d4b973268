package devices_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/devices"
)

const uartBase = 0x101f1000

var _ = Describe("UART", func() {
	var (
		b    *bus.Bus
		uart *devices.UART
		out  *bytes.Buffer
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		uart = devices.NewUART("uart0", out, GinkgoLogr)
		b = bus.New()
		Expect(b.Attach(uart, uartBase, uartBase+0x1000)).To(Succeed())
		b.Seal()
	})

	It("should expose the PL011 identification registers", func() {
		ids := []uint32{0x11, 0x10, 0x14, 0x00, 0x0d, 0xf0, 0x05, 0xb1}
		for i, want := range ids {
			Expect(b.Read32(uartBase + 0xfe0 + uint64(4*i))).To(Equal(want))
		}
	})

	It("should ignore writes to identification registers", func() {
		Expect(b.Write32(uartBase+0xfe0, 0xff)).To(Succeed())
		Expect(b.Read32(uartBase + 0xfe0)).To(Equal(uint32(0x11)))
	})

	It("should transmit characters written to DR", func() {
		for _, c := range []byte("hi\n") {
			Expect(b.Write32(uartBase+devices.UARTDR, uint32(c))).To(Succeed())
		}
		Expect(b.Write8(uartBase+devices.UARTDR, 0)).To(Succeed())
		Expect(out.String()).To(Equal("hi\n"))
	})

	It("should keep buffered input across byte stores to DR", func() {
		uart.Feed('x')
		Expect(b.Write8(uartBase+devices.UARTDR, 'A')).To(Succeed())
		Expect(b.Write16(uartBase+devices.UARTDR, 'B')).To(Succeed())

		Expect(out.String()).To(Equal("AB"))
		Expect(uart.Buffered()).To(Equal(1))
		Expect(b.Read32(uartBase + devices.UARTDR)).To(Equal(uint32('x')))
	})

	It("should peek at DR without dequeuing", func() {
		uart.Feed('p')
		Expect(uart.PeekWord(devices.UARTDR)).To(Equal(uint64('p')))
		Expect(uart.Buffered()).To(Equal(1))
	})

	It("should dequeue received characters and return LF when empty", func() {
		uart.Feed('o', 'k')
		Expect(b.Read32(uartBase + devices.UARTDR)).To(Equal(uint32('o')))
		Expect(b.Read32(uartBase + devices.UARTDR)).To(Equal(uint32('k')))
		Expect(b.Read32(uartBase + devices.UARTDR)).To(Equal(uint32('\n')))
	})

	It("should report FIFO state in FR", func() {
		Expect(b.Read32(uartBase + devices.UARTFR)).To(Equal(uint32(0x90)))
		uart.Feed('x')
		Expect(b.Read32(uartBase + devices.UARTFR)).To(Equal(uint32(0x80)))
	})

	It("should assert only unmasked interrupts", func() {
		Expect(uart.Asserted()).To(BeFalse())
		Expect(b.Read32(uartBase + devices.UARTRIS)).To(Equal(uint32(0x20)))

		Expect(b.Write32(uartBase+devices.UARTIMSC, 0x10)).To(Succeed())
		Expect(uart.Asserted()).To(BeFalse())

		uart.Feed('a')
		Expect(uart.Asserted()).To(BeTrue())
		Expect(b.Read32(uartBase + devices.UARTMIS)).To(Equal(uint32(0x10)))

		_, err := b.Read32(uartBase + devices.UARTDR)
		Expect(err).NotTo(HaveOccurred())
		Expect(uart.Asserted()).To(BeFalse())
	})

	It("should store line control and control registers", func() {
		Expect(b.Write32(uartBase+devices.UARTLCRH, 0x70)).To(Succeed())
		Expect(b.Write32(uartBase+devices.UARTCR, 0x301)).To(Succeed())
		Expect(b.Read32(uartBase + devices.UARTLCRH)).To(Equal(uint32(0x70)))
		Expect(b.Read32(uartBase + devices.UARTCR)).To(Equal(uint32(0x301)))
	})

	It("should reject unregistered offsets", func() {
		Expect(b.TryRead(uartBase+0x004, 32)).To(BeFalse())
		_, err := b.Read32(uartBase + 0x004)
		Expect(err).To(MatchError(devices.ErrNoRegister))
	})

	It("should pump a reader into the input queue", func() {
		Expect(uart.Pump(context.Background(), strings.NewReader("boot"))).To(Succeed())
		Expect(uart.Buffered()).To(Equal(4))
	})

	It("should stop pumping when the context is cancelled", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		r, w := io.Pipe()
		DeferCleanup(w.Close)
		Expect(uart.Pump(ctx, r)).To(MatchError(context.DeadlineExceeded))
	})
})
