package devices

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/go-logr/logr"
)

// PL011 register offsets.
const (
	UARTDR    = 0x000
	UARTFR    = 0x018
	UARTIBRD  = 0x024
	UARTFBRD  = 0x028
	UARTLCRH  = 0x02c
	UARTCR    = 0x030
	UARTIFLS  = 0x034
	UARTIMSC  = 0x038
	UARTRIS   = 0x03c
	UARTMIS   = 0x040
	UARTICR   = 0x044
	uartRXInt = 1 << 4
	uartTXInt = 1 << 5
	uartRXFE  = 1 << 4
	uartTXFE  = 1 << 7
)

// UART is a PL011 serial port. The transmit FIFO is always empty, so
// every character written to DR goes straight to the output writer.
// Received characters are queued by Feed or Pump and dequeued by reads of
// DR.
type UART struct {
	RegisterFile

	mu    sync.Mutex
	name  string
	log   logr.Logger
	out   io.Writer
	input []byte
	raw   uint32
	mask  uint32
}

// NewUART creates a UART that transmits to out.
func NewUART(name string, out io.Writer, log logr.Logger) *UART {
	u := &UART{
		RegisterFile: NewRegisterFile(),
		name:         name,
		log:          log.WithValues("device", name),
		out:          out,
	}

	u.Add(UARTDR, "UARTDR", 0)
	u.Add(UARTFR, "UARTFR", 0)
	u.Add(UARTIBRD, "UARTIBRD", 0)
	u.Add(UARTFBRD, "UARTFBRD", 0)
	u.Add(UARTLCRH, "UARTLCR_H", 0)
	u.Add(UARTCR, "UARTCR", 0)
	u.Add(UARTIFLS, "UARTIFLS", 0)
	u.Add(UARTIMSC, "UARTIMSC", 0)
	u.Add(UARTRIS, "UARTRIS", 0)
	u.Add(UARTMIS, "UARTMIS", 0)
	u.Add(UARTICR, "UARTICR", 0)
	addIDs(&u.RegisterFile, "UART", [4]uint32{0x11, 0x10, 0x14, 0x00})

	return u
}

// Name returns the name given at construction.
func (u *UART) Name() string {
	return u.name
}

// Feed queues received characters.
func (u *UART) Feed(b ...byte) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.input = append(u.input, b...)
}

// Buffered returns the number of received characters not yet read.
func (u *UART) Buffered() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.input)
}

// Pump feeds everything read from r until r is exhausted or ctx is done.
// The read itself runs in its own goroutine, since a blocking reader such
// as a terminal cannot be interrupted.
func (u *UART) Pump(ctx context.Context, r io.Reader) error {
	chunks := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-chunks:
			u.Feed(chunk...)
		case err := <-errc:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// updateRaw refreshes the raw interrupt bits: TX is always pending, RX
// follows the input queue.
func (u *UART) updateRaw() {
	u.raw |= uartTXInt
	if len(u.input) > 0 {
		u.raw |= uartRXInt
	} else {
		u.raw &^= uartRXInt
	}
}

// Asserted reports whether any unmasked interrupt is pending.
func (u *UART) Asserted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.updateRaw()
	return u.raw&u.mask != 0
}

// ReadWord reads the register at off. Reading DR dequeues a character.
func (u *UART) ReadWord(off uint64) (uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	v, err := u.read(off)
	if err == nil && off == UARTDR && len(u.input) > 0 {
		u.input = u.input[1:]
	}
	return v, err
}

// PeekWord reads the register at off without dequeuing input.
func (u *UART) PeekWord(off uint64) (uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.read(off)
}

func (u *UART) read(off uint64) (uint64, error) {
	switch off {
	case UARTDR:
		if len(u.input) == 0 {
			return '\n', nil
		}
		return uint64(u.input[0]), nil
	case UARTFR:
		v := uint32(uartTXFE)
		if len(u.input) == 0 {
			v |= uartRXFE
		}
		return uint64(v), nil
	case UARTIMSC:
		return uint64(u.mask), nil
	case UARTRIS:
		u.updateRaw()
		return uint64(u.raw), nil
	case UARTMIS:
		u.updateRaw()
		return uint64(u.raw & u.mask), nil
	}

	v, err := u.Get(off)
	return uint64(v), err
}

// WriteWord writes the register at off.
func (u *UART) WriteWord(off uint64, data uint64) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	v := uint32(data)

	switch {
	case off == UARTDR:
		if c := byte(v); c != 0 {
			if _, err := u.out.Write([]byte{c}); err != nil {
				return err
			}
		}
		return nil
	case off == UARTFR, off == UARTIBRD, off == UARTFBRD, off == UARTIFLS:
		u.log.V(2).Info("register write ignored", "reg", u.RegName(off), "value", hex32(v))
		return nil
	case off == UARTIMSC:
		u.mask = v
		return nil
	case off == UARTICR:
		u.raw &^= v
		return nil
	case off == UARTRIS, off == UARTMIS, isID(off):
		return nil
	}

	return u.Set(off, v)
}
