package devices

import (
	"sync"

	"github.com/go-logr/logr"
)

// LCDC is a PL110 colour LCD controller. Only identification is modeled;
// the timing and frame buffer registers hold whatever is written to them
// and no picture is produced.
type LCDC struct {
	RegisterFile

	mu  sync.Mutex
	log logr.Logger
}

var lcdcRegs = []string{
	"LCDTiming0", "LCDTiming1", "LCDTiming2", "LCDTiming3",
	"LCDUPBASE", "LCDLPBASE", "LCDIMSC", "LCDControl",
	"LCDRIS", "LCDMIS", "LCDICR", "LCDUPCURR", "LCDLPCURR",
}

// NewLCDC creates an LCD controller.
func NewLCDC(log logr.Logger) *LCDC {
	l := &LCDC{
		RegisterFile: NewRegisterFile(),
		log:          log.WithValues("device", "clcd"),
	}
	for i, name := range lcdcRegs {
		l.Add(uint64(4*i), name, 0)
	}
	addIDs(&l.RegisterFile, "CLCD", [4]uint32{0x10, 0x11, 0x04, 0x00})
	return l
}

// Asserted always returns false; the controller raises no interrupts.
func (l *LCDC) Asserted() bool {
	return false
}

// ReadWord reads the register at off.
func (l *LCDC) ReadWord(off uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, err := l.Get(off)
	return uint64(v), err
}

// WriteWord writes the register at off. Identification registers ignore
// writes.
func (l *LCDC) WriteWord(off uint64, data uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if isID(off) {
		return nil
	}
	l.log.V(2).Info("register write", "reg", l.RegName(off), "value", hex32(uint32(data)))
	return l.Set(off, uint32(data))
}
