// Package devices provides the slave devices of the emulated board: RAM
// and the PrimeCell peripherals found on ARM Versatile boards.
//
// Every device implements bus.Slave with a native width of 32 bits.
// Peripheral state is guarded by a per-device mutex, so a device may be
// touched by the bus and by a host-side goroutine (console input, timer
// ticks) at the same time.
package devices

import (
	"errors"
	"fmt"
)

// ErrNoRegister is returned for an offset where a device has no register.
var ErrNoRegister = errors.New("no register at offset")

// ErrOutOfRange is returned for RAM accesses beyond the backing store.
var ErrOutOfRange = errors.New("offset out of range")

// InterruptSource is a level-sensitive interrupt output.
type InterruptSource interface {
	Asserted() bool
}

// NullSource is an interrupt source that never asserts.
type NullSource struct{}

// Asserted always returns false.
func (NullSource) Asserted() bool { return false }

// SourceFunc adapts a function to InterruptSource.
type SourceFunc func() bool

// Asserted calls f.
func (f SourceFunc) Asserted() bool { return f() }

// PrimeCell identification values shared by every peripheral.
var primeCellID = [4]uint32{0x0d, 0xf0, 0x05, 0xb1}

const (
	regPeriphID0 = 0xfe0
	regPCellID0  = 0xff0
)

// addIDs registers the four PeriphID and four PCellID registers.
func addIDs(f *RegisterFile, prefix string, periph [4]uint32) {
	for i := 0; i < 4; i++ {
		f.Add(uint64(regPeriphID0+4*i), fmt.Sprintf("%sPeriphID%d", prefix, i), periph[i])
		f.Add(uint64(regPCellID0+4*i), fmt.Sprintf("%sPCellID%d", prefix, i), primeCellID[i])
	}
}

func isID(off uint64) bool {
	return off >= regPeriphID0 && off <= regPCellID0+0xc
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}

func hexOff(off uint64) string {
	return fmt.Sprintf("0x%03x", off)
}
