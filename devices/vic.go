package devices

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// PL190 register offsets.
const (
	VICIRQStatus    = 0x000
	VICFIQStatus    = 0x004
	VICRawIntr      = 0x008
	VICIntSelect    = 0x00c
	VICIntEnable    = 0x010
	VICIntEnClear   = 0x014
	VICSoftInt      = 0x018
	VICSoftIntClear = 0x01c
	VICProtection   = 0x020
	VICVectAddr     = 0x030
	VICDefVectAddr  = 0x034
	VICVectAddr0    = 0x100
	VICVectCntl0    = 0x200
	VICITCR         = 0x300
)

// NumLines is the number of interrupt inputs of the controller.
const NumLines = 32

// VIC is a PL190 vectored interrupt controller used as the primary
// controller. Inputs are level sensitive and sampled whenever a status is
// read; nothing is latched. Vectored operation is not modeled: the vector
// address registers read back as zero.
type VIC struct {
	RegisterFile

	mu     sync.Mutex
	log    logr.Logger
	lines  [NumLines]InterruptSource
	soft   uint32
	enable uint32
	sel    uint32
}

// NewVIC creates a controller with every line bound to a NullSource.
func NewVIC(log logr.Logger) *VIC {
	v := &VIC{
		RegisterFile: NewRegisterFile(),
		log:          log.WithValues("device", "vic"),
	}
	for i := range v.lines {
		v.lines[i] = NullSource{}
	}

	v.Add(VICIRQStatus, "VICIRQSTATUS", 0)
	v.Add(VICFIQStatus, "VICFIQSTATUS", 0)
	v.Add(VICRawIntr, "VICRAWINTR", 0)
	v.Add(VICIntSelect, "VICINTSELECT", 0)
	v.Add(VICIntEnable, "VICINTENABLE", 0)
	v.Add(VICIntEnClear, "VICINTENCLEAR", 0)
	v.Add(VICSoftInt, "VICSOFTINT", 0)
	v.Add(VICSoftIntClear, "VICSOFTINTCLEAR", 0)
	v.Add(VICProtection, "VICPROTECTION", 0)
	v.Add(VICVectAddr, "VICVECTADDR", 0)
	v.Add(VICDefVectAddr, "VICDEFVECTADDR", 0)
	for i := 0; i < 16; i++ {
		v.Add(uint64(VICVectAddr0+4*i), fmt.Sprintf("VICVECTADDR%d", i), 0)
		v.Add(uint64(VICVectCntl0+4*i), fmt.Sprintf("VICVECTCNTL%d", i), 0)
	}
	v.Add(VICITCR, "VICITCR", 0)
	addIDs(&v.RegisterFile, "VIC", [4]uint32{0x90, 0x11, 0x10, 0x00})

	return v
}

// Connect binds line n to src, replacing any previous source.
func (v *VIC) Connect(n int, src InterruptSource) error {
	if n < 0 || n >= NumLines {
		return fmt.Errorf("interrupt line %d out of range", n)
	}
	if src == nil {
		src = NullSource{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.lines[n] = src
	return nil
}

// Disconnect binds line n back to a NullSource.
func (v *VIC) Disconnect(n int) error {
	return v.Connect(n, nil)
}

// raw samples every input and returns the enabled raw status.
func (v *VIC) raw() uint32 {
	st := v.soft
	for i, src := range v.lines {
		if src.Asserted() {
			st |= 1 << uint(i)
		}
	}
	return st
}

func (v *VIC) irqStatus() uint32 {
	return v.raw() & v.enable &^ v.sel
}

func (v *VIC) fiqStatus() uint32 {
	return v.raw() & v.enable & v.sel
}

// IRQStatus returns the enabled interrupts routed to IRQ.
func (v *VIC) IRQStatus() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.irqStatus()
}

// FIQStatus returns the enabled interrupts routed to FIQ.
func (v *VIC) FIQStatus() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.fiqStatus()
}

// IRQ returns the controller's IRQ output.
func (v *VIC) IRQ() InterruptSource {
	return SourceFunc(func() bool { return v.IRQStatus() != 0 })
}

// FIQ returns the controller's FIQ output.
func (v *VIC) FIQ() InterruptSource {
	return SourceFunc(func() bool { return v.FIQStatus() != 0 })
}

// ReadWord reads the register at off.
func (v *VIC) ReadWord(off uint64) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch off {
	case VICIRQStatus:
		return uint64(v.irqStatus()), nil
	case VICFIQStatus:
		return uint64(v.fiqStatus()), nil
	case VICRawIntr:
		return uint64(v.raw()), nil
	case VICIntSelect:
		return uint64(v.sel), nil
	case VICIntEnable:
		return uint64(v.enable), nil
	case VICSoftInt:
		return uint64(v.soft), nil
	case VICVectAddr, VICDefVectAddr:
		return 0, nil
	}

	r, err := v.Get(off)
	return uint64(r), err
}

// WriteWord writes the register at off.
func (v *VIC) WriteWord(off uint64, data uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	d := uint32(data)

	switch {
	case off == VICIRQStatus, off == VICFIQStatus, off == VICRawIntr, isID(off):
		return nil
	case off == VICIntSelect:
		v.sel = d
		return nil
	case off == VICIntEnable:
		v.enable |= d
		return nil
	case off == VICIntEnClear:
		v.enable &^= d
		return nil
	case off == VICSoftInt:
		v.soft |= d
		return nil
	case off == VICSoftIntClear:
		v.soft &^= d
		return nil
	case off == VICVectAddr, off == VICDefVectAddr, off == VICITCR,
		off >= VICVectCntl0 && off < VICVectCntl0+0x40:
		v.log.V(1).Info("vectored interrupt register not modeled", "reg", v.RegName(off), "value", hex32(d))
	}

	return v.Set(off, d)
}
