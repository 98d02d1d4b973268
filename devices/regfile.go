package devices

import (
	"fmt"
	"sort"
)

// Register is one named 32-bit device register.
type Register struct {
	Offset uint64
	Name   string
	Value  uint32
}

// RegisterFile is the word register map shared by the peripherals. It
// answers the validity half of bus.Slave: an access is accepted only at a
// registered offset. Devices embed it and implement ReadWord and
// WriteWord on top.
type RegisterFile struct {
	regs map[uint64]*Register
}

// NewRegisterFile creates an empty register map.
func NewRegisterFile() RegisterFile {
	return RegisterFile{regs: make(map[uint64]*Register)}
}

// Add registers a word register at off with a reset value.
func (f *RegisterFile) Add(off uint64, name string, value uint32) {
	f.regs[off] = &Register{Offset: off, Name: name, Value: value}
}

// Valid reports whether off is a registered offset.
func (f *RegisterFile) Valid(off uint64) bool {
	_, ok := f.regs[off]
	return ok
}

// Get returns the stored value at off.
func (f *RegisterFile) Get(off uint64) (uint32, error) {
	r, ok := f.regs[off]
	if !ok {
		return 0, fmt.Errorf("read %s: %w", hexOff(off), ErrNoRegister)
	}
	return r.Value, nil
}

// Set stores v at off.
func (f *RegisterFile) Set(off uint64, v uint32) error {
	r, ok := f.regs[off]
	if !ok {
		return fmt.Errorf("write %s: %w", hexOff(off), ErrNoRegister)
	}
	r.Value = v
	return nil
}

// RegName returns the name of the register at off.
func (f *RegisterFile) RegName(off uint64) string {
	if r, ok := f.regs[off]; ok {
		return r.Name
	}
	return hexOff(off)
}

// Registers returns every register in offset order.
func (f *RegisterFile) Registers() []Register {
	out := make([]Register, 0, len(f.regs))
	for _, r := range f.regs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Width returns the native width of every peripheral, 32 bits.
func (f *RegisterFile) Width() int {
	return 32
}

// TryRead accepts reads of registered offsets.
func (f *RegisterFile) TryRead(off uint64, _ int) bool {
	return f.Valid(off)
}

// TryWrite accepts writes to registered offsets. Read-only registers are
// accepted too; their devices ignore the data.
func (f *RegisterFile) TryWrite(off uint64, _ int) bool {
	return f.Valid(off)
}
