// Package coproc provides coprocessor register banks addressed the way
// MRC and MCR address them: by CRn, opcode1, CRm and opcode2.
package coproc

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnregistered is returned when accessing a register id that was never
// added to a bank. It is distinct from a register that holds zero.
var ErrUnregistered = errors.New("unregistered coprocessor register")

// ErrReadOnly is returned by Set on a read-only register.
var ErrReadOnly = errors.New("read-only coprocessor register")

// RegID composes the 16-bit register id CRn<<12 | opc1<<8 | CRm<<4 | opc2.
func RegID(crn, opc1, crm, opc2 uint32) uint16 {
	return uint16((crn&0xf)<<12 | (opc1&0x7)<<8 | (crm&0xf)<<4 | (opc2 & 0x7))
}

// FormatRegID renders an id in assembler operand order.
func FormatRegID(id uint16) string {
	return fmt.Sprintf("%d, c%d, c%d, %d",
		(id>>8)&0x7, (id>>12)&0xf, (id>>4)&0xf, id&0x7)
}

// Register is one named coprocessor register.
type Register struct {
	ID       uint16
	Name     string
	Value    uint32
	ReadOnly bool
}

// Coprocessor is a bank of registers keyed by register id.
type Coprocessor struct {
	num  int
	name string
	regs map[uint16]*Register
}

// New creates an empty coprocessor bank with number num.
func New(num int, name string) *Coprocessor {
	return &Coprocessor{
		num:  num,
		name: name,
		regs: make(map[uint16]*Register),
	}
}

// Number returns the coprocessor number, 0 to 15.
func (c *Coprocessor) Number() int {
	return c.num
}

// Name returns the bank name.
func (c *Coprocessor) Name() string {
	return c.name
}

// Add registers a read-write register. Re-adding an id replaces it.
func (c *Coprocessor) Add(id uint16, name string, value uint32) {
	c.regs[id] = &Register{ID: id, Name: name, Value: value}
}

// AddReadOnly registers a register whose writes are rejected.
func (c *Coprocessor) AddReadOnly(id uint16, name string, value uint32) {
	c.regs[id] = &Register{ID: id, Name: name, Value: value, ReadOnly: true}
}

// Valid reports whether id has been registered.
func (c *Coprocessor) Valid(id uint16) bool {
	_, ok := c.regs[id]
	return ok
}

// Get returns the value of register id.
func (c *Coprocessor) Get(id uint16) (uint32, error) {
	r, ok := c.regs[id]
	if !ok {
		return 0, fmt.Errorf("%s %s: %w", c.name, FormatRegID(id), ErrUnregistered)
	}
	return r.Value, nil
}

// Set stores v into register id.
func (c *Coprocessor) Set(id uint16, v uint32) error {
	r, ok := c.regs[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", c.name, FormatRegID(id), ErrUnregistered)
	}
	if r.ReadOnly {
		return fmt.Errorf("%s %s (%s): %w", c.name, FormatRegID(id), r.Name, ErrReadOnly)
	}
	r.Value = v
	return nil
}

// Lookup returns the register for id, if any.
func (c *Coprocessor) Lookup(id uint16) (*Register, bool) {
	r, ok := c.regs[id]
	return r, ok
}

// IDs returns all registered ids in ascending order.
func (c *Coprocessor) IDs() []uint16 {
	ids := make([]uint16, 0, len(c.regs))
	for id := range c.regs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Registry maps coprocessor numbers to banks.
type Registry struct {
	banks [16]*Coprocessor
}

// NewRegistry creates a registry holding the given banks.
func NewRegistry(cps ...*Coprocessor) (*Registry, error) {
	r := &Registry{}
	for _, cp := range cps {
		if err := r.Attach(cp); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Attach installs cp under its number.
func (r *Registry) Attach(cp *Coprocessor) error {
	if cp.num < 0 || cp.num >= len(r.banks) {
		return fmt.Errorf("coprocessor number %d out of range", cp.num)
	}
	if r.banks[cp.num] != nil {
		return fmt.Errorf("coprocessor %d already attached", cp.num)
	}
	r.banks[cp.num] = cp
	return nil
}

// Get returns bank num, or nil when nothing is attached there.
func (r *Registry) Get(num int) *Coprocessor {
	if num < 0 || num >= len(r.banks) {
		return nil
	}
	return r.banks[num]
}
