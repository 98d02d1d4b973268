// Package bus routes memory requests from bus masters to the slave devices
// attached at fixed address ranges.
//
// A Bus is wired once, before any master starts, and then sealed. Lookup
// is a binary search over ranges sorted by base address. Each mapping owns
// a mutex that is held for the full duration of a request, so the
// read-modify-write performed for narrow accesses is atomic with respect to
// other masters.
package bus

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	// ErrInvalidWidth is returned for access widths outside 8/16/32/64.
	ErrInvalidWidth = errors.New("invalid access width")

	// ErrNoDevice is returned when no device covers an address.
	ErrNoDevice = errors.New("no device at address")

	// ErrOverlap is returned when a new mapping intersects an existing one.
	ErrOverlap = errors.New("address range overlaps an existing mapping")

	// ErrSealed is returned when attaching to a sealed bus.
	ErrSealed = errors.New("bus is sealed")

	// ErrMisaligned is returned when a mapping base, or a split wide
	// access, is not aligned to the device width.
	ErrMisaligned = errors.New("not aligned to device width")
)

// Mapping is one attached device and the half-open range [Base, Limit) it
// occupies.
type Mapping struct {
	Base  uint64
	Limit uint64
	Dev   Slave

	mu sync.Mutex
}

// Contains reports whether addr falls in the mapping.
func (m *Mapping) Contains(addr uint64) bool {
	return addr >= m.Base && addr < m.Limit
}

// Bus is a 64-bit addressed request router.
type Bus struct {
	mu       sync.RWMutex
	mappings []*Mapping
	sealed   atomic.Bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Attach maps dev at [base, limit).
func (b *Bus) Attach(dev Slave, base, limit uint64) error {
	if b.sealed.Load() {
		return fmt.Errorf("attach [0x%x, 0x%x): %w", base, limit, ErrSealed)
	}
	if limit <= base {
		return fmt.Errorf("attach [0x%x, 0x%x): empty range", base, limit)
	}
	if _, err := AddressMask(dev.Width()); err != nil {
		return fmt.Errorf("attach [0x%x, 0x%x): %w", base, limit, err)
	}
	if base%uint64(dev.Width()/8) != 0 {
		return fmt.Errorf("attach [0x%x, 0x%x): %w", base, limit, ErrMisaligned)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range b.mappings {
		if base < m.Limit && m.Base < limit {
			return fmt.Errorf("attach [0x%x, 0x%x) over [0x%x, 0x%x): %w",
				base, limit, m.Base, m.Limit, ErrOverlap)
		}
	}

	b.mappings = append(b.mappings, &Mapping{Base: base, Limit: limit, Dev: dev})
	sort.Slice(b.mappings, func(i, j int) bool {
		return b.mappings[i].Base < b.mappings[j].Base
	})

	return nil
}

// Seal prevents further Attach calls. Call it before starting any master.
func (b *Bus) Seal() {
	b.sealed.Store(true)
}

// Sealed reports whether the bus has been sealed.
func (b *Bus) Sealed() bool {
	return b.sealed.Load()
}

// Mappings returns the attached ranges in address order.
func (b *Bus) Mappings() []*Mapping {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Mapping, len(b.mappings))
	copy(out, b.mappings)
	return out
}

func (b *Bus) find(addr uint64) *Mapping {
	if !b.sealed.Load() {
		b.mu.RLock()
		defer b.mu.RUnlock()
	}

	i := sort.Search(len(b.mappings), func(i int) bool {
		return b.mappings[i].Limit > addr
	})
	if i < len(b.mappings) && b.mappings[i].Contains(addr) {
		return b.mappings[i]
	}
	return nil
}

func (b *Bus) lookup(addr uint64, width int) (*Mapping, error) {
	if _, err := AddressMask(width); err != nil {
		return nil, err
	}

	m := b.find(addr)
	if m == nil {
		return nil, fmt.Errorf("0x%016x: %w", addr, ErrNoDevice)
	}
	if last := addr + uint64(width/8) - 1; !m.Contains(last) {
		return nil, fmt.Errorf("0x%016x (%d bits) crosses 0x%016x: %w",
			addr, width, m.Limit, ErrNoDevice)
	}

	return m, nil
}

// TryRead reports whether a width-bit read at addr would be accepted.
func (b *Bus) TryRead(addr uint64, width int) bool {
	m, err := b.lookup(addr, width)
	if err != nil {
		return false
	}

	mask, _ := AddressMask(m.Dev.Width())
	return m.Dev.TryRead((addr-m.Base)&mask, width)
}

// TryWrite reports whether a width-bit write at addr would be accepted.
func (b *Bus) TryWrite(addr uint64, width int) bool {
	m, err := b.lookup(addr, width)
	if err != nil {
		return false
	}

	mask, _ := AddressMask(m.Dev.Width())
	return m.Dev.TryWrite((addr-m.Base)&mask, width)
}

// Read performs a width-bit read at addr.
func (b *Bus) Read(addr uint64, width int) (uint64, error) {
	m, err := b.lookup(addr, width)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	devWidth := m.Dev.Width()
	off := addr - m.Base

	switch {
	case width == devWidth:
		mask, _ := AddressMask(devWidth)
		return m.Dev.ReadWord(off & mask)
	case width < devWidth:
		mask, _ := AddressMask(devWidth)
		word, err := m.Dev.ReadWord(off & mask)
		if err != nil {
			return 0, err
		}
		return ReadMasked(addr, word, devWidth, width)
	default:
		var v uint64
		step := uint64(devWidth / 8)
		if off%step != 0 {
			return 0, fmt.Errorf("0x%016x: %w", addr, ErrMisaligned)
		}
		for i := 0; i < width/devWidth; i++ {
			word, err := m.Dev.ReadWord(off + uint64(i)*step)
			if err != nil {
				return 0, err
			}
			v |= word << (i * devWidth)
		}
		return v, nil
	}
}

// Write performs a width-bit write at addr.
func (b *Bus) Write(addr uint64, width int, data uint64) error {
	m, err := b.lookup(addr, width)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	devWidth := m.Dev.Width()
	off := addr - m.Base

	switch {
	case width == devWidth:
		mask, _ := AddressMask(devWidth)
		return m.Dev.WriteWord(off&mask, data)
	case width < devWidth:
		mask, _ := AddressMask(devWidth)
		read := m.Dev.ReadWord
		if p, ok := m.Dev.(Peeker); ok {
			read = p.PeekWord
		}
		word, err := read(off & mask)
		if err != nil {
			return err
		}
		word, err = WriteMasked(addr, word, data, devWidth, width)
		if err != nil {
			return err
		}
		return m.Dev.WriteWord(off&mask, word)
	default:
		step := uint64(devWidth / 8)
		if off%step != 0 {
			return fmt.Errorf("0x%016x: %w", addr, ErrMisaligned)
		}
		dmask, _ := DataMask(devWidth)
		for i := 0; i < width/devWidth; i++ {
			word := (data >> (i * devWidth)) & dmask
			if err := m.Dev.WriteWord(off+uint64(i)*step, word); err != nil {
				return err
			}
		}
		return nil
	}
}

// Read8 reads a byte.
func (b *Bus) Read8(addr uint64) (uint8, error) {
	v, err := b.Read(addr, Width8)
	return uint8(v), err
}

// Read16 reads a half-word.
func (b *Bus) Read16(addr uint64) (uint16, error) {
	v, err := b.Read(addr, Width16)
	return uint16(v), err
}

// Read32 reads a word.
func (b *Bus) Read32(addr uint64) (uint32, error) {
	v, err := b.Read(addr, Width32)
	return uint32(v), err
}

// Read64 reads a double-word.
func (b *Bus) Read64(addr uint64) (uint64, error) {
	return b.Read(addr, Width64)
}

// Write8 writes a byte.
func (b *Bus) Write8(addr uint64, data uint8) error {
	return b.Write(addr, Width8, uint64(data))
}

// Write16 writes a half-word.
func (b *Bus) Write16(addr uint64, data uint16) error {
	return b.Write(addr, Width16, uint64(data))
}

// Write32 writes a word.
func (b *Bus) Write32(addr uint64, data uint32) error {
	return b.Write(addr, Width32, uint64(data))
}

// Write64 writes a double-word.
func (b *Bus) Write64(addr uint64, data uint64) error {
	return b.Write(addr, Width64, data)
}
