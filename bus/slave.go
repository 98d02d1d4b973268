package bus

// Slave is the contract every device attached to a Bus implements.
//
// Offsets are relative to the base the device was attached at and are
// aligned to the device's native width. Narrower accesses are merged by the
// bus with ReadMasked and WriteMasked; wider ones are split into consecutive
// native accesses, low address first.
type Slave interface {
	// Width returns the native data width in bits.
	Width() int

	// TryRead reports whether a width-bit read at offset is accepted.
	TryRead(offset uint64, width int) bool

	// TryWrite reports whether a width-bit write at offset is accepted.
	TryWrite(offset uint64, width int) bool

	// ReadWord reads one native-width word.
	ReadWord(offset uint64) (uint64, error)

	// WriteWord writes one native-width word.
	WriteWord(offset uint64, data uint64) error
}

// Space is the capability a bus master uses to issue requests.
type Space interface {
	TryRead(addr uint64, width int) bool
	TryWrite(addr uint64, width int) bool

	Read8(addr uint64) (uint8, error)
	Read16(addr uint64) (uint16, error)
	Read32(addr uint64) (uint32, error)
	Read64(addr uint64) (uint64, error)

	Write8(addr uint64, data uint8) error
	Write16(addr uint64, data uint16) error
	Write32(addr uint64, data uint32) error
	Write64(addr uint64, data uint64) error
}

// Peeker is implemented by devices whose register reads have side effects,
// such as a FIFO data register. A narrow write merges into the word
// returned by PeekWord instead of calling ReadWord.
type Peeker interface {
	PeekWord(offset uint64) (uint64, error)
}
