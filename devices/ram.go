package devices

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// RAM is word-addressed memory backed by an akita storage, which allocates
// its pages on first touch.
type RAM struct {
	storage *mem.Storage
	size    uint64
}

// NewRAM creates size bytes of zeroed RAM.
func NewRAM(size uint64) *RAM {
	return &RAM{
		storage: mem.NewStorage(size),
		size:    size,
	}
}

// Size returns the capacity in bytes.
func (r *RAM) Size() uint64 {
	return r.size
}

// Width returns 32.
func (r *RAM) Width() int {
	return 32
}

// TryRead accepts any offset inside the RAM.
func (r *RAM) TryRead(off uint64, width int) bool {
	return off+uint64(width/8) <= r.size
}

// TryWrite accepts any offset inside the RAM.
func (r *RAM) TryWrite(off uint64, width int) bool {
	return off+uint64(width/8) <= r.size
}

func (r *RAM) check(off, n uint64) error {
	if off+n > r.size || off+n < off {
		return fmt.Errorf("ram 0x%x+%d (size 0x%x): %w", off, n, r.size, ErrOutOfRange)
	}
	return nil
}

// ReadWord reads the little-endian word at off.
func (r *RAM) ReadWord(off uint64) (uint64, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	b, err := r.storage.Read(off, 4)
	if err != nil {
		return 0, err
	}
	return uint64(binary.LittleEndian.Uint32(b)), nil
}

// WriteWord writes the low 32 bits of data at off.
func (r *RAM) WriteWord(off uint64, data uint64) error {
	if err := r.check(off, 4); err != nil {
		return err
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(data))
	return r.storage.Write(off, b[:])
}

// Load copies an image into the RAM at off.
func (r *RAM) Load(off uint64, data []byte) error {
	if err := r.check(off, uint64(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return r.storage.Write(off, data)
}

// Dump copies n bytes starting at off.
func (r *RAM) Dump(off, n uint64) ([]byte, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}
	return r.storage.Read(off, n)
}
