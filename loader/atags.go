package loader

import (
	"encoding/binary"
	"fmt"
)

// ATAG identifiers.
const (
	TagNone     = 0x00000000
	TagCore     = 0x54410001
	TagMem      = 0x54410002
	TagSerial   = 0x54410006
	TagRevision = 0x54410007
	TagCmdline  = 0x54410009
	TagInitrd2  = 0x54420005
)

// DefaultPageSize is the page size reported in the core tag.
const DefaultPageSize = 0x1000

// MemoryWriter stores words into guest memory.
type MemoryWriter interface {
	Write32(addr uint32, v uint32) error
}

// ATAGs builds the tagged list a Linux kernel reads at boot. The list
// always starts with a core tag; Words and Bytes append the terminating
// none tag.
type ATAGs struct {
	words []uint32
}

// NewATAGs starts a tag list with a core tag for a read-only root.
func NewATAGs() *ATAGs {
	a := &ATAGs{}
	a.tag(TagCore, 1, DefaultPageSize, 0)
	return a
}

func (a *ATAGs) tag(id uint32, body ...uint32) *ATAGs {
	a.words = append(a.words, uint32(2+len(body)), id)
	a.words = append(a.words, body...)
	return a
}

// Mem describes a bank of RAM.
func (a *ATAGs) Mem(start, size uint32) *ATAGs {
	return a.tag(TagMem, size, start)
}

// Initrd records where the initial ramdisk was placed.
func (a *ATAGs) Initrd(start, size uint32) *ATAGs {
	return a.tag(TagInitrd2, start, size)
}

// Serial records the board serial number.
func (a *ATAGs) Serial(low, high uint32) *ATAGs {
	return a.tag(TagSerial, low, high)
}

// Revision records the board revision.
func (a *ATAGs) Revision(rev uint32) *ATAGs {
	return a.tag(TagRevision, rev)
}

// Cmdline adds the kernel command line. The string is NUL terminated and
// padded to a word boundary.
func (a *ATAGs) Cmdline(s string) *ATAGs {
	buf := make([]byte, (len(s)+4)/4*4)
	copy(buf, s)

	body := make([]uint32, len(buf)/4)
	for i := range body {
		body[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return a.tag(TagCmdline, body...)
}

// Words returns the tag list including the terminating none tag.
func (a *ATAGs) Words() []uint32 {
	out := make([]uint32, len(a.words), len(a.words)+2)
	copy(out, a.words)
	return append(out, 0, TagNone)
}

// Bytes returns the little-endian encoding of Words.
func (a *ATAGs) Bytes() []byte {
	words := a.Words()
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// Store writes the tag list to memory at addr.
func (a *ATAGs) Store(w MemoryWriter, addr uint32) error {
	for i, word := range a.Words() {
		at := addr + uint32(4*i)
		if err := w.Write32(at, word); err != nil {
			return fmt.Errorf("store atags at 0x%08x: %w", at, err)
		}
	}
	return nil
}
