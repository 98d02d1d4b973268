package loader_test

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/loader"
)

// wordMemory records 32-bit stores.
type wordMemory struct {
	words map[uint32]uint32
	fail  uint32
}

func (m *wordMemory) Write32(addr, v uint32) error {
	if m.fail != 0 && addr == m.fail {
		return errors.New("bus error")
	}
	m.words[addr] = v
	return nil
}

var _ = Describe("ATAGs", func() {
	It("should start with a core tag and end with a none tag", func() {
		words := loader.NewATAGs().Words()
		Expect(words).To(Equal([]uint32{
			5, loader.TagCore, 1, loader.DefaultPageSize, 0,
			0, loader.TagNone,
		}))
	})

	It("should encode memory, initrd, serial and revision tags", func() {
		words := loader.NewATAGs().
			Mem(0, 0x8000000).
			Initrd(0x800000, 0x1234).
			Serial(1, 2).
			Revision(3).
			Words()

		Expect(words[5:]).To(Equal([]uint32{
			4, loader.TagMem, 0x8000000, 0,
			4, loader.TagInitrd2, 0x800000, 0x1234,
			4, loader.TagSerial, 1, 2,
			3, loader.TagRevision, 3,
			0, loader.TagNone,
		}))
	})

	It("should NUL terminate and pad the command line", func() {
		words := loader.NewATAGs().Cmdline("root=/dev/ram").Words()

		// 13 characters plus NUL round up to 4 words.
		Expect(words[5]).To(Equal(uint32(6)))
		Expect(words[6]).To(Equal(uint32(loader.TagCmdline)))

		raw := make([]byte, 16)
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(raw[4*i:], words[7+i])
		}
		Expect(string(raw[:13])).To(Equal("root=/dev/ram"))
		Expect(raw[13:]).To(Equal([]byte{0, 0, 0}))
	})

	It("should add a whole NUL word for a command line of word length", func() {
		words := loader.NewATAGs().Cmdline("abcd").Words()
		Expect(words[5]).To(Equal(uint32(4)))
		Expect(words[8]).To(BeZero())
	})

	It("should render little-endian bytes", func() {
		b := loader.NewATAGs().Bytes()
		Expect(b).To(HaveLen(4 * 7))
		Expect(b[4:8]).To(Equal([]byte{0x01, 0x00, 0x41, 0x54}))
	})

	It("should store the list word by word", func() {
		mem := &wordMemory{words: map[uint32]uint32{}}
		Expect(loader.NewATAGs().Mem(0, 0x100000).Store(mem, 0x100)).To(Succeed())

		Expect(mem.words).To(HaveLen(11))
		Expect(mem.words[0x104]).To(Equal(uint32(loader.TagCore)))
		Expect(mem.words[0x118]).To(Equal(uint32(loader.TagMem)))
		Expect(mem.words[0x128]).To(BeZero())
	})

	It("should report the failing address", func() {
		mem := &wordMemory{words: map[uint32]uint32{}, fail: 0x108}
		err := loader.NewATAGs().Store(mem, 0x100)
		Expect(err).To(MatchError(ContainSubstring("0x00000108")))
	})
})
