package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/insts"
)

var _ = Describe("Disassemble", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	DescribeTable("should render mnemonic and operands",
		func(word, pc uint32, mnemonic, operands string) {
			m, o := insts.Disassemble(decoder.Decode(word), pc)
			Expect(m).To(Equal(mnemonic))
			Expect(o).To(Equal(operands))
		},
		Entry("add", uint32(0xE0810002), uint32(0), "add", "r0, r1, r2"),
		Entry("addne", uint32(0x10810002), uint32(0), "addne", "r0, r1, r2"),
		Entry("movs imm", uint32(0xE3B00000), uint32(0), "movs", "r0, #0"),
		Entry("mov lsl", uint32(0xE1A00101), uint32(0), "mov", "r0, r1, lsl #2"),
		Entry("mov lsl reg", uint32(0xE1A00211), uint32(0), "mov", "r0, r1, lsl r2"),
		Entry("mov lsr #32", uint32(0xE1A00021), uint32(0), "mov", "r0, r1, lsr #32"),
		Entry("mov rrx", uint32(0xE1A00061), uint32(0), "mov", "r0, r1, rrx"),
		Entry("cmp", uint32(0xE15101C2), uint32(0), "cmp", "r1, r2, asr #3"),
		Entry("mrs", uint32(0xE10F0000), uint32(0), "mrs", "r0, cpsr"),
		Entry("msr", uint32(0xE321F0D3), uint32(0), "msr", "cpsr_c, #211"),
		Entry("msr reg", uint32(0xE169F000), uint32(0), "msr", "spsr_cf, r0"),
		Entry("bx", uint32(0xE12FFF1E), uint32(0), "bx", "lr"),
		Entry("mul", uint32(0xE0000291), uint32(0), "mul", "r0, r1, r2"),
		Entry("mla", uint32(0xE0203291), uint32(0), "mla", "r0, r1, r2, r3"),
		Entry("umull", uint32(0xE0810392), uint32(0), "umull", "r0, r1, r2, r3"),
		Entry("swp", uint32(0xE1020091), uint32(0), "swp", "r0, r1, [r2]"),
		Entry("ldr pre", uint32(0xE5910004), uint32(0), "ldr", "r0, [r1, #4]"),
		Entry("ldr post", uint32(0xE4910004), uint32(0), "ldr", "r0, [r1], #4"),
		Entry("ldr wb", uint32(0xE5B10004), uint32(0), "ldr", "r0, [r1, #4]!"),
		Entry("str neg", uint32(0xE5010004), uint32(0), "str", "r0, [r1, #-4]"),
		Entry("ldreqb", uint32(0x05D10000), uint32(0), "ldreqb", "r0, [r1]"),
		Entry("ldr scaled", uint32(0xE7910102), uint32(0), "ldr", "r0, [r1, r2, lsl #2]"),
		Entry("ldrh", uint32(0xE1D103B6), uint32(0), "ldrh", "r0, [r1, #54]"),
		Entry("stmdb", uint32(0xE92D4010), uint32(0), "stmdb", "sp!, {r4, lr}"),
		Entry("ldm user", uint32(0xE8FD8000), uint32(0), "ldmia", "sp!, {pc}^"),
		Entry("b back", uint32(0xEAFFFFFE), uint32(0x8000), "b", "00008000"),
		Entry("bl fwd", uint32(0xEB000004), uint32(0x8000), "bl", "00008018"),
		Entry("blx h", uint32(0xFB000000), uint32(0x8000), "blx", "0000800a"),
		Entry("mrc", uint32(0xEE110F10), uint32(0), "mrc", "p15, 0, r0, c1, c0, 0"),
		Entry("cdp", uint32(0xEE000F00), uint32(0), "cdp", "p15, 0, c0, c0, c0, 0"),
		Entry("swi", uint32(0xEF123456), uint32(0), "swi", "0x123456"),
		Entry("und", uint32(0xE7910012), uint32(0), "und", ""),
	)

	It("should render register lists and field masks", func() {
		Expect(insts.RegListString(0x800f)).To(Equal("{r0, r1, r2, r3, pc}"))
		Expect(insts.FieldMaskName(0xf)).To(Equal("cxsf"))
	})
})
