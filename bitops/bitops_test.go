package bitops_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv5sim/bitops"
)

var _ = Describe("Bitops", func() {
	It("should test and set single bits", func() {
		Expect(bitops.Bit(0x80000000, 31)).To(BeTrue())
		Expect(bitops.Bit(0x80000000, 30)).To(BeFalse())
		Expect(bitops.SetBit(0, 7, true)).To(Equal(uint32(0x80)))
		Expect(bitops.SetBit(0xff, 7, false)).To(Equal(uint32(0x7f)))
	})

	It("should extract and replace fields", func() {
		Expect(bitops.Field(0xe3a01005, 31, 28)).To(Equal(uint32(0xe)))
		Expect(bitops.Field(0xe3a01005, 15, 12)).To(Equal(uint32(1)))
		Expect(bitops.Field(0xffffffff, 31, 0)).To(Equal(uint32(0xffffffff)))
		Expect(bitops.SetField(0xffffffff, 4, 0, 0x13)).To(Equal(uint32(0xfffffff3)))
	})

	It("should rotate right", func() {
		Expect(bitops.RotateRight(0x000000ff, 8)).To(Equal(uint32(0xff000000)))
		Expect(bitops.RotateRight(0x12345678, 0)).To(Equal(uint32(0x12345678)))
		Expect(bitops.RotateRight(0x12345678, 32)).To(Equal(uint32(0x12345678)))
	})

	It("should sign extend branch offsets", func() {
		Expect(bitops.SignExtend(0xfffffe, 24)).To(Equal(int32(-2)))
		Expect(bitops.SignExtend(0x000010, 24)).To(Equal(int32(16)))
	})

	It("should count register list bits", func() {
		Expect(bitops.PopCount(0x800f)).To(Equal(5))
		Expect(bitops.BoolToBit(true)).To(Equal(uint32(1)))
	})
})
