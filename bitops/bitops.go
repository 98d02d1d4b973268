// Package bitops provides bit manipulation helpers shared by the decoder,
// the execution engine and the peripheral models.
package bitops

import "math/bits"

// Bit reports whether bit n of v is set.
func Bit(v uint32, n uint) bool {
	return v&(1<<n) != 0
}

// SetBit returns v with bit n set to b.
func SetBit(v uint32, n uint, b bool) uint32 {
	if b {
		return v | 1<<n
	}
	return v &^ (1 << n)
}

// Field extracts bits [hi:lo] of v, right-aligned.
func Field(v uint32, hi, lo uint) uint32 {
	return (v >> lo) & (1<<(hi-lo+1) - 1)
}

// SetField returns v with bits [hi:lo] replaced by the low bits of f.
func SetField(v uint32, hi, lo uint, f uint32) uint32 {
	mask := uint32(1<<(hi-lo+1)-1) << lo
	return (v &^ mask) | ((f << lo) & mask)
}

// RotateRight rotates v right by n bits.
func RotateRight(v uint32, n uint) uint32 {
	return bits.RotateLeft32(v, -int(n%32))
}

// SignExtend sign-extends the low width bits of v to 32 bits.
func SignExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

// PopCount returns the number of set bits in v.
func PopCount(v uint32) int {
	return bits.OnesCount32(v)
}

// BoolToBit converts b to 1 or 0.
func BoolToBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
