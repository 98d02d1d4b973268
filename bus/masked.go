package bus

import "fmt"

// Supported access widths, in bits.
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32
	Width64 = 64
)

// AddressMask returns a mask that rounds an address down to a width-bit
// boundary.
func AddressMask(width int) (uint64, error) {
	switch width {
	case Width8:
		return ^uint64(0), nil
	case Width16:
		return ^uint64(1), nil
	case Width32:
		return ^uint64(3), nil
	case Width64:
		return ^uint64(7), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
}

// DataMask returns a mask with the low width bits set.
func DataMask(width int) (uint64, error) {
	switch width {
	case Width8:
		return 0xff, nil
	case Width16:
		return 0xffff, nil
	case Width32:
		return 0xffffffff, nil
	case Width64:
		return ^uint64(0), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
}

// shiftFor returns the bit position of a dataWidth-wide field at addr inside
// a busWidth-wide little-endian word.
func shiftFor(addr uint64, busWidth, dataWidth int) (uint, error) {
	busMask, err := AddressMask(busWidth)
	if err != nil {
		return 0, err
	}
	dataMask, err := AddressMask(dataWidth)
	if err != nil {
		return 0, err
	}
	if dataWidth > busWidth {
		return 0, fmt.Errorf("%w: data %d wider than bus %d",
			ErrInvalidWidth, dataWidth, busWidth)
	}

	return uint((addr &^ busMask & dataMask) * 8), nil
}

// ReadMasked extracts the dataWidth-wide field at addr from busData, a word
// read from a busWidth-wide bus at the address rounded down to busWidth.
func ReadMasked(addr, busData uint64, busWidth, dataWidth int) (uint64, error) {
	sh, err := shiftFor(addr, busWidth, dataWidth)
	if err != nil {
		return 0, err
	}
	dmask, _ := DataMask(dataWidth)

	return (busData >> sh) & dmask, nil
}

// WriteMasked returns busData with the dataWidth-wide field at addr replaced
// by newData. All other bits of busData are preserved.
func WriteMasked(addr, busData, newData uint64, busWidth, dataWidth int) (uint64, error) {
	sh, err := shiftFor(addr, busWidth, dataWidth)
	if err != nil {
		return 0, err
	}
	dmask, _ := DataMask(dataWidth)

	return (busData &^ (dmask << sh)) | ((newData & dmask) << sh), nil
}
