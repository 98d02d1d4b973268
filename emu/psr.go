package emu

import "fmt"

// PSR is a program status register value.
type PSR uint32

// PSR bits.
const (
	PSRN PSR = 1 << 31 // Negative
	PSRZ PSR = 1 << 30 // Zero
	PSRC PSR = 1 << 29 // Carry
	PSRV PSR = 1 << 28 // Overflow
	PSRQ PSR = 1 << 27 // Sticky saturation
	PSRI PSR = 1 << 7  // IRQ disable
	PSRF PSR = 1 << 6  // FIQ disable
	PSRT PSR = 1 << 5  // Thumb state

	// PSRModeMask covers the mode field, bits [4:0].
	PSRModeMask PSR = 0x1f

	// APSRMask covers the bits visible through the application view.
	APSRMask PSR = 0xf80f0000
)

// Mode is a processor mode encoding.
type Mode uint32

// Processor modes.
const (
	ModeUsr Mode = 0x10
	ModeFIQ Mode = 0x11
	ModeIRQ Mode = 0x12
	ModeSvc Mode = 0x13
	ModeAbt Mode = 0x17
	ModeUnd Mode = 0x1b
	ModeSys Mode = 0x1f
)

var modeNames = map[Mode]string{
	ModeUsr: "usr",
	ModeFIQ: "fiq",
	ModeIRQ: "irq",
	ModeSvc: "svc",
	ModeAbt: "abt",
	ModeUnd: "und",
	ModeSys: "sys",
}

// String returns the mode's short name, or "???" for an undefined encoding.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "???"
}

// Valid reports whether m is one of the seven defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Privileged reports whether m is any mode other than user.
func (m Mode) Privileged() bool {
	return m != ModeUsr
}

// Mode returns the mode field.
func (p PSR) Mode() Mode { return Mode(p & PSRModeMask) }

// WithMode returns p with the mode field replaced.
func (p PSR) WithMode(m Mode) PSR {
	return p&^PSRModeMask | PSR(m)&PSRModeMask
}

// Has reports whether every bit of mask is set.
func (p PSR) Has(mask PSR) bool { return p&mask == mask }

// With returns p with mask set or cleared.
func (p PSR) With(mask PSR, on bool) PSR {
	if on {
		return p | mask
	}
	return p &^ mask
}

func flagLetter(p PSR, mask PSR, set, clear string) string {
	if p&mask != 0 {
		return set
	}
	return clear
}

// String renders the flags as nNzZcCvV_iIfFtT letters, upper case when
// set, followed by the mode name.
func (p PSR) String() string {
	return fmt.Sprintf("%s%s%s%s_%s%s%s%5s",
		flagLetter(p, PSRN, "N", "n"),
		flagLetter(p, PSRZ, "Z", "z"),
		flagLetter(p, PSRC, "C", "c"),
		flagLetter(p, PSRV, "V", "v"),
		flagLetter(p, PSRI, "I", "i"),
		flagLetter(p, PSRF, "F", "f"),
		flagLetter(p, PSRT, "T", "t"),
		p.Mode())
}
