package emu

type bank int

const (
	bankUser bank = iota
	bankFIQ
	bankIRQ
	bankSvc
	bankAbt
	bankUnd
	numBanks
)

func bankOf(m Mode) bank {
	switch m {
	case ModeFIQ:
		return bankFIQ
	case ModeIRQ:
		return bankIRQ
	case ModeSvc:
		return bankSvc
	case ModeAbt:
		return bankAbt
	case ModeUnd:
		return bankUnd
	}
	return bankUser
}

// highBank returns the bank holding r8-r12 for b: FIQ has its own copy,
// every other mode shares the user registers.
func highBank(b bank) bank {
	if b == bankFIQ {
		return bankFIQ
	}
	return bankUser
}

// RegFile represents the ARM register file.
//
// r holds the registers visible in the current mode. The stored r15 is the
// address of the executing instruction; reads through GetReg add the
// 8-byte prefetch bias. Registers of inactive modes live in banked, and
// are swapped in by SetCPSR whenever the mode field changes.
type RegFile struct {
	r    [16]uint32
	cpsr PSR
	spsr [numBanks]PSR

	// banked holds r8-r14 per bank. Slots 0-4 (r8-r12) are only used by
	// the user and FIQ banks.
	banked [numBanks][7]uint32

	jumped bool
}

// NewRegFile creates a register file in its reset state: supervisor mode
// with IRQ and FIQ disabled.
func NewRegFile() *RegFile {
	return &RegFile{cpsr: PSR(ModeSvc) | PSRI | PSRF}
}

// GetReg reads register n. Reading r15 returns the stored PC plus 8.
func (r *RegFile) GetReg(n int) uint32 {
	if n == 15 {
		return r.r[15] + 8
	}
	return r.r[n]
}

// SetReg writes register n. Writing r15 marks the PC as jumped.
func (r *RegFile) SetReg(n int, v uint32) {
	if n == 15 {
		r.SetPC(v)
		return
	}
	r.r[n] = v
}

// PC returns the stored program counter, without the read bias.
func (r *RegFile) PC() uint32 {
	return r.r[15]
}

// SetPC replaces the program counter and marks it as jumped.
func (r *RegFile) SetPC(v uint32) {
	r.r[15] = v
	r.jumped = true
}

// Jumped reports whether the PC was replaced since the last NextPC.
func (r *RegFile) Jumped() bool {
	return r.jumped
}

// ClearJump forgets a pending jump so that the next NextPC advances.
func (r *RegFile) ClearJump() {
	r.jumped = false
}

// NextPC advances the PC by one instruction unless it was replaced during
// the current instruction, in which case only the jump flag is cleared.
func (r *RegFile) NextPC() {
	if r.jumped {
		r.jumped = false
		return
	}
	r.r[15] += 4
}

// JumpRel adds a signed byte offset to the biased PC and jumps there.
func (r *RegFile) JumpRel(offset int32) {
	r.SetPC(r.GetReg(15) + uint32(offset))
}

// CPSR returns the current program status register.
func (r *RegFile) CPSR() PSR {
	return r.cpsr
}

// SetCPSR replaces the CPSR, switching register banks when the mode
// changes.
func (r *RegFile) SetCPSR(v PSR) {
	from, to := bankOf(r.cpsr.Mode()), bankOf(v.Mode())
	if from != to {
		r.switchBank(from, to)
	}
	r.cpsr = v
}

func (r *RegFile) switchBank(from, to bank) {
	if hf, ht := highBank(from), highBank(to); hf != ht {
		copy(r.banked[hf][0:5], r.r[8:13])
		copy(r.r[8:13], r.banked[ht][0:5])
	}
	copy(r.banked[from][5:7], r.r[13:15])
	copy(r.r[13:15], r.banked[to][5:7])
}

// hasSPSR reports whether the current mode owns a saved PSR.
func (r *RegFile) hasSPSR() bool {
	m := r.cpsr.Mode()
	return m.Valid() && bankOf(m) != bankUser
}

// SPSR returns the saved PSR of the current mode. Modes without one (usr,
// sys and undefined encodings) read the CPSR instead.
func (r *RegFile) SPSR() PSR {
	if !r.hasSPSR() {
		return r.cpsr
	}
	return r.spsr[bankOf(r.cpsr.Mode())]
}

// SetSPSR writes the saved PSR of the current mode. The write is dropped
// in modes without one.
func (r *RegFile) SetSPSR(v PSR) {
	if !r.hasSPSR() {
		return
	}
	r.spsr[bankOf(r.cpsr.Mode())] = v
}

// APSR returns the application view of the CPSR.
func (r *RegFile) APSR() PSR {
	return r.cpsr & APSRMask
}

// SetAPSR writes the application-visible bits, preserving the rest of the
// CPSR.
func (r *RegFile) SetAPSR(v PSR) {
	r.cpsr = r.cpsr&^APSRMask | v&APSRMask
}

// Mode returns the current processor mode.
func (r *RegFile) Mode() Mode {
	return r.cpsr.Mode()
}

// Flag reports whether the CPSR bit mask is set.
func (r *RegFile) Flag(mask PSR) bool {
	return r.cpsr&mask != 0
}

// SetFlag sets or clears CPSR bits without a mode change.
func (r *RegFile) SetFlag(mask PSR, on bool) {
	r.cpsr = r.cpsr.With(mask&^PSRModeMask, on)
}

// SetNZ sets N and Z from a result.
func (r *RegFile) SetNZ(result uint32) {
	r.SetFlag(PSRN, result&0x80000000 != 0)
	r.SetFlag(PSRZ, result == 0)
}

// UserReg reads register n of the user bank regardless of the current
// mode.
func (r *RegFile) UserReg(n int) uint32 {
	cur := bankOf(r.cpsr.Mode())
	switch {
	case n >= 8 && n <= 12 && cur == bankFIQ:
		return r.banked[bankUser][n-8]
	case (n == 13 || n == 14) && cur != bankUser:
		return r.banked[bankUser][n-8]
	}
	return r.GetReg(n)
}

// SetUserReg writes register n of the user bank regardless of the
// current mode.
func (r *RegFile) SetUserReg(n int, v uint32) {
	cur := bankOf(r.cpsr.Mode())
	switch {
	case n >= 8 && n <= 12 && cur == bankFIQ:
		r.banked[bankUser][n-8] = v
	case (n == 13 || n == 14) && cur != bankUser:
		r.banked[bankUser][n-8] = v
	default:
		r.SetReg(n, v)
	}
}
