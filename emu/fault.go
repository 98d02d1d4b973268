package emu

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by handlers for instructions that are
	// recognized but not emulated.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedEncoding is returned for reserved bit patterns that
	// have no defined behavior in this emulator.
	ErrUnsupportedEncoding = errors.New("unsupported instruction encoding")

	// ErrInstructionLimit is returned by Run when the configured maximum
	// number of instructions has executed.
	ErrInstructionLimit = errors.New("instruction limit reached")
)

// FaultKind classifies a fault.
type FaultKind int

// Fault kinds.
const (
	FaultNotImplemented FaultKind = iota
	FaultUnsupportedEncoding
	FaultBus
)

func (k FaultKind) String() string {
	switch k {
	case FaultNotImplemented:
		return "not implemented"
	case FaultUnsupportedEncoding:
		return "unsupported encoding"
	case FaultBus:
		return "bus error"
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Fault is an instruction that could not be executed.
type Fault struct {
	Kind FaultKind
	PC   uint32
	Inst uint32
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%08x: %08x: %s: %v", f.PC, f.Inst, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func newFault(pc, inst uint32, err error) *Fault {
	kind := FaultBus
	switch {
	case errors.Is(err, ErrNotImplemented):
		kind = FaultNotImplemented
	case errors.Is(err, ErrUnsupportedEncoding):
		kind = FaultUnsupportedEncoding
	}
	return &Fault{Kind: kind, PC: pc, Inst: inst, Err: err}
}

// FaultAction is the run loop's response to a fault.
type FaultAction int

// Fault actions.
const (
	// FaultContinue logs the fault and moves on to the next instruction.
	FaultContinue FaultAction = iota

	// FaultAbort stops Run and returns the fault.
	FaultAbort
)

// FaultPolicy decides how the run loop handles a fault.
type FaultPolicy func(*Fault) FaultAction

// DefaultFaultPolicy continues past unsupported encodings and aborts on
// everything else.
func DefaultFaultPolicy(f *Fault) FaultAction {
	if f.Kind == FaultUnsupportedEncoding {
		return FaultContinue
	}
	return FaultAbort
}

// ContinuePolicy continues past every fault.
func ContinuePolicy(*Fault) FaultAction {
	return FaultContinue
}

// AbortPolicy stops on every fault.
func AbortPolicy(*Fault) FaultAction {
	return FaultAbort
}

// ParseFaultPolicy returns the policy called name: "default", "continue"
// or "abort". The empty string selects the default.
func ParseFaultPolicy(name string) (FaultPolicy, error) {
	switch name {
	case "", "default":
		return DefaultFaultPolicy, nil
	case "continue":
		return ContinuePolicy, nil
	case "abort":
		return AbortPolicy, nil
	}
	return nil, fmt.Errorf("unknown fault policy %q", name)
}
