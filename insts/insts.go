// Package insts provides ARMv5 instruction definitions and decoding.
//
// Decoding is a pure function of the 32-bit instruction word. The decoder
// classifies a word into an Op, a Format and an Operand form; every other
// field is read on demand through accessors on the Instruction. It
// covers:
//   - Data processing with immediate, immediate-shift and register-shift operands
//   - Status register access, BX/BLX, CLZ
//   - Multiplies, swaps and the extra (half-word, signed, double) transfers
//   - Single and multiple load/store
//   - Branches, coprocessor transfers and SWI
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xe0810002) // ADD r0, r1, r2
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d, Rm: %d\n", inst.Op, inst.Rd(), inst.Rn(), inst.Rm())
package insts
