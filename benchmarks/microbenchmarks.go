package benchmarks

import (
	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/emu"
	"github.com/sarchlab/armv5sim/insts"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// one stresses a different part of the core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		dependencyChain(),
		memoryCopy(),
		functionCalls(),
		multiplyAccumulate(),
		branchHeavy(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		memoryCopy(),
		branchHeavy(),
	}
}

// 1. Arithmetic Loop - counted loop of immediate ALU operations
func arithmeticLoop() Benchmark {
	return Benchmark{
		Name:        "arithmetic_loop",
		Description: "65536 iterations of ADD/SUBS/BNE",
		Program: []uint32{
			EncodeMOVImm(0, 0, 0),        // r0 = 0
			EncodeMOVImm(1, 1, 8),        // r1 = 0x10000
			EncodeADDImm(0, 0, 1, false), // loop: r0++
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(insts.CondNE, -8),
			EncodeWFI(),
		},
		ExpectedR0: 0x10000,
	}
}

// 2. Dependency Chain - every ADD reads the previous result
func dependencyChain() Benchmark {
	program := []uint32{
		EncodeMOVImm(0, 0, 0),  // r0 = 0
		EncodeMOVImm(2, 1, 0),  // r2 = 1
		EncodeMOVImm(1, 1, 10), // r1 = 0x1000
	}
	for i := 0; i < 8; i++ {
		program = append(program, EncodeADDReg(0, 0, 2, false))
	}
	program = append(program,
		EncodeSUBImm(1, 1, 1, true),
		EncodeB(insts.CondNE, -36),
		EncodeWFI(),
	)

	return Benchmark{
		Name:        "dependency_chain",
		Description: "4096 iterations of 8 dependent register ADDs",
		Program:     program,
		ExpectedR0:  0x8000,
	}
}

// 3. Memory Copy - post-indexed word loads and stores through the bus
func memoryCopy() Benchmark {
	return Benchmark{
		Name:        "memory_copy",
		Description: "Copy and sum 256 words with LDR/STR post-index",
		Setup: func(_ *emu.RegFile, mem bus.Space) error {
			for i := uint32(0); i < 256; i++ {
				if err := mem.Write32(uint64(DataAddr+4*i), i+1); err != nil {
					return err
				}
			}
			return nil
		},
		Program: []uint32{
			EncodeMOVImm(0, 0, 0),  // r0 = 0
			EncodeMOVImm(2, 1, 7),  // r2 = 0x40000 (source)
			EncodeMOVImm(3, 2, 7),  // r3 = 0x80000 (destination)
			EncodeMOVImm(1, 1, 12), // r1 = 0x100
			EncodeLDRPost(5, 2, 4), // loop: r5 = [r2], r2 += 4
			EncodeSTRPost(5, 3, 4),
			EncodeADDReg(0, 0, 5, false),
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(insts.CondNE, -16),
			EncodeWFI(),
		},
		ExpectedR0: 256 * 257 / 2,
	}
}

// 4. Function Calls - BL with a stack frame in the callee
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "4096 calls to a leaf that pushes and pops a frame",
		Program: []uint32{
			EncodeMOVImm(0, 0, 0),  // r0 = 0
			EncodeMOVImm(1, 1, 10), // r1 = 0x1000
			EncodeBL(16),           // loop: call inc
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(insts.CondNE, -8),
			EncodeWFI(),
			EncodePush(1<<4 | 1<<14), // inc: push {r4, lr}
			EncodeADDImm(0, 0, 1, false),
			EncodePop(1<<4 | 1<<15), // pop {r4, pc}
		},
		ExpectedR0: 0x1000,
	}
}

// 5. Multiply Accumulate - MLA throughput
func multiplyAccumulate() Benchmark {
	return Benchmark{
		Name:        "multiply_accumulate",
		Description: "4096 iterations of MLA r0, r2, r3, r0",
		Program: []uint32{
			EncodeMOVImm(0, 0, 0),  // r0 = 0
			EncodeMOVImm(2, 3, 0),  // r2 = 3
			EncodeMOVImm(3, 5, 0),  // r3 = 5
			EncodeMOVImm(1, 1, 10), // r1 = 0x1000
			EncodeMLA(0, 2, 3, 0),  // loop: r0 += 15
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(insts.CondNE, -8),
			EncodeWFI(),
		},
		ExpectedR0: 15 * 0x1000,
	}
}

// 6. Branch Heavy - data dependent forward branch every iteration
func branchHeavy() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "Count odd loop indices with a conditional forward branch",
		Program: []uint32{
			EncodeMOVImm(0, 0, 0),  // r0 = 0
			EncodeMOVImm(1, 1, 10), // r1 = 0x1000
			EncodeANDImm(4, 1, 1),  // loop: r4 = r1 & 1
			EncodeCMPImm(4, 0),
			EncodeB(insts.CondEQ, 8), // skip the increment
			EncodeADDImm(0, 0, 1, false),
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(insts.CondNE, -20),
			EncodeWFI(),
		},
		ExpectedR0: 0x800,
	}
}
