package coproc

// SystemControlNumber is the coprocessor number of the system control
// coprocessor.
const SystemControlNumber = 15

// Well-known system control register ids.
var (
	RegMainID    = RegID(0, 0, 0, 0)
	RegCacheType = RegID(0, 0, 0, 1)
	RegTCMStatus = RegID(0, 0, 0, 2)
	RegControl   = RegID(1, 0, 0, 0)
	RegTTB       = RegID(2, 0, 0, 0)
	RegDAC       = RegID(3, 0, 0, 0)
	RegDFSR      = RegID(5, 0, 0, 0)
	RegIFSR      = RegID(5, 0, 0, 1)
	RegFAR       = RegID(6, 0, 0, 0)

	RegWaitForInterrupt = RegID(7, 0, 0, 4)
	RegTestCleanD       = RegID(7, 0, 10, 3)
	RegTestCleanID      = RegID(7, 0, 14, 3)
	RegFCSEPID          = RegID(13, 0, 0, 0)
	RegContextID        = RegID(13, 0, 0, 1)
)

// Control register bits.
const (
	ControlMMU         = 1 << 0
	ControlAlign       = 1 << 1
	ControlDCache      = 1 << 2
	ControlICache      = 1 << 12
	ControlHighVectors = 1 << 13
)

// NewSystemControl returns coprocessor 15 populated with the registers of
// an ARM926EJ-S. Cache and TLB maintenance operations are accepted and
// have no effect; the test-and-clean operations always report a clean
// cache so that guest clean loops terminate.
func NewSystemControl() *Coprocessor {
	c := New(SystemControlNumber, "cp15")

	c.AddReadOnly(RegMainID, "MainID", 0x41069265)
	c.AddReadOnly(RegCacheType, "CacheType", 0x1dd20d2)
	c.AddReadOnly(RegTCMStatus, "TCMStatus", 0)
	c.Add(RegControl, "Control", 0x00050078)
	c.Add(RegTTB, "TTB", 0)
	c.Add(RegDAC, "DAC", 0)
	c.Add(RegDFSR, "DFSR", 0)
	c.Add(RegIFSR, "IFSR", 0)
	c.Add(RegFAR, "FAR", 0)

	// Cache maintenance.
	c.Add(RegWaitForInterrupt, "WaitForInterrupt", 0)
	c.Add(RegID(7, 0, 5, 0), "InvalidateICache", 0)
	c.Add(RegID(7, 0, 5, 1), "InvalidateICacheLine", 0)
	c.Add(RegID(7, 0, 5, 2), "InvalidateICacheIndex", 0)
	c.Add(RegID(7, 0, 6, 0), "InvalidateDCache", 0)
	c.Add(RegID(7, 0, 6, 1), "InvalidateDCacheLine", 0)
	c.Add(RegID(7, 0, 6, 2), "InvalidateDCacheIndex", 0)
	c.Add(RegID(7, 0, 7, 0), "InvalidateCaches", 0)
	c.Add(RegID(7, 0, 10, 1), "CleanDCacheLine", 0)
	c.Add(RegID(7, 0, 10, 2), "CleanDCacheIndex", 0)
	c.AddReadOnly(RegTestCleanD, "TestCleanDCache", 0x40000000)
	c.Add(RegID(7, 0, 10, 4), "DrainWriteBuffer", 0)
	c.Add(RegID(7, 0, 13, 1), "PrefetchICacheLine", 0)
	c.Add(RegID(7, 0, 14, 1), "CleanInvalidateDCacheLine", 0)
	c.Add(RegID(7, 0, 14, 2), "CleanInvalidateDCacheIndex", 0)
	c.AddReadOnly(RegTestCleanID, "TestCleanInvalidateDCache", 0x40000000)

	// TLB maintenance.
	c.Add(RegID(8, 0, 5, 0), "InvalidateITLB", 0)
	c.Add(RegID(8, 0, 5, 1), "InvalidateITLBEntry", 0)
	c.Add(RegID(8, 0, 6, 0), "InvalidateDTLB", 0)
	c.Add(RegID(8, 0, 6, 1), "InvalidateDTLBEntry", 0)
	c.Add(RegID(8, 0, 7, 0), "InvalidateTLBs", 0)
	c.Add(RegID(8, 0, 7, 1), "InvalidateTLBEntry", 0)

	// Lockdown and TCM regions.
	c.Add(RegID(9, 0, 0, 0), "DCacheLockdown", 0)
	c.Add(RegID(9, 0, 0, 1), "ICacheLockdown", 0)
	c.Add(RegID(9, 0, 1, 0), "DTCMRegion", 0)
	c.Add(RegID(9, 0, 1, 1), "ITCMRegion", 0)
	c.Add(RegID(10, 0, 0, 0), "TLBLockdown", 0)

	c.Add(RegFCSEPID, "FCSEPID", 0)
	c.Add(RegContextID, "ContextID", 0)

	return c
}
