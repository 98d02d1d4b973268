package devices

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sarchlab/armv5sim/bitops"
)

// SP804 per-timer register offsets. The second timer sits at +0x20.
const (
	TimerLoad    = 0x00
	TimerValue   = 0x04
	TimerControl = 0x08
	TimerIntClr  = 0x0c
	TimerRIS     = 0x10
	TimerMIS     = 0x14
	TimerBGLoad  = 0x18

	timerStride = 0x20
)

// Timer control bits.
const (
	TimerOneShot  = 1 << 0
	TimerSize32   = 1 << 1
	TimerIntEn    = 1 << 5
	TimerPeriodic = 1 << 6
	TimerEnable   = 1 << 7
)

// TimerClockHz is the reference clock the board feeds into Tick.
const TimerClockHz = 1000000

type counter struct {
	load    uint32
	value   uint32
	control uint32
	ris     bool
	acc     uint64
}

func (c *counter) reset() {
	*c = counter{control: TimerIntEn, value: 0xffffffff}
}

func (c *counter) mask() uint32 {
	if c.control&TimerSize32 != 0 {
		return 0xffffffff
	}
	return 0xffff
}

func (c *counter) prescale() uint64 {
	switch (c.control >> 2) & 0x3 {
	case 1:
		return 16
	case 2:
		return 256
	}
	return 1
}

func (c *counter) mis() bool {
	return c.ris && c.control&TimerIntEn != 0
}

// tick advances the counter by n reference clock cycles.
func (c *counter) tick(n uint64) {
	if c.control&TimerEnable == 0 {
		return
	}

	c.acc += n
	steps := c.acc / c.prescale()
	c.acc %= c.prescale()

	value := uint64(c.value & c.mask())
	for steps > 0 {
		if value == 0 {
			// Leaving zero reloads and takes one cycle.
			reload := uint64(c.mask())
			if c.control&TimerPeriodic != 0 {
				reload = uint64(c.load & c.mask())
			}
			if reload == 0 {
				c.ris = true
				break
			}
			value = reload
			steps--
			continue
		}

		if steps < value {
			value -= steps
			break
		}

		steps -= value
		value = 0
		c.ris = true

		if c.control&TimerOneShot != 0 {
			c.control &^= TimerEnable
			break
		}
	}

	c.value = uint32(value)
}

// DualTimer is an SP804 dual-input timer module. Both counters share one
// interrupt output.
type DualTimer struct {
	RegisterFile

	mu       sync.Mutex
	log      logr.Logger
	counters [2]counter
}

// NewDualTimer creates a timer module in its reset state.
func NewDualTimer(name string, log logr.Logger) *DualTimer {
	t := &DualTimer{
		RegisterFile: NewRegisterFile(),
		log:          log.WithValues("device", name),
	}

	names := []string{"Load", "Value", "Control", "IntClr", "RIS", "MIS", "BGLoad"}
	for i := range t.counters {
		t.counters[i].reset()
		for j, n := range names {
			t.Add(uint64(i*timerStride+4*j), fmt.Sprintf("Timer%d%s", i+1, n), 0)
		}
	}
	addIDs(&t.RegisterFile, "Timer", [4]uint32{0x04, 0x18, 0x14, 0x00})

	return t
}

// Tick advances both counters by n reference clock cycles.
func (t *DualTimer) Tick(n uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.counters {
		t.counters[i].tick(n)
	}
}

// Asserted reports whether either counter has an unmasked interrupt.
func (t *DualTimer) Asserted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counters[0].mis() || t.counters[1].mis()
}

func (t *DualTimer) locate(off uint64) (*counter, uint64, bool) {
	if off >= 2*timerStride {
		return nil, 0, false
	}
	return &t.counters[off/timerStride], off % timerStride, true
}

// ReadWord reads the register at off.
func (t *DualTimer) ReadWord(off uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, reg, ok := t.locate(off)
	if !ok {
		v, err := t.Get(off)
		return uint64(v), err
	}
	if !t.Valid(off) {
		return 0, fmt.Errorf("read %s: %w", hexOff(off), ErrNoRegister)
	}

	switch reg {
	case TimerLoad, TimerBGLoad:
		return uint64(c.load), nil
	case TimerValue:
		return uint64(c.value & c.mask()), nil
	case TimerControl:
		return uint64(c.control), nil
	case TimerRIS:
		return uint64(bitops.BoolToBit(c.ris)), nil
	case TimerMIS:
		return uint64(bitops.BoolToBit(c.mis())), nil
	}
	return 0, nil
}

// WriteWord writes the register at off.
func (t *DualTimer) WriteWord(off uint64, data uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := uint32(data)

	c, reg, ok := t.locate(off)
	if !ok {
		if isID(off) {
			return nil
		}
		return t.Set(off, v)
	}
	if !t.Valid(off) {
		return fmt.Errorf("write %s: %w", hexOff(off), ErrNoRegister)
	}

	switch reg {
	case TimerLoad:
		c.load = v
		c.value = v
	case TimerBGLoad:
		c.load = v
	case TimerControl:
		c.control = v
	case TimerIntClr:
		c.ris = false
	default:
		t.log.V(2).Info("read-only register write ignored", "reg", t.RegName(off), "value", hex32(v))
	}
	return nil
}
