// Package board assembles a Versatile PB style machine from the bus, the
// CPU and the peripherals, boots a kernel on it and runs it.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/armv5sim/bus"
	"github.com/sarchlab/armv5sim/devices"
	"github.com/sarchlab/armv5sim/emu"
)

// Versatile PB memory map.
const (
	peripheralBase = 0x10000000

	lcdcBase    = 0x10120000
	vicBase     = 0x10140000
	vicSize     = 0x10000
	timer01Base = 0x101e2000
	timer23Base = 0x101e3000

	deviceSize = 0x1000
)

// Primary interrupt controller line assignments.
const (
	timer01Line = 4
	timer23Line = 5
	lcdcLine    = 16
)

var (
	uartBases = [...]uint64{0x101f1000, 0x101f2000, 0x101f3000}
	uartLines = [...]int{12, 13, 14}
)

// Machine is a CPU wired to RAM and the Versatile peripherals.
type Machine struct {
	config *Config
	log    logr.Logger
	out    io.Writer
	trace  io.Writer

	bus    *bus.Bus
	ram    *devices.RAM
	vic    *devices.VIC
	uarts  []*devices.UART
	timers []*devices.DualTimer
	lcdc   *devices.LCDC
	cpu    *emu.CPU
}

// MachineOption is a functional option for configuring the Machine.
type MachineOption func(*Machine)

// WithLogger sets the logger handed to the CPU and every device.
func WithLogger(log logr.Logger) MachineOption {
	return func(m *Machine) {
		m.log = log
	}
}

// WithConsole sets where UART output goes. Default: os.Stdout.
func WithConsole(w io.Writer) MachineOption {
	return func(m *Machine) {
		m.out = w
	}
}

// WithTrace sets where the disassembly trace goes when Config.Disasm is
// set. Default: os.Stderr.
func WithTrace(w io.Writer) MachineOption {
	return func(m *Machine) {
		m.trace = w
	}
}

// NewMachine builds and seals the machine described by config.
func NewMachine(config *Config, opts ...MachineOption) (*Machine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board config: %w", err)
	}

	m := &Machine{
		config: config.Clone(),
		log:    logr.Discard(),
		out:    os.Stdout,
		trace:  os.Stderr,
		bus:    bus.New(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.wire(); err != nil {
		return nil, err
	}
	m.bus.Seal()

	policy, _ := emu.ParseFaultPolicy(m.config.FaultPolicy)
	cpuOpts := []emu.CPUOption{
		emu.WithLogger(m.log.WithName("cpu")),
		emu.WithInterrupts(m.vic.IRQ(), m.vic.FIQ()),
		emu.WithFaultPolicy(policy),
		emu.WithMaxInstructions(m.config.MaxInstructions),
	}
	if m.config.Disasm {
		cpuOpts = append(cpuOpts, emu.WithDisasm(m.trace))
	}
	m.cpu = emu.NewCPU(m.bus, cpuOpts...)

	return m, nil
}

func (m *Machine) attach(dev bus.Slave, base, size uint64) error {
	if err := m.bus.Attach(dev, base, base+size); err != nil {
		return fmt.Errorf("attach at 0x%08x: %w", base, err)
	}
	return nil
}

func (m *Machine) wire() error {
	c := m.config
	devLog := m.log.WithName("devices")

	m.ram = devices.NewRAM(uint64(c.RAMSize))
	if err := m.attach(m.ram, uint64(c.RAMBase), uint64(c.RAMSize)); err != nil {
		return err
	}

	m.vic = devices.NewVIC(devLog)
	if err := m.attach(m.vic, vicBase, vicSize); err != nil {
		return err
	}

	for i := 0; i < c.UARTs; i++ {
		uart := devices.NewUART(fmt.Sprintf("uart%d", i), m.out, devLog)
		if err := m.attach(uart, uartBases[i], deviceSize); err != nil {
			return err
		}
		if err := m.vic.Connect(uartLines[i], uart); err != nil {
			return err
		}
		m.uarts = append(m.uarts, uart)
	}

	for _, t := range []struct {
		name string
		base uint64
		line int
	}{
		{"timer01", timer01Base, timer01Line},
		{"timer23", timer23Base, timer23Line},
	} {
		timer := devices.NewDualTimer(t.name, devLog)
		if err := m.attach(timer, t.base, deviceSize); err != nil {
			return err
		}
		if err := m.vic.Connect(t.line, timer); err != nil {
			return err
		}
		m.timers = append(m.timers, timer)
	}

	m.lcdc = devices.NewLCDC(devLog)
	if err := m.attach(m.lcdc, lcdcBase, deviceSize); err != nil {
		return err
	}
	return m.vic.Connect(lcdcLine, m.lcdc)
}

// Config returns a copy of the machine's configuration.
func (m *Machine) Config() *Config {
	return m.config.Clone()
}

// Bus returns the system bus.
func (m *Machine) Bus() *bus.Bus {
	return m.bus
}

// CPU returns the processor.
func (m *Machine) CPU() *emu.CPU {
	return m.cpu
}

// RAM returns the RAM bank.
func (m *Machine) RAM() *devices.RAM {
	return m.ram
}

// VIC returns the primary interrupt controller.
func (m *Machine) VIC() *devices.VIC {
	return m.vic
}

// UART returns UART i, or nil if it is not fitted.
func (m *Machine) UART(i int) *devices.UART {
	if i < 0 || i >= len(m.uarts) {
		return nil
	}
	return m.uarts[i]
}

// Timers returns the two dual timer modules.
func (m *Machine) Timers() []*devices.DualTimer {
	return m.timers
}

// Tick advances every timer by n reference clock cycles.
func (m *Machine) Tick(n uint64) {
	for _, t := range m.timers {
		t.Tick(n)
	}
}

// Run runs the CPU until ctx is done, the CPU halts or it returns an
// error. Alongside it, console input is fed to UART0 and the timers are
// ticked in real time. console may be nil.
func (m *Machine) Run(ctx context.Context, console io.Reader) error {
	g, ctx := errgroup.WithContext(ctx)
	auxCtx, stopAux := context.WithCancel(ctx)
	defer stopAux()

	g.Go(func() error {
		defer stopAux()
		return m.cpu.Run(ctx)
	})

	if console != nil {
		g.Go(func() error {
			err := m.uarts[0].Pump(auxCtx, console)
			if auxCtx.Err() != nil && errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		m.tickTimers(auxCtx)
		return nil
	})

	return g.Wait()
}

func (m *Machine) tickTimers(ctx context.Context) {
	period := time.Duration(m.config.TimerTickNS)
	cycles := m.config.TimerTickNS * devices.TimerClockHz / uint64(time.Second)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(cycles)
		}
	}
}
