package board

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/armv5sim/emu"
)

// Kernel image formats.
const (
	FormatRaw = "raw"
	FormatELF = "elf"
)

// Config describes the machine and what it boots.
type Config struct {
	// RAMBase is the physical address of the RAM bank. Default: 0.
	RAMBase uint32 `json:"ram_base" yaml:"ram_base"`

	// RAMSize is the RAM size in bytes. Default: 128 MiB.
	RAMSize uint32 `json:"ram_size" yaml:"ram_size"`

	// Kernel is the path of the kernel image.
	Kernel string `json:"kernel" yaml:"kernel"`

	// KernelFormat is "raw" for a flat image (zImage) or "elf".
	// Default: "raw".
	KernelFormat string `json:"kernel_format" yaml:"kernel_format"`

	// Initrd is the path of an optional initial ramdisk.
	Initrd string `json:"initrd,omitempty" yaml:"initrd,omitempty"`

	// Cmdline is the kernel command line.
	Cmdline string `json:"cmdline" yaml:"cmdline"`

	// MachineType is passed to the kernel in r1. Default: 0x183
	// (Versatile PB).
	MachineType uint32 `json:"machine_type" yaml:"machine_type"`

	// SerialLow and SerialHigh form the board serial number passed in the
	// boot tags. Defaults: 0x20 and 0x30.
	SerialLow  uint32 `json:"serial_low" yaml:"serial_low"`
	SerialHigh uint32 `json:"serial_high" yaml:"serial_high"`

	// BoardRevision is passed in the boot tags. Default: 0x10.
	BoardRevision uint32 `json:"board_revision" yaml:"board_revision"`

	// ATAGOffset, KernelOffset and InitrdOffset place the boot images
	// relative to RAMBase.
	ATAGOffset   uint32 `json:"atag_offset" yaml:"atag_offset"`
	KernelOffset uint32 `json:"kernel_offset" yaml:"kernel_offset"`
	InitrdOffset uint32 `json:"initrd_offset" yaml:"initrd_offset"`

	// UARTs is the number of UARTs attached, 1 to 3. Default: 1.
	UARTs int `json:"uarts" yaml:"uarts"`

	// Disasm writes an instruction trace to stderr.
	Disasm bool `json:"disasm" yaml:"disasm"`

	// FaultPolicy is "default", "continue" or "abort".
	FaultPolicy string `json:"fault_policy" yaml:"fault_policy"`

	// MaxInstructions stops the run after this many instructions. 0 means
	// no limit.
	MaxInstructions uint64 `json:"max_instructions" yaml:"max_instructions"`

	// TimerTickNS is the wall-clock period at which the timers are
	// advanced. Default: 1ms.
	TimerTickNS uint64 `json:"timer_tick_ns" yaml:"timer_tick_ns"`
}

// DefaultConfig returns a Config for a Versatile PB with 128 MiB of RAM.
func DefaultConfig() *Config {
	return &Config{
		RAMBase:       0,
		RAMSize:       128 << 20,
		KernelFormat:  FormatRaw,
		Cmdline:       "console=ttyAMA0",
		MachineType:   0x183,
		SerialLow:     0x20,
		SerialHigh:    0x30,
		BoardRevision: 0x10,
		ATAGOffset:    0x100,
		KernelOffset:  0x8000,
		InitrdOffset:  0x800000,
		UARTs:         1,
		FaultPolicy:   "default",
		TimerTickNS:   1000000,
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a Config from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse board config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize board config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write board config file: %w", err)
	}

	return nil
}

// Validate checks that the layout fits in RAM and that every enumerated
// field holds a known value.
func (c *Config) Validate() error {
	if c.RAMSize == 0 || c.RAMSize%4 != 0 {
		return fmt.Errorf("ram_size must be a non-zero multiple of 4")
	}
	if uint64(c.RAMBase)+uint64(c.RAMSize) > peripheralBase {
		return fmt.Errorf("ram overlaps the peripheral window at 0x%08x", peripheralBase)
	}
	if c.KernelFormat != FormatRaw && c.KernelFormat != FormatELF {
		return fmt.Errorf("kernel_format must be %q or %q", FormatRaw, FormatELF)
	}
	if c.UARTs < 1 || c.UARTs > len(uartBases) {
		return fmt.Errorf("uarts must be between 1 and %d", len(uartBases))
	}
	if _, err := emu.ParseFaultPolicy(c.FaultPolicy); err != nil {
		return err
	}
	if c.TimerTickNS < 1000 {
		return fmt.Errorf("timer_tick_ns must be >= 1000")
	}
	for name, off := range map[string]uint32{
		"atag_offset":   c.ATAGOffset,
		"kernel_offset": c.KernelOffset,
		"initrd_offset": c.InitrdOffset,
	} {
		if off >= c.RAMSize || off%4 != 0 {
			return fmt.Errorf("%s must be word aligned and inside ram", name)
		}
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
