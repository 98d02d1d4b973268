// Package main provides the entry point for armv5sim.
// armv5sim boots an ARM Linux kernel on an emulated Versatile PB board.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"golang.org/x/term"

	"github.com/sarchlab/armv5sim/board"
	"github.com/sarchlab/armv5sim/emu"
)

var (
	configPath  = flag.String("config", "", "Path to board configuration file (JSON or YAML)")
	ramBase     = flag.Uint("ram-base", 0, "Physical base address of RAM")
	ramSize     = flag.Uint("ram-size", 128<<20, "RAM size in bytes")
	initrd      = flag.String("initrd", "", "Path to an initial ramdisk")
	cmdline     = flag.String("cmdline", "console=ttyAMA0", "Kernel command line")
	elfKernel   = flag.Bool("elf", false, "Kernel is an ELF executable instead of a flat image")
	disasm      = flag.Bool("disasm", false, "Trace every executed instruction to stderr")
	maxInsts    = flag.Uint64("max-insts", 0, "Stop after this many instructions (0: no limit)")
	faultPolicy = flag.String("fault-policy", "default", "Fault policy: default, continue or abort")
	logLevel    = flag.Int("log-level", 0, "Log verbosity")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if config.Kernel == "" {
		fmt.Fprintf(os.Stderr, "Usage: armv5sim [options] <kernel>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		return 1
	}

	// A terminal in raw mode needs explicit carriage returns.
	eol := "\n"
	raw := false
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: raw terminal: %v\n", err)
			return 1
		}
		defer func() { _ = term.Restore(fd, state) }()
		eol = "\r\n"
		raw = true
	}

	log := newLogger(eol)

	machine, err := board.NewMachine(config, board.WithLogger(log))
	if err != nil {
		log.Error(err, "failed to build machine")
		return 1
	}
	if err := machine.Boot(); err != nil {
		log.Error(err, "failed to boot")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Raw mode delivers Ctrl-C to the guest, so the host needs its own
	// exit key.
	var console io.Reader = os.Stdin
	if raw {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		console = newEscapeReader(os.Stdin, cancel)
		fmt.Fprintf(os.Stderr, "Press Ctrl-A x to exit%s", eol)
	}

	err = machine.Run(ctx, console)

	if *verbose {
		fmt.Fprintf(os.Stderr, "%sInstructions executed: %d%s", eol, machine.CPU().InstructionCount(), eol)
	}

	switch {
	case err == nil,
		errors.Is(err, emu.ErrInstructionLimit),
		errors.Is(err, context.Canceled):
		return 0
	}
	log.Error(err, "emulation stopped")
	return 1
}

// loadConfig starts from the config file, or the defaults, and applies the
// flags the user set explicitly.
func loadConfig() (*board.Config, error) {
	config := board.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = board.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ram-base":
			config.RAMBase = uint32(*ramBase)
		case "ram-size":
			config.RAMSize = uint32(*ramSize)
		case "initrd":
			config.Initrd = *initrd
		case "cmdline":
			config.Cmdline = *cmdline
		case "elf":
			if *elfKernel {
				config.KernelFormat = board.FormatELF
			} else {
				config.KernelFormat = board.FormatRaw
			}
		case "disasm":
			config.Disasm = *disasm
		case "max-insts":
			config.MaxInstructions = *maxInsts
		case "fault-policy":
			config.FaultPolicy = *faultPolicy
		}
	})

	if flag.NArg() > 0 {
		config.Kernel = flag.Arg(0)
	}
	return config, nil
}

func newLogger(eol string) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s%s", prefix, args, eol)
			return
		}
		fmt.Fprintf(os.Stderr, "%s%s", args, eol)
	}, funcr.Options{Verbosity: *logLevel})
}
