package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dextero/evilvm/internal/asm"
	"github.com/dextero/evilvm/internal/cli"
	"github.com/dextero/evilvm/internal/log"
	"github.com/dextero/evilvm/internal/tty"
	"github.com/dextero/evilvm/internal/vm"
)

// Runner is the command that assembles and runs a program.
//
//	evilvm run [options] file.asm
func Runner() cli.Command {
	r := new(runner)
	cfg := vm.DefaultConfig()
	r.charBit, r.wordSize, r.addrSize = cfg.CharBit, cfg.WordSize, cfg.AddrSize
	r.ramSize, r.stackSize = cfg.RAMSize, cfg.StackSize

	return r
}

type runner struct {
	debug   bool
	timeout time.Duration

	charBit, wordSize, addrSize int
	ramSize, stackSize          int

	mapRAMProgram, mapRAMStack bool
}

func (runner) Description() string {
	return "assemble and run a program"
}

func (runner) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `run [options] file.asm

Assemble and run a program against a freshly configured machine.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.BoolVar(&r.debug, "debug", false, "enable debug logging")
	fs.DurationVar(&r.timeout, "timeout", 10*time.Second, "maximum run duration")
	fs.IntVar(&r.charBit, "char-bit", r.charBit, "cell width in bits")
	fs.IntVar(&r.wordSize, "word-size", r.wordSize, "word width in cells")
	fs.IntVar(&r.addrSize, "addr-size", r.addrSize, "address width in cells")
	fs.IntVar(&r.ramSize, "ram-size", r.ramSize, "RAM size in cells")
	fs.IntVar(&r.stackSize, "stack-size", r.stackSize, "call-stack size in cells")
	fs.BoolVar(&r.mapRAMProgram, "map-memory-ram-program", false, "alias ram and program spaces")
	fs.BoolVar(&r.mapRAMStack, "map-memory-ram-stack", false, "alias ram and stack spaces")

	return fs
}

// Run assembles the named source file and executes it.
func (r *runner) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if r.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("no source file given")
		return 64
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("reading source", "err", err)
		return 64
	}

	acfg := asm.Config{CharBit: r.charBit, WordSize: r.wordSize, AddrSize: r.addrSize}

	image, _, err := asm.Assemble(args[0], string(source), acfg, logger)
	if err != nil {
		for _, line := range splitErrors(err) {
			fmt.Fprintln(stdout, line)
		}

		return 2
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	ctx, cancelTimeout := context.WithTimeout(ctx, r.timeout)
	defer cancelTimeout()

	opts := []vm.OptionFn{
		vm.WithLogger(logger),
		vm.WithCharBit(r.charBit),
		vm.WithWordSize(r.wordSize),
		vm.WithAddrSize(r.addrSize),
		vm.WithRAMSize(r.ramSize),
		vm.WithStackSize(r.stackSize),
		vm.WithProgramSize(len(image)),
		vm.WithOut(stdout),
	}

	if r.mapRAMProgram {
		opts = append(opts, vm.WithMemoryMap(vm.Alias{A: vm.SpaceRAM, B: vm.SpaceProgram}))
	}

	if r.mapRAMStack {
		opts = append(opts, vm.WithMemoryMap(vm.Alias{A: vm.SpaceRAM, B: vm.SpaceStack}))
	}

	console, err := tty.NewConsole(os.Stdin, os.Stdout)
	if err == nil {
		defer console.Restore()
		opts = append(opts, vm.WithCursorSeeker(console))
	}

	logger.Debug("initializing machine")

	machine, err := vm.New(opts...)
	if err != nil {
		logger.Error("configuring machine", "err", err)
		return 64
	}

	if err := machine.Load(image); err != nil {
		logger.Error("loading image", "err", err)
		return 64
	}

	logger.Info("starting machine")

	err = machine.Run(ctx)
	cancel(err)

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("program completed")
		return 0
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("run timeout")
		return 2
	default:
		logger.Error("program fault", "err", err)
		return 1
	}
}
