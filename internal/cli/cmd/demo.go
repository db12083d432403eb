package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dextero/evilvm/internal/cli"
	"github.com/dextero/evilvm/internal/image"
	"github.com/dextero/evilvm/internal/log"
	"github.com/dextero/evilvm/internal/vm"
)

// Demo is a demonstration command: it assembles and runs one of the sample
// programs in internal/image against a freshly configured machine.
func Demo() cli.Command {
	return new(demo)
}

type demo struct {
	debug   bool
	quiet   bool
	program string
}

func (demo) Description() string {
	return "run a sample program"
}

func (d demo) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `
demo [ -debug | -quiet ] [ -program hello|countdown|seek ]

Assemble and run a sample program, printing its output.`)

	return err
}

func (d *demo) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)

	fs.BoolVar(&d.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&d.quiet, "quiet", false, "enable quiet output, machine display only")
	fs.StringVar(&d.program, "program", "hello", "sample program: hello, countdown, or seek")

	return fs
}

func (d demo) Run(ctx context.Context, args []string, out io.Writer, _ *log.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.quiet {
		log.LogLevel.Set(log.Error)
	}

	if d.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stdout)
	log.SetDefault(logger)
	log.DefaultLogger = func() *log.Logger {
		return logger
	}

	var source string

	switch d.program {
	case "countdown":
		source = image.Countdown
	case "seek":
		source = image.SeekDemo
	default:
		source = image.Hello
	}

	logger.Info("assembling sample program", "name", d.program)

	cfg := vm.DefaultConfig()

	code, _, err := image.Assemble(d.program, source, cfg, logger)
	if err != nil {
		logger.Error("assembling sample program", "err", err)
		return 2
	}

	logger.Info("initializing machine")

	machine, err := vm.New(
		vm.WithLogger(logger),
		vm.WithCharBit(cfg.CharBit),
		vm.WithWordSize(cfg.WordSize),
		vm.WithAddrSize(cfg.AddrSize),
		vm.WithRAMSize(cfg.RAMSize),
		vm.WithStackSize(cfg.StackSize),
		vm.WithProgramSize(len(code)),
		vm.WithOut(out),
	)
	if err != nil {
		logger.Error("configuring machine", "err", err)
		return 64
	}

	if err := machine.Load(code); err != nil {
		logger.Error("loading program", "err", err)
		return 64
	}

	logger.Info("starting machine")

	err = machine.Run(ctx)

	switch {
	case err == nil:
		logger.Info("demo completed")
		return 0
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("demo timeout")
		return 2
	default:
		logger.Error("demo fault", "err", err)
		return 1
	}
}
