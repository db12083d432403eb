package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dextero/evilvm/internal/asm"
	"github.com/dextero/evilvm/internal/cli"
	"github.com/dextero/evilvm/internal/encoding"
	"github.com/dextero/evilvm/internal/log"
	"github.com/dextero/evilvm/internal/vm"
)

// Assembler is the command that translates Evil VM assembly into a binary
// program image.
//
//	evilvm asm -o a.out file.asm
func Assembler() cli.Command {
	a := new(assembler)
	a.charBit = vm.DefaultConfig().CharBit
	a.wordSize = vm.DefaultConfig().WordSize
	a.addrSize = vm.DefaultConfig().AddrSize

	return a
}

type assembler struct {
	debug    bool
	output   string
	hexOut   bool
	charBit  int
	wordSize int
	addrSize int
}

func (assembler) Description() string {
	return "assemble source into a program image"
}

func (assembler) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `asm [-o file.out] [-char-bit n] [-word-size n] [-addr-size n] file.asm

Assemble source into a program image for the configured machine width.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ContinueOnError)
	fs.BoolVar(&a.debug, "debug", false, "enable debug logging")
	fs.StringVar(&a.output, "o", "a.out", "output `filename`")
	fs.BoolVar(&a.hexOut, "hex", false, "write output as Intel-Hex-style text instead of raw bytes")
	fs.IntVar(&a.charBit, "char-bit", a.charBit, "cell width in bits")
	fs.IntVar(&a.wordSize, "word-size", a.wordSize, "word width in cells")
	fs.IntVar(&a.addrSize, "addr-size", a.addrSize, "address width in cells")

	return fs
}

// Run assembles the named source file and writes the resulting image.
func (a *assembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if a.debug {
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

	cfg := asm.Config{CharBit: a.charBit, WordSize: a.wordSize, AddrSize: a.addrSize}

	image, symbols, err := asm.Assemble(args[0], string(source), cfg, logger)
	if err != nil {
		for _, line := range splitErrors(err) {
			fmt.Fprintln(stdout, line)
		}

		return 2
	}

	logger.Debug("assembled", "symbols", symbols.Count(), "cells", len(image))

	out, err := os.Create(a.output)
	if err != nil {
		logger.Error("creating output", "file", a.output, "err", err)
		return 64
	}
	defer out.Close()

	var buf []byte

	if a.hexOut {
		enc := &encoding.CellEncoding{CharBit: a.charBit, Cells: image}

		buf, err = enc.MarshalText()
		if err != nil {
			logger.Error("encoding output", "err", err)
			return 64
		}
	} else {
		buf = make([]byte, len(image))
		for i, c := range image {
			buf[i] = byte(c)
		}
	}

	if _, err := out.Write(buf); err != nil {
		logger.Error("writing output", "file", a.output, "err", err)
		return 64
	}

	logger.Info("wrote image", "file", a.output, "cells", len(image))

	return 0
}

// splitErrors unwraps an errors.Join tree into one printable line per leaf
// error, so a single assembly run reports every syntax error it collected.
func splitErrors(err error) []string {
	type joined interface{ Unwrap() []error }

	if j, ok := err.(joined); ok {
		var lines []string
		for _, e := range j.Unwrap() {
			lines = append(lines, splitErrors(e)...)
		}

		return lines
	}

	return []string{err.Error()}
}
