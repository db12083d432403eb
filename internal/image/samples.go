// Package image holds sample Evil VM programs used by the demo command and
// by integration tests: small, known-good programs the CLI can load without
// requiring the user to write assembly first.
package image

import (
	"github.com/dextero/evilvm/internal/asm"
	"github.com/dextero/evilvm/internal/log"
	"github.com/dextero/evilvm/internal/vm"
)

// Hello prints "Hi\n" and halts. It exercises mov.b.i2r and out, the
// smallest possible observable program.
const Hello = `
	mov.b.i2r a, 'H'
	out
	mov.b.i2r a, 'i'
	out
	mov.b.i2r a, 0x0a
	out
	halt
`

// Countdown writes the digits '9' down to '1', then a newline, to the output
// stream using a loop and the counter register, exercising loop.rel and
// register-to-register add. loop decrements C before testing it, so the body
// never runs with C == 0 and no '0' is printed.
const Countdown = `
	mov.b.i2r c, 9
loop_top:
	mov.b.i2r a, '0'
	add.b.r a, c
	out
	loop.rel loop_top
	mov.b.i2r a, 0x0a
	out
	halt
`

// SeekDemo moves the cursor to a fixed row and column before printing,
// exercising the seek instruction and a wired CursorSeeker.
const SeekDemo = `
	mov.b.i2r a, 5
	mov.b.i2r c, 10
	seek a, c
	mov.b.i2r a, '*'
	out
	halt
`

// Assemble assembles one of the named constants above (or any source text)
// against cfg, returning the program image ready for Machine.Load.
func Assemble(name, source string, cfg vm.Config, logger *log.Logger) ([]vm.Cell, asm.SymbolTable, error) {
	acfg := asm.Config{CharBit: cfg.CharBit, WordSize: cfg.WordSize, AddrSize: cfg.AddrSize}
	return asm.Assemble(name, source, acfg, logger)
}
