package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/dextero/evilvm/internal/log"
)

// config.go implements the VM's construction: a functional-options
// constructor, vm.New(opts ...OptionFn), that applies every option twice —
// once early, to fix configuration and allocate the address spaces, and
// once late, after the memory map is frozen, to wire I/O collaborators.

// Config holds the construction-time parameters exposed on the CLI.
type Config struct {
	CharBit   int
	WordSize  int
	AddrSize  int
	RAMSize   int
	StackSize int
	Aliases   []Alias
}

// DefaultConfig matches the CLI's default flag values.
func DefaultConfig() Config {
	return Config{
		CharBit:   9,
		WordSize:  7,
		AddrSize:  5,
		RAMSize:   1024,
		StackSize: 256,
	}
}

func (c Config) validate() error {
	if c.CharBit < 1 || c.CharBit > 64 {
		return fmt.Errorf("char_bit must be in [1,64], got %d", c.CharBit)
	}

	if c.WordSize < 1 {
		return fmt.Errorf("word_size must be >= 1, got %d", c.WordSize)
	}

	if c.AddrSize < 1 {
		return fmt.Errorf("addr_size must be >= 1, got %d", c.AddrSize)
	}

	if c.WordSize*c.CharBit > 64 {
		return fmt.Errorf("word_size*char_bit = %d exceeds the 64-bit implementation limit",
			c.WordSize*c.CharBit)
	}

	if c.AddrSize*c.CharBit > 64 {
		return fmt.Errorf("addr_size*char_bit = %d exceeds the 64-bit implementation limit",
			c.AddrSize*c.CharBit)
	}

	return nil
}

// Machine is the virtual machine: registers, the three address spaces (via
// their memory map), the I/O channel, and the CPU loop's own bookkeeping.
type Machine struct {
	CharBit, WordSize, AddrSize int
	ProgramSize                 int

	Regs *RegisterFile
	MM   *MemoryMap
	IO   *IOChannel
	TTY  CursorSeeker

	halted bool
	log    *log.Logger

	ram     *View
	program *View
	stack   *View
}

// OptionFn configures a Machine. Every OptionFn is called twice: once with
// late == false, before the memory map and registers exist
// (for configuration-shaping options), and once with late == true, after
// everything is wired (for device/collaborator options). Most options only
// act on one of the two passes and check `late` themselves.
type OptionFn func(cfg *buildState, late bool)

// buildState accumulates configuration across the early pass before New
// allocates the Machine.
type buildState struct {
	cfg     Config
	logger             *log.Logger
	in                 io.Reader
	out                io.Writer
	tty                CursorSeeker
	machine            *Machine
	machineProgramSize int
}

// WithCharBit sets the cell width in bits.
func WithCharBit(n int) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.cfg.CharBit = n
		}
	}
}

// WithWordSize sets the word width in cells.
func WithWordSize(n int) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.cfg.WordSize = n
		}
	}
}

// WithAddrSize sets the address width in cells.
func WithAddrSize(n int) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.cfg.AddrSize = n
		}
	}
}

// WithRAMSize sets the RAM space size in cells.
func WithRAMSize(n int) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.cfg.RAMSize = n
		}
	}
}

// WithStackSize sets the call-stack space size in cells.
func WithStackSize(n int) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.cfg.StackSize = n
		}
	}
}

// WithProgramSize sets the program space size in cells. The CLI assembles
// the source first to learn the image length, then passes it here before
// constructing the Machine that will load it.
func WithProgramSize(n int) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.machineProgramSize = n
		}
	}
}

// WithMemoryMap requests aliasing between logical spaces, e.g.
// vm.WithMemoryMap(vm.Alias{A: "ram", B: "program"}) for --map-memory
// ram=program.
func WithMemoryMap(aliases ...Alias) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.cfg.Aliases = append(s.cfg.Aliases, aliases...)
		}
	}
}

// WithLogger installs a logger used for lifecycle and fault messages.
func WithLogger(l *log.Logger) OptionFn {
	return func(s *buildState, late bool) {
		if !late {
			s.logger = l
		}
	}
}

// WithIn sets the input byte stream behind the `in` instruction. Defaults to
// os.Stdin.
func WithIn(r io.Reader) OptionFn {
	return func(s *buildState, late bool) {
		if late {
			s.in = r
		}
	}
}

// WithOut sets the output byte stream behind the `out` instruction. Defaults
// to os.Stdout.
func WithOut(w io.Writer) OptionFn {
	return func(s *buildState, late bool) {
		if late {
			s.out = w
		}
	}
}

// WithCursorSeeker installs the terminal collaborator behind `seek`. When
// absent, seek is a no-op (suitable for batch runs with no attached
// terminal).
func WithCursorSeeker(c CursorSeeker) OptionFn {
	return func(s *buildState, late bool) {
		if late {
			s.tty = c
		}
	}
}

// New builds a Machine. Options run in two passes as OptionFn describes.
func New(opts ...OptionFn) (*Machine, error) {
	state := &buildState{cfg: DefaultConfig()}

	for _, fn := range opts {
		fn(state, false)
	}

	if err := state.cfg.validate(); err != nil {
		return nil, err
	}

	logger := state.logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	sizes := map[string]int{
		SpaceRAM:     state.cfg.RAMSize,
		SpaceProgram: state.machineProgramSize,
		SpaceStack:   state.cfg.StackSize,
	}

	mm, err := NewMemoryMap(sizes, state.cfg.CharBit, state.cfg.Aliases)
	if err != nil {
		return nil, err
	}

	ram, err := mm.Resolve(SpaceRAM)
	if err != nil {
		return nil, err
	}

	program, err := mm.Resolve(SpaceProgram)
	if err != nil {
		return nil, err
	}

	stack, err := mm.Resolve(SpaceStack)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		CharBit:     state.cfg.CharBit,
		WordSize:    state.cfg.WordSize,
		AddrSize:    state.cfg.AddrSize,
		ProgramSize: state.machineProgramSize,
		Regs:        NewRegisterFile(state.cfg.CharBit, state.cfg.WordSize, state.cfg.AddrSize),
		MM:          mm,
		ram:         ram,
		program:     program,
		stack:       stack,
		log:         logger,
	}

	state.machine = m

	logger.Info("machine configured",
		log.Int("char_bit", state.cfg.CharBit),
		log.Int("word_size", state.cfg.WordSize),
		log.Int("addr_size", state.cfg.AddrSize))

	for _, fn := range opts {
		fn(state, true)
	}

	in := state.in
	if in == nil {
		in = os.Stdin
	}

	out := state.out
	if out == nil {
		out = os.Stdout
	}

	m.IO = NewIOChannel(in, out)

	m.TTY = state.tty
	if m.TTY == nil {
		m.TTY = noopSeeker{}
	}

	return m, nil
}
