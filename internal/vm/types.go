package vm

// types.go defines the base data types of the parametric CPU: cells, words and
// addresses. Their widths are not fixed Go types because the machine's byte
// width (char_bit), word width (word_size) and address width (addr_size) are
// chosen at construction time. Internally every one of them is carried in a
// uint64 and masked to its configured width; a configuration whose word or
// address occupies more than 64 bits is rejected by New (see config.go) so
// that arithmetic never needs more than a machine word to represent.

import "fmt"

// Cell is the atomic unit of storage: an unsigned integer with exactly
// char_bit bits. Only the low char_bit bits of a Cell are meaningful; the
// rest are always zero.
type Cell uint64

func (c Cell) String() string { return fmt.Sprintf("%#x", uint64(c)) }

// Word is a machine word: word_size cells wide. Arithmetic on registers is
// modulo 2^(word_size*char_bit).
type Word uint64

func (w Word) String() string { return fmt.Sprintf("%#x", uint64(w)) }

// Addr is an address: addr_size cells wide. Addresses index cells, not bits,
// in any of the three logical address spaces.
type Addr uint64

func (a Addr) String() string { return fmt.Sprintf("%#x", uint64(a)) }

// Width tags a register access or an arithmetic operation with the number of
// bits it operates over.
type Width uint8

const (
	WidthByte Width = iota // char_bit bits: the .b suffix.
	WidthWord              // word_size*char_bit bits: the .w suffix.
	WidthAddr              // addr_size*char_bit bits: IP, SP and address operands.
)

func (w Width) String() string {
	switch w {
	case WidthByte:
		return "byte"
	case WidthWord:
		return "word"
	case WidthAddr:
		return "addr"
	default:
		return "width?"
	}
}

// RegisterID names one of the five architectural registers.
type RegisterID uint8

const (
	RegA  RegisterID = iota // Accumulator, word-wide.
	RegC                    // Counter, word-wide.
	RegF                    // Flags, word-wide.
	RegIP                   // Instruction pointer, address-wide.
	RegSP                   // Return-stack pointer, address-wide.

	NumRegisters
	BadRegister RegisterID = 0xff
)

func (r RegisterID) String() string {
	switch r {
	case RegA:
		return "a"
	case RegC:
		return "c"
	case RegF:
		return "f"
	case RegIP:
		return "ip"
	case RegSP:
		return "sp"
	default:
		return "reg?"
	}
}

// RegisterNamed resolves a register mnemonic to its ID. Only the five
// registers named in the data model exist; BadRegister is returned for
// anything else.
func RegisterNamed(name string) RegisterID {
	switch name {
	case "a":
		return RegA
	case "c":
		return RegC
	case "f":
		return RegF
	case "ip":
		return RegIP
	case "sp":
		return RegSP
	default:
		return BadRegister
	}
}

// Flag is a single bit in the F register.
type Flag Word

// Flag bit positions. Positions are implementation-defined but fixed, as the
// data model requires.
const (
	FlagZero     Flag = 1 << 0 // Z: result was zero.
	FlagCarry    Flag = 1 << 1 // C: unsigned carry/borrow out of the operand width.
	FlagSign     Flag = 1 << 2 // S: top bit of the result was set.
	FlagOverflow Flag = 1 << 3 // O: signed overflow.
)

func (f Flag) String() string {
	return fmt.Sprintf("Z:%t C:%t S:%t O:%t", f&FlagZero != 0, f&FlagCarry != 0,
		f&FlagSign != 0, f&FlagOverflow != 0)
}
