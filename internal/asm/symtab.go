package asm

import (
	"strings"

	"github.com/dextero/evilvm/internal/vm"
)

// SymbolTable maps a label or NAME = expr binding to its byte offset within
// the program image.
type SymbolTable map[string]vm.Addr

// Count returns the number of symbols in the table.
func (s SymbolTable) Count() int { return len(s) }

// Add binds a symbol. Symbols are case-sensitive: Evil VM's register names
// and mnemonics are lower-case and collisions are unlikely.
func (s SymbolTable) Add(sym string, loc vm.Addr) error {
	sym = strings.TrimSpace(sym)
	if sym == "" {
		panic("empty symbol")
	}

	if _, ok := s[sym]; ok {
		return &SymbolError{Symbol: sym, Err: ErrRedefinedSymbol}
	}

	s[sym] = loc

	return nil
}

// Resolve looks up a symbol's value.
func (s SymbolTable) Resolve(sym string) (vm.Addr, error) {
	v, ok := s[sym]
	if !ok {
		return 0, &SymbolError{Symbol: sym, Err: ErrUndefinedSymbol}
	}

	return v, nil
}

// Offset computes the signed, address-width relative displacement from a
// .rel operand's position to sym: target - (address_of_operand + addr_size).
// It faults with ErrOutOfRange if the displacement does not fit in a signed
// addrSize*charBit-bit integer.
func (s SymbolTable) Offset(sym string, operandAddr vm.Addr, addrSize, charBit int) (uint64, error) {
	target, err := s.Resolve(sym)
	if err != nil {
		return 0, err
	}

	base := int64(operandAddr) + int64(addrSize)
	delta := int64(target) - base

	bits := uint(addrSize * charBit)
	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if delta < -limit || delta >= limit {
			return 0, &SyntaxError{Err: ErrOutOfRange, Text: sym}
		}
	}

	return uint64(delta) & ((uint64(1) << bits) - 1), nil
}
