package asm

import (
	"errors"
	"fmt"
)

// Sentinel errors for assembly failures. Assemble wraps each occurrence in a
// *SyntaxError carrying the file, line number, and source text, and joins
// every error encountered across the whole source via errors.Join so a
// single run reports every mistake, not just the first.
var (
	ErrSyntax            = errors.New("syntax error")
	ErrUndefinedSymbol   = errors.New("undefined symbol")
	ErrRedefinedSymbol   = errors.New("symbol redefined")
	ErrAmbiguous         = errors.New("ambiguous instruction")
	ErrOutOfRange        = errors.New("value out of range")
	ErrDivByZeroConstant = errors.New("division by zero in constant expression")
)

// SyntaxError wraps an assembly error with the source location where it was
// found.
type SyntaxError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	file := e.File
	if file == "" {
		file = "<input>"
	}

	return fmt.Sprintf("%s:%d: %s: %q", file, e.Line, e.Err, e.Text)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// SymbolError names an undefined or redefined symbol.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Symbol)
}

func (e *SymbolError) Unwrap() error { return e.Err }

func (e *SymbolError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
