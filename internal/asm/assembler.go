package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dextero/evilvm/internal/log"
	"github.com/dextero/evilvm/internal/vm"
)

// assembler.go drives the two-pass pipeline: tokenise lines, build the
// symbol table in pass one, emit cells in pass two.

// Config carries the widths the assembler needs to compute instruction
// lengths and pack operands; it mirrors vm.Config so the CLI can assemble
// against the same widths it will construct the Machine with.
type Config struct {
	CharBit  int
	WordSize int
	AddrSize int
}

type stmtKind int

const (
	stmtNone stmtKind = iota
	stmtInstr
	stmtAssign
	stmtDB
	stmtDA
)

type statement struct {
	kind     stmtKind
	mnemonic string
	suffix   string
	operands []string // raw operand text, for instructions and `da`
	values   []string // raw literal text, for `db`
	name     string   // for NAME = expr
	expr     string
}

type sourceLine struct {
	num   int
	text  string
	label string
	stmt  *statement
}

// Assembler holds the state threaded between pass one and pass two.
type Assembler struct {
	file    string
	cfg     Config
	symbols SymbolTable
	lines   []sourceLine
	lengths []int // encoded length of each line's statement, parallel to lines
	log     *log.Logger
}

// New creates an Assembler for the given configuration.
func New(cfg Config, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	return &Assembler{
		cfg:     cfg,
		symbols: SymbolTable{},
		log:     logger,
	}
}

// Assemble tokenises source, runs both passes, and returns the program
// image as a cell slice ready for vm.Machine.Load.
func Assemble(file, source string, cfg Config, logger *log.Logger) ([]vm.Cell, SymbolTable, error) {
	a := New(cfg, logger)
	a.file = file

	if err := a.parseLines(source); err != nil {
		return nil, nil, err
	}

	if err := a.pass1(); err != nil {
		return nil, nil, err
	}

	image, err := a.pass2()
	if err != nil {
		return nil, nil, err
	}

	return image, a.symbols, nil
}

func (a *Assembler) parseLines(source string) error {
	var errs []error

	for num, raw := range strings.Split(source, "\n") {
		line, err := parseLine(raw)
		if err != nil {
			errs = append(errs, &SyntaxError{File: a.file, Line: num + 1, Text: raw, Err: err})
			continue
		}

		line.num = num + 1
		line.text = raw
		a.lines = append(a.lines, line)
	}

	return joinErrors(errs)
}

// parseLine splits one line into an optional label, an optional statement,
// and discards comments.
func parseLine(raw string) (sourceLine, error) {
	line := stripComment(raw)
	line = strings.TrimSpace(line)

	if line == "" {
		return sourceLine{}, nil
	}

	var label string

	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		candidate := strings.TrimSpace(line[:idx])
		if candidate != "" && isIdent(candidate) {
			label = candidate
			line = strings.TrimSpace(line[idx+1:])
		}
	}

	if line == "" {
		return sourceLine{label: label}, nil
	}

	stmt, err := parseStatement(line)
	if err != nil {
		return sourceLine{}, err
	}

	return sourceLine{label: label, stmt: stmt}, nil
}

func stripComment(s string) string {
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		return s[:idx]
	}

	return s
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}

	return true
}

func parseStatement(line string) (*statement, error) {
	if idx := strings.IndexByte(line, '='); idx >= 0 {
		name := strings.TrimSpace(line[:idx])
		if isIdent(name) {
			return &statement{kind: stmtAssign, name: name, expr: strings.TrimSpace(line[idx+1:])}, nil
		}
	}

	fields := strings.SplitN(line, " ", 2)
	head := fields[0]

	rest := ""
	if len(fields) == 2 {
		rest = strings.TrimSpace(fields[1])
	}

	var operandsText []string
	if rest != "" {
		operandsText = splitOperands(rest)
	}

	if head == "db" {
		return &statement{kind: stmtDB, values: operandsText}, nil
	}

	if head == "da" {
		return &statement{kind: stmtDA, operands: operandsText}, nil
	}

	mnemonic, suffix := splitMnemonic(head)

	return &statement{kind: stmtInstr, mnemonic: mnemonic, suffix: suffix, operands: operandsText}, nil
}

// splitMnemonic splits "mov.b.i2r" into ("mov", "b.i2r").
func splitMnemonic(head string) (string, string) {
	idx := strings.IndexByte(head, '.')
	if idx < 0 {
		return head, ""
	}

	return head[:idx], head[idx+1:]
}

// splitOperands splits a comma-separated operand list, respecting
// parentheses so `sizeof(a, b)`-shaped sub-expressions are not split (in
// practice sizeof takes one argument, but nested expressions may still use
// commas inside function-like syntax in the future).
func splitOperands(s string) []string {
	var out []string

	depth := 0
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	out = append(out, strings.TrimSpace(s[start:]))

	return out
}

// pass1 assigns every label its byte offset and checks NAME = expr bindings,
// computing each instruction's encoded length.
func (a *Assembler) pass1() error {
	var errs []error

	loc := vm.Addr(0)
	a.lengths = make([]int, len(a.lines))

	for i, line := range a.lines {
		if line.label != "" {
			if err := a.symbols.Add(line.label, loc); err != nil {
				errs = append(errs, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err})
			}
		}

		if line.stmt == nil {
			continue
		}

		switch line.stmt.kind {
		case stmtAssign:
			v, err := evalExpr(line.stmt.expr, &exprEnv{symbols: a.symbols, wordSize: a.cfg.WordSize, addrSize: a.cfg.AddrSize})
			if err != nil {
				errs = append(errs, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err})
				continue
			}

			if err := a.symbols.Add(line.stmt.name, vm.Addr(v)); err != nil {
				errs = append(errs, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err})
			}
		case stmtDB:
			a.lengths[i] = len(line.stmt.values)
			loc += vm.Addr(a.lengths[i])
		case stmtDA:
			a.lengths[i] = len(line.stmt.operands) * a.cfg.AddrSize
			loc += vm.Addr(a.lengths[i])
		case stmtInstr:
			def, err := a.resolve(line.stmt)
			if err != nil {
				errs = append(errs, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err})
				continue
			}

			a.lengths[i] = def.EncodedLen(a.cfg.WordSize, a.cfg.AddrSize)
			loc += vm.Addr(a.lengths[i])
		}
	}

	return joinErrors(errs)
}

// resolve picks the unique InstrDef matching a statement's mnemonic, suffix,
// and operand syntax.
func (a *Assembler) resolve(stmt *statement) (*vm.InstrDef, error) {
	candidates := vm.Lookup(stmt.mnemonic, stmt.suffix)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: unknown instruction %q", ErrSyntax, stmt.mnemonic)
	}

	var matches []*vm.InstrDef

	for _, def := range candidates {
		if len(def.Classes) != len(stmt.operands) {
			continue
		}

		ok := true

		for i, class := range def.Classes {
			if class == vm.OperandReg && !isRegisterName(strings.TrimSpace(stmt.operands[i])) {
				ok = false
				break
			}
		}

		if ok {
			matches = append(matches, def)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no form of %q matches operands %v", ErrSyntax, stmt.mnemonic, stmt.operands)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguous, stmt.mnemonic)
	}
}

// pass2 emits the program image.
func (a *Assembler) pass2() ([]vm.Cell, error) {
	var (
		image []vm.Cell
		errs  []error
		loc   vm.Addr
	)

	for i, line := range a.lines {
		if line.stmt == nil {
			continue
		}

		env := &exprEnv{symbols: a.symbols, wordSize: a.cfg.WordSize, addrSize: a.cfg.AddrSize}

		switch line.stmt.kind {
		case stmtAssign:
			// Already bound in pass 1; nothing to emit.
		case stmtDB:
			for _, lit := range line.stmt.values {
				v, err := evalExpr(lit, env)
				if err != nil {
					errs = append(errs, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err})
					continue
				}

				image = append(image, vm.Cell(v))
			}

			loc += vm.Addr(a.lengths[i])
		case stmtDA:
			for _, operand := range line.stmt.operands {
				v, err := evalExpr(operand, env)
				if err != nil {
					errs = append(errs, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err})
					continue
				}

				image = append(image, vm.Pack(v, a.cfg.AddrSize, a.cfg.CharBit, true)...)
			}

			loc += vm.Addr(a.lengths[i])
		case stmtInstr:
			cells, err := a.emitInstr(line, loc, env)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			image = append(image, cells...)
			loc += vm.Addr(a.lengths[i])
		}
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}

	return image, nil
}

func (a *Assembler) emitInstr(line sourceLine, loc vm.Addr, env *exprEnv) ([]vm.Cell, error) {
	def, err := a.resolve(line.stmt)
	if err != nil {
		return nil, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err}
	}

	littleEndian := def.Opcode%2 == 0
	cells := []vm.Cell{vm.Cell(def.Opcode)}

	operandLoc := loc + 1

	for i, class := range def.Classes {
		raw := strings.TrimSpace(line.stmt.operands[i])
		n := class.CellCount(a.cfg.WordSize, a.cfg.AddrSize)

		var v uint64

		switch {
		case class == vm.OperandReg:
			v = uint64(vm.RegisterNamed(raw))
		case strings.HasSuffix(line.stmt.suffix, "rel") && class == vm.OperandImmAddr:
			v, err = a.symbols.Offset(raw, operandLoc, a.cfg.AddrSize, a.cfg.CharBit)
		default:
			v, err = evalExpr(raw, env)
		}

		if err != nil {
			return nil, &SyntaxError{File: a.file, Line: line.num, Text: line.text, Err: err}
		}

		if class != vm.OperandReg {
			if !fitsWidth(v, n*a.cfg.CharBit) {
				return nil, &SyntaxError{File: a.file, Line: line.num, Text: line.text,
					Err: fmt.Errorf("%w: %s", ErrOutOfRange, raw)}
			}
		}

		cells = append(cells, vm.Pack(v, n, a.cfg.CharBit, littleEndian)...)
		operandLoc += vm.Addr(n)
	}

	return cells, nil
}

// fitsWidth reports whether v, taken either as an unsigned value in
// [0, 2^bits) or as a sign-extended negative value, fits in `bits` bits.
// Literal immediates and negated constant expressions are both legal here;
// only a value that fits neither interpretation is rejected.
func fitsWidth(v uint64, bits int) bool {
	if bits >= 64 {
		return true
	}

	mask := maskOf(bits)
	if v&^mask == 0 {
		return true
	}

	signBit := int64(1) << uint(bits-1)
	sv := int64(v)

	return sv >= -signBit && sv < signBit
}

func maskOf(bits int) uint64 {
	if bits <= 0 {
		return 0
	}

	if bits >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(bits)) - 1
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return errors.Join(errs...)
}
