package vm

import "fmt"

// isa.go implements the instruction set: a closed enumeration of (mnemonic,
// suffix, operand-class-tuple) triples, each assigned a stable opcode at
// build time and bound directly to its semantic action. There is no dynamic
// dispatch by name at run time: the table built here is indexed by opcode
// for the decoder (decode.go) and by mnemonic+suffix for the assembler
// (internal/asm).

// OperandClass is one of the four encoded operand shapes.
type OperandClass int

const (
	OperandReg     OperandClass = iota // register id: 1 cell
	OperandImmByte                     // immediate byte: 1 cell
	OperandImmWord                     // immediate word: word_size cells
	OperandImmAddr                     // immediate address / label: addr_size cells
)

// CellCount returns how many cells this operand class occupies in the
// encoded instruction stream, given the machine's configured widths.
func (c OperandClass) CellCount(wordSize, addrSize int) int {
	switch c {
	case OperandImmWord:
		return wordSize
	case OperandImmAddr:
		return addrSize
	default:
		return 1
	}
}

// Operand is one decoded instruction operand.
type Operand struct {
	Class OperandClass
	Reg   RegisterID
	Value uint64
}

// InstrDef is one opcode table entry: a unique opcode bound to its operand
// shape and semantic action.
type InstrDef struct {
	Opcode   byte
	Mnemonic string
	Suffix   string // e.g. "", "b", "w", "b.i2r", "w.r2m", "b.r", "w.i", "abs", "rel"
	Classes  []OperandClass
	Act      Action
}

// EncodedLen returns the total cell count of opcode + operands.
func (d *InstrDef) EncodedLen(wordSize, addrSize int) int {
	n := 1
	for _, c := range d.Classes {
		n += c.CellCount(wordSize, addrSize)
	}

	return n
}

// Key identifies one (mnemonic, suffix) group for assembler lookup.
func (d *InstrDef) Key() string {
	if d.Suffix == "" {
		return d.Mnemonic
	}

	return d.Mnemonic + "." + d.Suffix
}

var (
	// byOpcode indexes the table for the decoder: O(1) lookup by opcode byte.
	byOpcode [256]*InstrDef

	// byKey indexes candidate defs for the assembler's overload resolution:
	// several operand-class tuples may share a (mnemonic, suffix) key, and
	// the assembler disambiguates by the operand forms actually written.
	byKey = map[string][]*InstrDef{}

	// isaTable is the full set, opcode order, built once at package init.
	isaTable []*InstrDef
)

func init() {
	isaTable = buildISA()

	for _, d := range isaTable {
		byOpcode[d.Opcode] = d
		byKey[d.Key()] = append(byKey[d.Key()], d)
	}
}

// Lookup returns every InstrDef sharing a (mnemonic, suffix) key, for the
// assembler to disambiguate by operand count/class.
func Lookup(mnemonic, suffix string) []*InstrDef {
	key := mnemonic
	if suffix != "" {
		key = mnemonic + "." + suffix
	}

	return byKey[key]
}

// ByOpcode returns the InstrDef for an opcode, or nil if it is unassigned.
func ByOpcode(op byte) *InstrDef { return byOpcode[op] }

// opcodeCounter assigns sequential, stable opcodes as the table is built.
// The order below is fixed at compile time, so opcode numbers never change
// between runs -- required by invariant 5 (symbol/label offsets) and by S2's
// assumption that parity can be reassigned by swapping specific entries.
type opcodeCounter struct{ next int }

func (c *opcodeCounter) take() byte {
	op := byte(c.next)
	c.next++

	return op
}

func buildISA() []*InstrDef {
	var table []*InstrDef

	counter := &opcodeCounter{}

	add := func(mnemonic, suffix string, classes []OperandClass, act Action) {
		table = append(table, &InstrDef{
			Opcode:   counter.take(),
			Mnemonic: mnemonic,
			Suffix:   suffix,
			Classes:  classes,
			Act:      act,
		})
	}

	reg := OperandReg
	widths := []struct {
		suffix string
		width  Width
	}{{"b", WidthByte}, {"w", WidthWord}}

	// Data movement: mov in all four addressing-mode directions, both
	// widths.
	for _, w := range widths {
		add("mov", w.suffix+".i2r", []OperandClass{reg, immOf(w.width)}, movAction(w.width, "i2r"))
		add("mov", w.suffix+".r2r", []OperandClass{reg, reg}, movAction(w.width, "r2r"))
		add("mov", w.suffix+".m2r", []OperandClass{reg, OperandImmAddr}, movAction(w.width, "m2r"))
		add("mov", w.suffix+".r2m", []OperandClass{OperandImmAddr, reg}, movAction(w.width, "r2m"))
	}

	// ld/st/lpb: register-indirect RAM and program access.
	add("ldb", "", []OperandClass{reg, reg}, ldAction(WidthByte))
	add("ldw", "", []OperandClass{reg, reg}, ldAction(WidthWord))
	add("lda", "", []OperandClass{reg, reg}, ldAction(WidthAddr))
	add("stb", "", []OperandClass{reg, reg}, stAction(WidthByte))
	add("stw", "", []OperandClass{reg, reg}, stAction(WidthWord))
	add("sta", "", []OperandClass{reg, reg}, stAction(WidthAddr))
	add("lpb", "", []OperandClass{reg, reg}, lpbAction())

	// Arithmetic/logic: reg,reg and reg,imm forms, both widths.
	aluOps := []struct {
		name string
		op   aluOp
	}{
		{"add", aluAdd}, {"sub", aluSub}, {"mul", aluMul}, {"div", aluDiv},
		{"mod", aluMod}, {"and", aluAnd}, {"or", aluOr}, {"xor", aluXor},
	}

	for _, a := range aluOps {
		for _, w := range widths {
			add(a.name, w.suffix+".r", []OperandClass{reg, reg}, aluAction(a.op, w.width))
			add(a.name, w.suffix+".i", []OperandClass{reg, immOf(w.width)}, aluAction(a.op, w.width))
		}
	}

	for _, w := range widths {
		add("not", w.suffix, []OperandClass{reg}, unaryAction(false, w.width))
		add("neg", w.suffix, []OperandClass{reg}, unaryAction(true, w.width))
		add("shl", w.suffix, []OperandClass{reg, OperandImmByte}, shiftAction(true, w.width))
		add("shr", w.suffix, []OperandClass{reg, OperandImmByte}, shiftAction(false, w.width))
		add("cmp", w.suffix+".r", []OperandClass{reg, reg}, cmpAction(w.width))
		add("cmp", w.suffix+".i", []OperandClass{reg, immOf(w.width)}, cmpAction(w.width))
	}

	// Control flow: each condition gets an absolute and a .rel form.
	conds := []struct {
		name string
		cond func(Flag) bool
	}{
		{"jmp", nil},
		{"je", func(f Flag) bool { return f&FlagZero != 0 }},
		{"jne", func(f Flag) bool { return f&FlagZero == 0 }},
		{"jb", func(f Flag) bool { return f&FlagCarry != 0 }},
		{"jbe", func(f Flag) bool { return f&FlagCarry != 0 || f&FlagZero != 0 }},
		{"ja", func(f Flag) bool { return f&FlagCarry == 0 && f&FlagZero == 0 }},
		{"jae", func(f Flag) bool { return f&FlagCarry == 0 }},
		{"jl", func(f Flag) bool { return (f&FlagSign != 0) != (f&FlagOverflow != 0) }},
		{"jle", func(f Flag) bool {
			return f&FlagZero != 0 || (f&FlagSign != 0) != (f&FlagOverflow != 0)
		}},
		{"jg", func(f Flag) bool {
			return f&FlagZero == 0 && (f&FlagSign != 0) == (f&FlagOverflow != 0)
		}},
		{"jge", func(f Flag) bool { return (f&FlagSign != 0) == (f&FlagOverflow != 0) }},
	}

	for _, c := range conds {
		add(c.name, "abs", []OperandClass{OperandImmAddr}, jumpAction(c.cond, false))
		add(c.name, "rel", []OperandClass{OperandImmAddr}, jumpAction(c.cond, true))
	}

	add("call", "abs", []OperandClass{OperandImmAddr}, callAction(false))
	add("call", "rel", []OperandClass{OperandImmAddr}, callAction(true))
	add("ret", "", nil, retAction())
	add("loop", "abs", []OperandClass{OperandImmAddr}, loopAction(false))
	add("loop", "rel", []OperandClass{OperandImmAddr}, loopAction(true))

	// Stack.
	add("push", "", []OperandClass{reg}, pushAction())
	add("pop", "", []OperandClass{reg}, popAction())

	// I/O and terminal.
	add("in", "", nil, inAction())
	add("out", "", nil, outAction())
	add("seek", "", []OperandClass{reg, reg}, seekAction())

	// Halt.
	add("halt", "", nil, haltAction())

	return table
}

func immOf(w Width) OperandClass {
	if w == WidthByte {
		return OperandImmByte
	}

	return OperandImmWord
}

// Disassemble renders a decoded instruction as assembler-like text, for
// Step's per-instruction debug log.
func Disassemble(m *Machine, d *InstrDef, ops []Operand) string {
	s := d.Key()

	for i, op := range ops {
		if i == 0 {
			s += " "
		} else {
			s += ", "
		}

		switch op.Class {
		case OperandReg:
			s += op.Reg.String()
		default:
			s += fmt.Sprintf("%#x", op.Value)
		}
	}

	return s
}
