package vm

import "testing"

// TestDecodeInverseOfEncode is invariant 2: decoding an instruction recovers
// exactly the operand values it was encoded with, for every entry in the
// closed opcode table.
func TestDecodeInverseOfEncode(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, 256)

	for _, def := range isaTable {
		values := make([]uint64, len(def.Classes))
		for i, class := range def.Classes {
			bits := class.CellCount(m.WordSize, m.AddrSize) * m.CharBit
			values[i] = maskFor(bits) &^ 1 // an arbitrary, width-appropriate value
		}

		var image []Cell
		image = emit(m, image, def, values...)

		if err := m.program.StoreBytes(0, image); err != nil {
			t.Fatalf("%s: store: %v", def.Key(), err)
		}

		m.Regs.Set(RegIP, WidthAddr, 0)

		gotDef, ops, err := m.decode()
		if err != nil {
			t.Fatalf("%s: decode: %v", def.Key(), err)
		}

		if gotDef != def {
			t.Fatalf("%s: decoded wrong def: %s", def.Key(), gotDef.Key())
		}

		for i, op := range ops {
			var got uint64
			if op.Class == OperandReg {
				got = uint64(op.Reg)
			} else {
				got = op.Value
			}

			if got != values[i] {
				t.Errorf("%s operand %d: got %#x, want %#x", def.Key(), i, got, values[i])
			}
		}
	}
}

// TestOpcodeParityEndianness is S2: the same operand value is encoded
// little-endian under an even opcode and big-endian under an odd one.
func TestOpcodeParityEndianness(t *testing.T) {
	t.Parallel()

	m := newTestMachine(t, 32)

	even := &InstrDef{Opcode: 0x10, Mnemonic: "test", Classes: []OperandClass{OperandImmWord}, Act: haltAction()}
	odd := &InstrDef{Opcode: 0x11, Mnemonic: "test", Classes: []OperandClass{OperandImmWord}, Act: haltAction()}

	const value = 0x0102

	runDecode := func(def *InstrDef) []Cell {
		var image []Cell
		image = emit(m, image, def, value)

		if err := m.program.StoreBytes(0, image); err != nil {
			t.Fatalf("store: %v", err)
		}

		return image
	}

	littleImage := runDecode(even)
	bigImage := runDecode(odd)

	if littleImage[1] != 0x02 || littleImage[2] != 0x01 {
		t.Errorf("even opcode: got %v, want little-endian [0x02 0x01]", littleImage[1:])
	}

	if bigImage[1] != 0x01 || bigImage[2] != 0x02 {
		t.Errorf("odd opcode: got %v, want big-endian [0x01 0x02]", bigImage[1:])
	}
}
