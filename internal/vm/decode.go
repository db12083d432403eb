package vm

// decode.go implements the decoder/fetcher as a single step rather than a
// staged pipeline: read the opcode cell, look it up, read each operand's
// cells with endianness chosen by opcode parity, and advance IP past the
// whole encoded instruction before returning.

// decode reads one instruction starting at the current IP and advances IP
// past it. It does not execute anything.
func (m *Machine) decode() (*InstrDef, []Operand, error) {
	ip := Addr(m.Regs.Get(RegIP))

	opcodeCell, err := m.program.LoadCell(ip)
	if err != nil {
		return nil, nil, ErrOutOfBounds
	}

	opcode := byte(opcodeCell)

	def := ByOpcode(opcode)
	if def == nil {
		return nil, nil, ErrUnknownOpcode
	}

	littleEndian := opcode%2 == 0
	cursor := ip + 1

	ops := make([]Operand, len(def.Classes))

	for i, class := range def.Classes {
		n := class.CellCount(m.WordSize, m.AddrSize)

		cells, err := m.program.LoadBytes(cursor, n)
		if err != nil {
			return nil, nil, ErrOutOfBounds
		}

		switch class {
		case OperandReg:
			ops[i] = Operand{Class: class, Reg: RegisterID(cells[0])}
		default:
			v := Unpack(cells, m.CharBit, littleEndian)
			ops[i] = Operand{Class: class, Value: v}
		}

		cursor += Addr(n)
	}

	m.Regs.Set(RegIP, WidthAddr, uint64(cursor))

	return def, ops, nil
}
