package vm

// loader.go loads an assembled program image into program space and locks
// it read-only: the program is marked read-only after load, and offset 0 is
// the entry point, with execution beginning at IP = 0.

// Load writes image into program space starting at offset 0, locks the
// program space against further writes, and resets IP to 0.
func (m *Machine) Load(image []Cell) error {
	if err := m.program.StoreBytes(0, image); err != nil {
		return err
	}

	m.MM.LockProgram()
	m.Regs.Set(RegIP, WidthAddr, 0)

	return nil
}
