// Package vm provides the parametric Evil VM: a configurable-width CPU,
// its three address spaces, and the instruction set and decoder that drive
// the fetch-decode-execute loop.
package vm

import (
	"context"
	"fmt"

	"github.com/dextero/evilvm/internal/log"
)

// cpu.go implements the CPU loop: decode, execute, check for halt or fault,
// repeat.

// Halted reports whether the machine has executed `halt`.
func (m *Machine) Halted() bool { return m.halted }

// Run drives the fetch-decode-execute loop until halt, fault, or context
// cancellation. It returns nil on a clean halt.
func (m *Machine) Run(ctx context.Context) error {
	m.log.Info("machine started", log.Int("ip", int(m.Regs.Get(RegIP))))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.Step(); err != nil {
			m.log.Error("machine faulted", log.String("error", err.Error()))
			return err
		}

		if m.halted {
			m.log.Info("machine halted", log.Int("ip", int(m.Regs.Get(RegIP))))
			return nil
		}
	}
}

// Step executes exactly one instruction: decode, then execute. Errors are
// wrapped in a *FaultError naming the IP at fault.
func (m *Machine) Step() error {
	ip := Addr(m.Regs.Get(RegIP))

	def, ops, err := m.decode()
	if err != nil {
		return fault(ip, err)
	}

	for _, op := range ops {
		if op.Class == OperandReg && op.Reg >= NumRegisters {
			return fault(ip, fmt.Errorf("%w: invalid register id %d", ErrUnknownOpcode, op.Reg))
		}
	}

	m.log.Debug("step",
		log.String("instr", Disassemble(m, def, ops)),
		log.Int("opcode", int(def.Opcode)))

	if err := def.Act(m, ops); err != nil {
		return fault(ip, err)
	}

	return nil
}

func (m *Machine) String() string {
	return fmt.Sprintf("IP:%s SP:%s A:%s C:%s F:%s",
		Addr(m.Regs.Get(RegIP)), Addr(m.Regs.Get(RegSP)),
		Word(m.Regs.Get(RegA)), Word(m.Regs.Get(RegC)), m.Regs.Flags())
}
