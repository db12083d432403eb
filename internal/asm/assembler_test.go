package asm_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dextero/evilvm/internal/asm"
	"github.com/dextero/evilvm/internal/vm"
)

func defaultConfig() asm.Config {
	return asm.Config{CharBit: 9, WordSize: 7, AddrSize: 5}
}

// TestAssembleAndRunHello assembles a minimal program and runs it against a
// real Machine, exercising the full pipeline from source text to observed
// output (scenario S1).
func TestAssembleAndRunHello(t *testing.T) {
	source := `
		mov.b.i2r a, 'H'
		out
		mov.b.i2r a, 'i'
		out
		mov.b.i2r a, 0x0a
		out
		halt
	`

	cfg := defaultConfig()

	image, symbols, err := asm.Assemble("hello.asm", source, cfg, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if symbols.Count() != 0 {
		t.Errorf("expected no symbols, got %d", symbols.Count())
	}

	var out bytes.Buffer

	machine, err := vm.New(
		vm.WithCharBit(cfg.CharBit),
		vm.WithWordSize(cfg.WordSize),
		vm.WithAddrSize(cfg.AddrSize),
		vm.WithProgramSize(len(image)),
		vm.WithOut(&out),
	)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}

	if err := machine.Load(image); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := machine.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := out.String(); got != "Hi\n" {
		t.Errorf("output: got %q, want %q", got, "Hi\n")
	}
}

// TestAssembleLabelsAndLoop assembles a program with a label and a relative
// jump back to it and confirms the label is bound in the symbol table.
func TestAssembleLabelsAndLoop(t *testing.T) {
	source := `
	start:
		mov.b.i2r a, 1
		jmp.rel start
	`

	_, symbols, err := asm.Assemble("loop.asm", source, defaultConfig(), nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if _, err := symbols.Resolve("start"); err != nil {
		t.Errorf("expected symbol \"start\" to resolve: %v", err)
	}
}

// TestAssembleUndefinedSymbol confirms scenario S6: a jump to an undefined
// label fails with a message naming the symbol and the source line.
func TestAssembleUndefinedSymbol(t *testing.T) {
	source := "\tjmp.rel does_not_exist\n"

	_, _, err := asm.Assemble("bad.asm", source, defaultConfig(), nil)
	if err == nil {
		t.Fatal("expected an error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "does_not_exist") {
		t.Errorf("error %q does not name the undefined symbol", msg)
	}

	if !strings.Contains(msg, "bad.asm:1") {
		t.Errorf("error %q does not name the source line", msg)
	}
}

// TestAssembleRedefinedSymbol confirms a duplicate label is rejected.
func TestAssembleRedefinedSymbol(t *testing.T) {
	source := `
	here:
		halt
	here:
		halt
	`

	_, _, err := asm.Assemble("dup.asm", source, defaultConfig(), nil)
	if err == nil {
		t.Fatal("expected a redefined-symbol error")
	}
}

// TestAssembleDB confirms db emits literal cells in source order.
func TestAssembleDB(t *testing.T) {
	source := "\tdb 1, 2, 3\n"

	image, _, err := asm.Assemble("data.asm", source, defaultConfig(), nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := []vm.Cell{1, 2, 3}

	if len(image) != len(want) {
		t.Fatalf("got %d cells, want %d", len(image), len(want))
	}

	for i := range want {
		if image[i] != want[i] {
			t.Errorf("cell %d: got %#x, want %#x", i, image[i], want[i])
		}
	}
}

// TestAssembleUnknownInstruction confirms an unknown
// mnemonic/suffix pair is rejected rather than silently assembling garbage.
func TestAssembleUnknownInstruction(t *testing.T) {
	source := "\tfrobnicate a, c\n"

	_, _, err := asm.Assemble("bad.asm", source, defaultConfig(), nil)
	if err == nil {
		t.Fatal("expected a syntax error for an unknown mnemonic")
	}
}
