package main_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/dextero/evilvm/internal/image"
	"github.com/dextero/evilvm/internal/log"
	"github.com/dextero/evilvm/internal/vm"
)

// TestHelloProgram assembles and runs the Hello sample end to end, the same
// path the "asm" and "run" commands exercise, confirming scenario S1: stdout
// equals exactly "Hi\n".
func TestHelloProgram(tt *testing.T) {
	logger := log.NewFormattedLogger(io.Discard)
	log.LogLevel.Set(log.Error)

	cfg := vm.DefaultConfig()

	code, _, err := image.Assemble("hello", image.Hello, cfg, logger)
	if err != nil {
		tt.Fatalf("assembling hello: %v", err)
	}

	var out bytes.Buffer

	machine, err := vm.New(
		vm.WithLogger(logger),
		vm.WithCharBit(cfg.CharBit),
		vm.WithWordSize(cfg.WordSize),
		vm.WithAddrSize(cfg.AddrSize),
		vm.WithRAMSize(cfg.RAMSize),
		vm.WithStackSize(cfg.StackSize),
		vm.WithProgramSize(len(code)),
		vm.WithOut(&out),
	)
	if err != nil {
		tt.Fatalf("configuring machine: %v", err)
	}

	if err := machine.Load(code); err != nil {
		tt.Fatalf("loading program: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := machine.Run(ctx); err != nil {
		tt.Fatalf("running program: %v", err)
	}

	if got := out.String(); got != "Hi\n" {
		tt.Errorf("output: got %q, want %q", got, "Hi\n")
	}
}
