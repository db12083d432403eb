package vm

import (
	"errors"
	"testing"
)

func TestMemoryMapDefaultIsolation(t *testing.T) {
	t.Parallel()

	mm, err := NewMemoryMap(map[string]int{SpaceRAM: 8, SpaceProgram: 8, SpaceStack: 8}, 8, nil)
	if err != nil {
		t.Fatalf("NewMemoryMap: %v", err)
	}

	if mm.Aliased(SpaceRAM, SpaceProgram) {
		t.Errorf("ram and program should not be aliased by default")
	}
}

func TestMemoryMapAliasingAndReadOnlyTravelsWithName(t *testing.T) {
	t.Parallel()

	mm, err := NewMemoryMap(map[string]int{SpaceRAM: 8, SpaceProgram: 8, SpaceStack: 8}, 8,
		[]Alias{{A: SpaceRAM, B: SpaceProgram}})
	if err != nil {
		t.Fatalf("NewMemoryMap: %v", err)
	}

	if !mm.Aliased(SpaceRAM, SpaceProgram) {
		t.Fatalf("ram and program should be aliased")
	}

	mm.LockProgram()

	ram, err := mm.Resolve(SpaceRAM)
	if err != nil {
		t.Fatalf("resolve ram: %v", err)
	}

	program, err := mm.Resolve(SpaceProgram)
	if err != nil {
		t.Fatalf("resolve program: %v", err)
	}

	// Writing through "program" is rejected even though the array is shared.
	if err := program.StoreCell(0, 42); !errors.Is(err, ErrReadOnly) {
		t.Errorf("program write: got %v, want ErrReadOnly", err)
	}

	// The same write through "ram" succeeds, and is visible through "program".
	if err := ram.StoreCell(0, 42); err != nil {
		t.Fatalf("ram write: %v", err)
	}

	got, err := program.LoadCell(0)
	if err != nil {
		t.Fatalf("program read: %v", err)
	}

	if got != 42 {
		t.Errorf("got %s, want 42 (write through alias should be visible)", got)
	}
}

func TestMemoryMapAliasedSizeIsLarger(t *testing.T) {
	t.Parallel()

	mm, err := NewMemoryMap(map[string]int{SpaceRAM: 4, SpaceProgram: 16, SpaceStack: 8}, 8,
		[]Alias{{A: SpaceRAM, B: SpaceProgram}})
	if err != nil {
		t.Fatalf("NewMemoryMap: %v", err)
	}

	ram, err := mm.Resolve(SpaceRAM)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if ram.Size() != 16 {
		t.Errorf("got size %d, want 16 (larger of the two requested sizes)", ram.Size())
	}
}
