package vm

import "testing"

func TestNewRejectsOversizedWord(t *testing.T) {
	t.Parallel()

	_, err := New(WithCharBit(64), WithWordSize(2), WithAddrSize(1))
	if err == nil {
		t.Fatalf("expected an error for word_size*char_bit > 64")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	m, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m.CharBit != 9 || m.WordSize != 7 || m.AddrSize != 5 {
		t.Errorf("got char_bit=%d word_size=%d addr_size=%d, want 9/7/5",
			m.CharBit, m.WordSize, m.AddrSize)
	}

	if m.MM.Aliased(SpaceRAM, SpaceProgram) {
		t.Errorf("default map should not alias ram and program")
	}
}

func TestWithMemoryMapAliasesByDefaultDisjoint(t *testing.T) {
	t.Parallel()

	m, err := New(WithMemoryMap(Alias{A: SpaceStack, B: SpaceRAM}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !m.MM.Aliased(SpaceStack, SpaceRAM) {
		t.Errorf("stack and ram should be aliased")
	}
}
