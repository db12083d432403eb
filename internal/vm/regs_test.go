package vm

import "testing"

func TestRegisterFileByteWritePreservesHighBits(t *testing.T) {
	t.Parallel()

	rf := NewRegisterFile(8, 2, 2)

	rf.Set(RegA, WidthWord, 0xbeef)
	rf.Set(RegA, WidthByte, 0x11)

	if got := rf.Get(RegA); got != 0xbe11 {
		t.Errorf("got %#x, want %#x", got, 0xbe11)
	}
}

func TestRegisterFileFlags(t *testing.T) {
	t.Parallel()

	rf := NewRegisterFile(8, 2, 2)

	rf.SetFlag(FlagZero, true)
	rf.SetFlag(FlagCarry, true)

	if f := rf.Flags(); f&FlagZero == 0 || f&FlagCarry == 0 {
		t.Errorf("flags: got %s, want Z and C set", f)
	}

	rf.SetFlag(FlagZero, false)

	if f := rf.Flags(); f&FlagZero != 0 {
		t.Errorf("Z should be cleared: got %s", f)
	}
}

func TestRegisterNamed(t *testing.T) {
	t.Parallel()

	cases := map[string]RegisterID{
		"a": RegA, "c": RegC, "f": RegF, "ip": RegIP, "sp": RegSP,
		"bogus": BadRegister,
	}

	for name, want := range cases {
		if got := RegisterNamed(name); got != want {
			t.Errorf("RegisterNamed(%q): got %s, want %s", name, got, want)
		}
	}
}
