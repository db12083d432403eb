package asm

import "testing"

func TestEvalExprLiterals(t *testing.T) {
	env := &exprEnv{symbols: SymbolTable{}, wordSize: 7, addrSize: 5}

	tests := []struct {
		name string
		expr string
		want uint64
	}{
		{"decimal", "42", 42},
		{"hex", "0x2a", 42},
		{"binary", "0b101010", 42},
		{"char", "'*'", 42},
		{"underscore separators", "1_000_000", 1000000},
		{"unary minus", "-1", uint64(^uint64(0))},
		{"bitwise not", "~0", uint64(^uint64(0))},
		{"precedence", "2 + 3 * 4", 14},
		{"parens override precedence", "(2 + 3) * 4", 20},
		{"shift", "1 << 4", 16},
		{"sizeof word operand", "sizeof(x)", 7},
		{"sizeof register operand", "sizeof(a)", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := evalExpr(tc.expr, env)
			if err != nil {
				t.Fatalf("evalExpr(%q): %v", tc.expr, err)
			}

			if got != tc.want {
				t.Errorf("evalExpr(%q) = %#x, want %#x", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvalExprResolvesSymbols(t *testing.T) {
	symbols := SymbolTable{"start": 0x10}
	env := &exprEnv{symbols: symbols, wordSize: 7, addrSize: 5}

	got, err := evalExpr("start + 2", env)
	if err != nil {
		t.Fatalf("evalExpr: %v", err)
	}

	if got != 0x12 {
		t.Errorf("got %#x, want 0x12", got)
	}
}

func TestEvalExprDivByZero(t *testing.T) {
	env := &exprEnv{symbols: SymbolTable{}, wordSize: 7, addrSize: 5}

	if _, err := evalExpr("1 / 0", env); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestEvalExprUndefinedSymbol(t *testing.T) {
	env := &exprEnv{symbols: SymbolTable{}, wordSize: 7, addrSize: 5}

	_, err := evalExpr("nope", env)
	if err == nil {
		t.Fatal("expected undefined-symbol error")
	}
}
