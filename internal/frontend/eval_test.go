package frontend

import (
	"errors"
	"testing"

	"imbind/internal/ir"
)

func macroLibrary(macros ...*ir.Macro) *ir.Library {
	return ir.NewLibrary(ir.LibraryParts{Macros: macros})
}

func TestEvaluateExpressions(t *testing.T) {
	lib := macroLibrary(
		ir.NewMacro("IMGUI_VERSION_NUM", "19100"),
		ir.NewMacro("BASE", "(1 << 4)"),
		ir.NewMacro("DERIVED", "BASE | 0x3"),
	)
	cases := []struct {
		expr string
		want ir.ConstantValue
	}{
		{"42", ir.IntValue(42)},
		{"0x1F", ir.IntValue(31)},
		{"010", ir.IntValue(8)},
		{"10u", ir.UintValue(10)},
		{"0xFFFFFFFFFFFFFFFF", ir.UintValue(0xFFFFFFFFFFFFFFFF)},
		{"1.5f", ir.FloatValue(1.5)},
		{"2.0 * 3", ir.FloatValue(6)},
		{"-1", ir.IntValue(-1)},
		{"~0u", ir.UintValue(^uint64(0))},
		{"!0", ir.IntValue(1)},
		{"1 + 2 * 3", ir.IntValue(7)},
		{"(1 + 2) * 3", ir.IntValue(9)},
		{"7 % 4 == 3 && 1", ir.IntValue(1)},
		{"1 << 2 | 1", ir.IntValue(5)},
		{"3 > 2 ? 10 : 20", ir.IntValue(10)},
		{`"1.91" ".0"`, ir.StringValue("1.91.0")},
		{"'A'", ir.IntValue(65)},
		{"true", ir.BoolValue(true)},
		{"(float)1", ir.FloatValue(1)},
		{"(unsigned int)-1", ir.UintValue(0xFFFFFFFF)},
		{"DERIVED", ir.IntValue(19)},
		{"IMGUI_VERSION_NUM >= 19000", ir.IntValue(1)},
		{"1 /* comment */ + 1", ir.IntValue(2)},
	}
	e := NewMacroEvaluator()
	for _, tc := range cases {
		got, err := e.Evaluate(lib, tc.expr)
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %#v, want %#v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateFailures(t *testing.T) {
	lib := macroLibrary(
		ir.NewMacro("SELF", "SELF + 1"),
		&ir.Macro{Base: ir.NewBase("IM_ARRAYSIZE"), IsFunctionLike: true, Body: "sizeof(x)"},
	)
	e := NewMacroEvaluator()
	for _, expr := range []string{"", "1 +", "(1", "1 / 0", "\"a\" + 1", "MISSING", "IM_ARRAYSIZE", "1 2", "1 << 64"} {
		if _, err := e.Evaluate(lib, expr); err == nil {
			t.Fatalf("%q: expected an error", expr)
		}
	}
	self, _ := lib.FindMacro("SELF")
	if _, err := e.EvaluateMacro(lib, self); err == nil {
		t.Fatalf("self reference should fail")
	}
	fn, _ := lib.FindMacro("IM_ARRAYSIZE")
	if _, err := e.EvaluateMacro(lib, fn); !errors.Is(err, ErrFunctionLike) {
		t.Fatalf("expected ErrFunctionLike, got %v", err)
	}
	if _, err := e.Evaluate(nil, "MISSING"); !errors.Is(err, ErrUndefined) {
		t.Fatalf("expected ErrUndefined, got %v", err)
	}
}

func TestEvaluateDepthLimit(t *testing.T) {
	lib := macroLibrary(
		ir.NewMacro("A", "B"),
		ir.NewMacro("B", "C"),
		ir.NewMacro("C", "1"),
	)
	e := &MacroEvaluator{MaxDepth: 1}
	if _, err := e.Evaluate(lib, "A"); !errors.Is(err, ErrRecursion) {
		t.Fatalf("expected ErrRecursion, got %v", err)
	}
	e.MaxDepth = 4
	if v, err := e.Evaluate(lib, "A"); err != nil || v != ir.IntValue(1) {
		t.Fatalf("got %v, %v", v, err)
	}
}
