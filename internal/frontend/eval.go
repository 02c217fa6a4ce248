package frontend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"imbind/internal/ir"
)

// DefaultMacroDepth bounds macro-to-macro expansion.
const DefaultMacroDepth = 32

var (
	// ErrFunctionLike is returned for function-like macros, which have no
	// value of their own.
	ErrFunctionLike = errors.New("function-like macro")
	ErrUndefined    = errors.New("undefined identifier")
	ErrRecursion    = errors.New("macro expansion too deep")
)

// MacroEvaluator evaluates object-like macros whose bodies are constant C
// expressions: integer, floating, character and string literals, references
// to other macros, casts to arithmetic types and the usual operators.
type MacroEvaluator struct {
	MaxDepth int
}

var _ ir.ConstantEvaluator = (*MacroEvaluator)(nil)

func NewMacroEvaluator() *MacroEvaluator {
	return &MacroEvaluator{MaxDepth: DefaultMacroDepth}
}

func (e *MacroEvaluator) EvaluateMacro(lib *ir.Library, m *ir.Macro) (ir.ConstantValue, error) {
	if m.IsFunctionLike {
		return ir.ConstantValue{}, fmt.Errorf("%s: %w", m.Name, ErrFunctionLike)
	}
	ev := &evaluation{lib: lib, max: e.MaxDepth, active: map[string]bool{m.Name: true}}
	if ev.max <= 0 {
		ev.max = DefaultMacroDepth
	}
	v, err := ev.expr(m.Body, 0)
	if err != nil {
		return ir.ConstantValue{}, fmt.Errorf("%s: %w", m.Name, err)
	}
	return v, nil
}

// Evaluate evaluates a standalone expression. Identifiers resolve to
// macros of lib, which may be nil.
func (e *MacroEvaluator) Evaluate(lib *ir.Library, expr string) (ir.ConstantValue, error) {
	ev := &evaluation{lib: lib, max: e.MaxDepth, active: map[string]bool{}}
	if ev.max <= 0 {
		ev.max = DefaultMacroDepth
	}
	return ev.expr(expr, 0)
}

type token struct {
	kind rune
	text string
	off  int
}

const tokSuffix = -100

func tokenize(src string) ([]token, error) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanChars | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	var scanErr error
	s.Error = func(_ *scanner.Scanner, msg string) {
		if scanErr == nil {
			scanErr = errors.New(msg)
		}
	}
	var toks []token
	for r := s.Scan(); r != scanner.EOF; r = s.Scan() {
		t := token{kind: r, text: s.TokenText(), off: s.Position.Offset}
		if n := len(toks); n > 0 {
			prev := &toks[n-1]
			adjacent := prev.off+len(prev.text) == t.off
			switch {
			case adjacent && r == scanner.Ident && (prev.kind == scanner.Int || prev.kind == scanner.Float) && isNumberSuffix(t.text):
				toks = append(toks, token{kind: tokSuffix, text: t.text, off: t.off})
				continue
			case adjacent && isOperatorPair(prev.text+t.text):
				prev.text += t.text
				continue
			}
		}
		toks = append(toks, t)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return toks, nil
}

func isNumberSuffix(s string) bool {
	return strings.Trim(s, "uUlLfF") == ""
}

func isOperatorPair(s string) bool {
	switch s {
	case "<<", ">>", "<=", ">=", "==", "!=", "&&", "||":
		return true
	}
	return false
}

type evaluation struct {
	lib    *ir.Library
	max    int
	active map[string]bool
}

type parser struct {
	ev    *evaluation
	toks  []token
	pos   int
	depth int
}

func (ev *evaluation) expr(src string, depth int) (ir.ConstantValue, error) {
	if depth > ev.max {
		return ir.ConstantValue{}, ErrRecursion
	}
	toks, err := tokenize(src)
	if err != nil {
		return ir.ConstantValue{}, err
	}
	if len(toks) == 0 {
		return ir.ConstantValue{}, fmt.Errorf("empty expression")
	}
	p := &parser{ev: ev, toks: toks, depth: depth}
	v, err := p.conditional()
	if err != nil {
		return ir.ConstantValue{}, err
	}
	if p.pos < len(p.toks) {
		return ir.ConstantValue{}, fmt.Errorf("unexpected %q", p.toks[p.pos].text)
	}
	return v, nil
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos].text
}

func (p *parser) expect(text string) error {
	if p.peek() != text {
		if p.pos >= len(p.toks) {
			return fmt.Errorf("expected %q, got end of expression", text)
		}
		return fmt.Errorf("expected %q, got %q", text, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) conditional() (ir.ConstantValue, error) {
	cond, err := p.binary(1)
	if err != nil || p.peek() != "?" {
		return cond, err
	}
	p.pos++
	a, err := p.conditional()
	if err != nil {
		return a, err
	}
	if err := p.expect(":"); err != nil {
		return ir.ConstantValue{}, err
	}
	b, err := p.conditional()
	if err != nil {
		return b, err
	}
	if truthy(cond) {
		return a, nil
	}
	return b, nil
}

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *parser) binary(minPrec int) (ir.ConstantValue, error) {
	lhs, err := p.unary()
	if err != nil {
		return lhs, err
	}
	for {
		op := p.peek()
		prec, ok := precedence[op]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		p.pos++
		rhs, err := p.binary(prec + 1)
		if err != nil {
			return rhs, err
		}
		if lhs, err = apply(op, lhs, rhs); err != nil {
			return lhs, err
		}
	}
}

func (p *parser) unary() (ir.ConstantValue, error) {
	switch op := p.peek(); op {
	case "-", "+", "~", "!":
		p.pos++
		v, err := p.unary()
		if err != nil {
			return v, err
		}
		return applyUnary(op, v)
	case "(":
		if kind, ok := p.castTarget(); ok {
			v, err := p.unary()
			if err != nil {
				return v, err
			}
			return cast(kind, v), nil
		}
	}
	return p.primary()
}

// castTarget consumes "(type)" when the parenthesis holds an arithmetic
// type name.
func (p *parser) castTarget() (ir.BuiltinKind, bool) {
	end := p.pos + 1
	var words []string
	for end < len(p.toks) && p.toks[end].kind == scanner.Ident {
		words = append(words, p.toks[end].text)
		end++
	}
	if len(words) == 0 || end >= len(p.toks) || p.toks[end].text != ")" {
		return ir.BuiltinInvalid, false
	}
	kind, ok := castKind(words)
	if !ok {
		return ir.BuiltinInvalid, false
	}
	p.pos = end + 1
	return kind, true
}

func castKind(words []string) (ir.BuiltinKind, bool) {
	unsigned, long := false, false
	base := "int"
	for _, w := range words {
		switch w {
		case "unsigned":
			unsigned = true
		case "long":
			long = true
		case "signed", "const", "int", "short", "char":
		case "float", "double", "bool":
			base = w
		default:
			return ir.BuiltinInvalid, false
		}
	}
	switch {
	case base == "float":
		return ir.BuiltinFloat32, true
	case base == "double":
		return ir.BuiltinFloat64, true
	case base == "bool":
		return ir.BuiltinBool, true
	case long && unsigned:
		return ir.BuiltinUint64, true
	case long:
		return ir.BuiltinInt64, true
	case unsigned:
		return ir.BuiltinUint32, true
	}
	return ir.BuiltinInt32, true
}

func (p *parser) primary() (ir.ConstantValue, error) {
	if p.pos >= len(p.toks) {
		return ir.ConstantValue{}, fmt.Errorf("unexpected end of expression")
	}
	t := p.toks[p.pos]
	p.pos++
	switch t.kind {
	case scanner.Int, scanner.Float:
		suffix := ""
		if p.pos < len(p.toks) && p.toks[p.pos].kind == tokSuffix {
			suffix = p.toks[p.pos].text
			p.pos++
		}
		return number(t, suffix)
	case scanner.String:
		s, err := strconv.Unquote(t.text)
		if err != nil {
			return ir.ConstantValue{}, fmt.Errorf("string literal %s: %w", t.text, err)
		}
		// Adjacent literals concatenate.
		for p.pos < len(p.toks) && p.toks[p.pos].kind == scanner.String {
			more, err := strconv.Unquote(p.toks[p.pos].text)
			if err != nil {
				return ir.ConstantValue{}, fmt.Errorf("string literal %s: %w", p.toks[p.pos].text, err)
			}
			s += more
			p.pos++
		}
		return ir.StringValue(s), nil
	case scanner.Char:
		r, _, _, err := strconv.UnquoteChar(t.text[1:len(t.text)-1], '\'')
		if err != nil {
			return ir.ConstantValue{}, fmt.Errorf("character literal %s: %w", t.text, err)
		}
		return ir.IntValue(int64(r)), nil
	case scanner.Ident:
		return p.identifier(t.text)
	}
	if t.text == "(" {
		v, err := p.conditional()
		if err != nil {
			return v, err
		}
		return v, p.expect(")")
	}
	return ir.ConstantValue{}, fmt.Errorf("unexpected %q", t.text)
}

func (p *parser) identifier(name string) (ir.ConstantValue, error) {
	switch name {
	case "true":
		return ir.BoolValue(true), nil
	case "false":
		return ir.BoolValue(false), nil
	case "nullptr", "NULL":
		return ir.NullValue(), nil
	}
	if p.ev.lib == nil {
		return ir.ConstantValue{}, fmt.Errorf("%w %s", ErrUndefined, name)
	}
	m, ok := p.ev.lib.FindMacro(name)
	if !ok {
		return ir.ConstantValue{}, fmt.Errorf("%w %s", ErrUndefined, name)
	}
	if m.IsFunctionLike {
		return ir.ConstantValue{}, fmt.Errorf("%s: %w", name, ErrFunctionLike)
	}
	if p.ev.active[name] {
		return ir.ConstantValue{}, fmt.Errorf("%s refers to itself", name)
	}
	p.ev.active[name] = true
	defer delete(p.ev.active, name)
	return p.ev.expr(m.Body, p.depth+1)
}

func number(t token, suffix string) (ir.ConstantValue, error) {
	lower := strings.ToLower(suffix)
	isHex := strings.HasPrefix(strings.ToLower(t.text), "0x")
	if t.kind == scanner.Float || (!isHex && strings.Contains(lower, "f")) {
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return ir.ConstantValue{}, fmt.Errorf("float literal %s: %w", t.text, err)
		}
		return ir.FloatValue(f), nil
	}
	if !strings.Contains(lower, "u") {
		if n, err := strconv.ParseInt(t.text, 0, 64); err == nil {
			return ir.IntValue(n), nil
		}
	}
	u, err := strconv.ParseUint(t.text, 0, 64)
	if err != nil {
		return ir.ConstantValue{}, fmt.Errorf("integer literal %s: %w", t.text, err)
	}
	return ir.UintValue(u), nil
}

func truthy(v ir.ConstantValue) bool {
	switch v.Kind {
	case ir.ConstInt:
		return v.Int != 0
	case ir.ConstUint:
		return v.Uint != 0
	case ir.ConstFloat:
		return v.Float != 0
	case ir.ConstBool:
		return v.Bool
	case ir.ConstString:
		return true
	}
	return false
}

func boolInt(b bool) ir.ConstantValue {
	if b {
		return ir.IntValue(1)
	}
	return ir.IntValue(0)
}

func asFloat(v ir.ConstantValue) float64 {
	switch v.Kind {
	case ir.ConstInt:
		return float64(v.Int)
	case ir.ConstUint:
		return float64(v.Uint)
	case ir.ConstFloat:
		return v.Float
	case ir.ConstBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

func asInt(v ir.ConstantValue) int64 {
	switch v.Kind {
	case ir.ConstInt:
		return v.Int
	case ir.ConstUint:
		return int64(v.Uint)
	case ir.ConstFloat:
		return int64(v.Float)
	case ir.ConstBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

func asUint(v ir.ConstantValue) uint64 {
	if v.Kind == ir.ConstUint {
		return v.Uint
	}
	return uint64(asInt(v))
}

func cast(kind ir.BuiltinKind, v ir.ConstantValue) ir.ConstantValue {
	switch kind {
	case ir.BuiltinFloat32:
		return ir.FloatValue(float64(float32(asFloat(v))))
	case ir.BuiltinFloat64:
		return ir.FloatValue(asFloat(v))
	case ir.BuiltinBool:
		return ir.BoolValue(truthy(v))
	case ir.BuiltinUint32:
		return ir.UintValue(uint64(uint32(asUint(v))))
	case ir.BuiltinUint64:
		return ir.UintValue(asUint(v))
	case ir.BuiltinInt64:
		return ir.IntValue(asInt(v))
	}
	return ir.IntValue(int64(int32(asInt(v))))
}

func applyUnary(op string, v ir.ConstantValue) (ir.ConstantValue, error) {
	if v.Kind == ir.ConstString || v.Kind == ir.ConstNull {
		return ir.ConstantValue{}, fmt.Errorf("operator %s does not apply to %s", op, v)
	}
	switch op {
	case "!":
		return boolInt(!truthy(v)), nil
	case "+":
		if v.Kind == ir.ConstBool {
			return ir.IntValue(asInt(v)), nil
		}
		return v, nil
	case "-":
		switch v.Kind {
		case ir.ConstFloat:
			return ir.FloatValue(-v.Float), nil
		case ir.ConstUint:
			return ir.UintValue(-v.Uint), nil
		}
		return ir.IntValue(-asInt(v)), nil
	case "~":
		switch v.Kind {
		case ir.ConstFloat:
			return ir.ConstantValue{}, fmt.Errorf("operator ~ does not apply to %s", v)
		case ir.ConstUint:
			return ir.UintValue(^v.Uint), nil
		}
		return ir.IntValue(^asInt(v)), nil
	}
	return ir.ConstantValue{}, fmt.Errorf("unknown operator %s", op)
}

func apply(op string, a, b ir.ConstantValue) (ir.ConstantValue, error) {
	if a.Kind == ir.ConstString || b.Kind == ir.ConstString {
		if a.Kind != b.Kind {
			return ir.ConstantValue{}, fmt.Errorf("operator %s mixes %s and %s", op, a, b)
		}
		switch op {
		case "==":
			return boolInt(a.Str == b.Str), nil
		case "!=":
			return boolInt(a.Str != b.Str), nil
		}
		return ir.ConstantValue{}, fmt.Errorf("operator %s does not apply to strings", op)
	}
	switch op {
	case "&&":
		return boolInt(truthy(a) && truthy(b)), nil
	case "||":
		return boolInt(truthy(a) || truthy(b)), nil
	}

	switch {
	case a.Kind == ir.ConstFloat || b.Kind == ir.ConstFloat:
		return applyFloat(op, asFloat(a), asFloat(b))
	case a.Kind == ir.ConstUint || b.Kind == ir.ConstUint:
		return applyUint(op, asUint(a), asUint(b))
	}
	return applyInt(op, asInt(a), asInt(b))
}

func applyFloat(op string, x, y float64) (ir.ConstantValue, error) {
	switch op {
	case "+":
		return ir.FloatValue(x + y), nil
	case "-":
		return ir.FloatValue(x - y), nil
	case "*":
		return ir.FloatValue(x * y), nil
	case "/":
		return ir.FloatValue(x / y), nil
	case "<":
		return boolInt(x < y), nil
	case ">":
		return boolInt(x > y), nil
	case "<=":
		return boolInt(x <= y), nil
	case ">=":
		return boolInt(x >= y), nil
	case "==":
		return boolInt(x == y), nil
	case "!=":
		return boolInt(x != y), nil
	}
	return ir.ConstantValue{}, fmt.Errorf("operator %s does not apply to floating values", op)
}

func applyInt(op string, x, y int64) (ir.ConstantValue, error) {
	switch op {
	case "+":
		return ir.IntValue(x + y), nil
	case "-":
		return ir.IntValue(x - y), nil
	case "*":
		return ir.IntValue(x * y), nil
	case "/", "%":
		if y == 0 {
			return ir.ConstantValue{}, fmt.Errorf("division by zero")
		}
		if op == "/" {
			return ir.IntValue(x / y), nil
		}
		return ir.IntValue(x % y), nil
	case "<<", ">>":
		if y < 0 || y > 63 {
			return ir.ConstantValue{}, fmt.Errorf("shift count %d out of range", y)
		}
		if op == "<<" {
			return ir.IntValue(x << y), nil
		}
		return ir.IntValue(x >> y), nil
	case "&":
		return ir.IntValue(x & y), nil
	case "|":
		return ir.IntValue(x | y), nil
	case "^":
		return ir.IntValue(x ^ y), nil
	case "<":
		return boolInt(x < y), nil
	case ">":
		return boolInt(x > y), nil
	case "<=":
		return boolInt(x <= y), nil
	case ">=":
		return boolInt(x >= y), nil
	case "==":
		return boolInt(x == y), nil
	case "!=":
		return boolInt(x != y), nil
	}
	return ir.ConstantValue{}, fmt.Errorf("unknown operator %s", op)
}

func applyUint(op string, x, y uint64) (ir.ConstantValue, error) {
	switch op {
	case "+":
		return ir.UintValue(x + y), nil
	case "-":
		return ir.UintValue(x - y), nil
	case "*":
		return ir.UintValue(x * y), nil
	case "/", "%":
		if y == 0 {
			return ir.ConstantValue{}, fmt.Errorf("division by zero")
		}
		if op == "/" {
			return ir.UintValue(x / y), nil
		}
		return ir.UintValue(x % y), nil
	case "<<", ">>":
		if y > 63 {
			return ir.ConstantValue{}, fmt.Errorf("shift count %d out of range", y)
		}
		if op == "<<" {
			return ir.UintValue(x << y), nil
		}
		return ir.UintValue(x >> y), nil
	case "&":
		return ir.UintValue(x & y), nil
	case "|":
		return ir.UintValue(x | y), nil
	case "^":
		return ir.UintValue(x ^ y), nil
	case "<":
		return boolInt(x < y), nil
	case ">":
		return boolInt(x > y), nil
	case "<=":
		return boolInt(x <= y), nil
	case ">=":
		return boolInt(x >= y), nil
	case "==":
		return boolInt(x == y), nil
	case "!=":
		return boolInt(x != y), nil
	}
	return ir.ConstantValue{}, fmt.Errorf("unknown operator %s", op)
}
