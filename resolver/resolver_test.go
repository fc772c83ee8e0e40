package resolver

import (
	"testing"

	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/lexer"
	"github.com/npillmayer/rebuild/token"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// fixture is a program with literal types and a trivial value parser.
type fixture struct {
	prog  *ast.Program
	num   ast.TypeID
	str   ast.TypeID
	block ast.TypeID
	typ   ast.TypeID
	tick  ast.FunctionID // run-time function, has side effects
}

func newFixture() *fixture {
	f := &fixture{prog: ast.NewProgram()}
	f.num = f.prog.DeclareType(ast.Type{Name: "NumLit", Size: ast.PointerSize})
	f.str = f.prog.DeclareType(ast.Type{Name: "StrLit", Size: ast.PointerSize})
	f.block = f.prog.DeclareType(ast.Type{Name: "BlockLit", Size: ast.PointerSize, Parser: ast.ParseSingleToken})
	f.typ = f.prog.DeclareType(ast.Type{Name: "Type", Size: ast.PointerSize, Parser: ast.ParseTypeExpression})
	f.prog.SetLiteralType(ast.NumberLit, f.num)
	f.prog.SetLiteralType(ast.StringLit, f.str)
	f.prog.SetLiteralType(ast.BlockLit, f.block)
	f.prog.SetLiteralType(ast.TypeLit, f.typ)
	f.tick = f.prog.DeclareFunction(ast.Function{Name: "tick", Flags: ast.RunTime},
		ast.Parameter{Name: "r", Side: ast.SideResult, Type: ast.Pointer{Elem: ast.Instance{Type: f.num}}})
	return f
}

func (f *fixture) ParseType(c *token.Cursor) (ast.TypeExpr, bool) {
	for _, t := range []ast.TypeID{f.num, f.str, f.block, f.typ} {
		if c.Current().IsA(token.Identifier, f.prog.Type(t).Name) {
			c.Next()
			return ast.Instance{Type: t}, true
		}
	}
	return nil, false
}

func (f *fixture) ParseValue(c *token.Cursor, kind ast.ParserKind) (ast.Node, bool) {
	tok := c.Current()
	var lit ast.Literal
	switch tok.Kind {
	case token.Number:
		lit = ast.Literal{Kind: ast.NumberLit, Text: tok.Text}
	case token.String:
		lit = ast.Literal{Kind: ast.StringLit, Text: tok.Text}
	case token.Block:
		lit = ast.Literal{Kind: ast.BlockLit, Block: tok.Block}
	case token.Identifier:
		if tok.Text != "tick" {
			return nil, false
		}
		c.Next()
		return &ast.Call{Function: f.tick, Span: tok.Span}, true
	default:
		return nil, false
	}
	c.Next()
	lit.Span = tok.Span
	return &ast.LiteralRef{Literal: f.prog.AddLiteral(lit), Span: tok.Span}, true
}

func (f *fixture) declare(name string, params ...ast.Parameter) ast.FunctionID {
	return f.prog.DeclareFunction(ast.Function{Name: name, Flags: ast.RunTime}, params...)
}

func (f *fixture) right(name string, t ast.TypeID) ast.Parameter {
	return ast.Parameter{Name: name, Side: ast.SideRight, Type: ast.Instance{Type: t}}
}

// callSite tokenizes a single line and positions a cursor behind its first
// token, the function name.
func callSite(t *testing.T, input string) token.Cursor {
	t.Helper()
	block, err := lexer.Parse(input)
	if err != nil || len(block.Lines) != 1 {
		t.Fatalf("cannot tokenize %q: %v", input, err)
	}
	c := token.NewCursor(block.Lines[0])
	c.Next()
	return c
}

func (f *fixture) resolve(t *testing.T, input string, left ast.Node, fns ...ast.FunctionID) (*Result, *diag.Bag) {
	bag := diag.NewBag(10)
	r := New(f.prog, f, diag.BagReporter{Bag: bag})
	return r.Resolve(Input{Cursor: callSite(t, input), Functions: fns, Left: left}), bag
}

func TestSingleOverload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	f := newFixture()
	pr := f.declare("print", f.right("v", f.num))
	res, _ := f.resolve(t, "print 42", nil, pr)
	c, ok := res.Resolved()
	if !ok {
		t.Fatalf("expected call to resolve, have %d complete", len(res.Complete))
	}
	if len(c.Call.Arguments) != 1 || len(c.Call.Arguments[0].Values) != 1 {
		t.Fatalf("expected one argument assignment, have %v", c.Call.Arguments)
	}
	ref := c.Call.Arguments[0].Values[0].(*ast.LiteralRef)
	if f.prog.Literal(ref.Literal).Text != "42" {
		t.Errorf("expected 42 to be bound to v")
	}
	if !c.Cursor.AtEnd() {
		t.Error("expected resolved candidate to have consumed the line")
	}
}

func TestAmbiguousPositional(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	f := newFixture()
	pv := f.declare("print", f.right("v", f.num))
	pw := f.declare("print", f.right("w", f.num))
	res, _ := f.resolve(t, "print 1", nil, pv, pw)
	if len(res.Complete) != 2 {
		t.Errorf("expected 2 complete candidates, have %d", len(res.Complete))
	}
}

func TestNamedArgument(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	f := newFixture()
	pv := f.declare("print", f.right("v", f.num))
	pw := f.declare("print", f.right("w", f.num))
	res, _ := f.resolve(t, "print v= 1", nil, pv, pw)
	c, ok := res.Resolved()
	if !ok || c.Function != pv {
		t.Fatalf("expected exactly the overload with parameter v, have %d complete", len(res.Complete))
	}
}

func TestTypeMismatchRetires(t *testing.T) {
	f := newFixture()
	pn := f.declare("print", f.right("v", f.num))
	ps := f.declare("print", f.right("v", f.str))
	res, _ := f.resolve(t, `print "hello"`, nil, pn, ps)
	c, ok := res.Resolved()
	if !ok || c.Function != ps {
		t.Errorf("expected the string overload to be selected")
	}
}

func TestBracketNeverCloses(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	f := newFixture()
	pr := f.declare("print", f.right("v", f.num))
	res, bag := f.resolve(t, "print(1", nil, pr)
	if bag.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic, have %d", bag.Len())
	}
	if bag.Items()[0].Code != diag.ResolverBracketNeverCloses {
		t.Errorf("expected bracket-never-closes diagnostic, have %s", bag.Items()[0].Code)
	}
	if !res.Tainted {
		t.Error("expected result to be tainted")
	}
}

func TestExpectedBracket(t *testing.T) {
	f := newFixture()
	pr := f.declare("print", f.right("v", f.num))
	_, bag := f.resolve(t, `print(1 "x"`, nil, pr)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResolverExpectedBracket {
		t.Errorf("expected one expected-bracket diagnostic, have %v", bag.Items())
	}
}

func TestBracketsAndCommas(t *testing.T) {
	f := newFixture()
	pair := f.declare("pair", f.right("a", f.num), f.right("b", f.num))
	res, bag := f.resolve(t, "pair(1, 2)", nil, pair)
	c, ok := res.Resolved()
	if !ok || bag.Len() != 0 {
		t.Fatalf("expected pair(1, 2) to resolve silently, have %d complete, %v", len(res.Complete), bag.Items())
	}
	if !c.Cursor.AtEnd() {
		t.Error("expected closing bracket to be consumed")
	}
}

func TestMissingArgument(t *testing.T) {
	f := newFixture()
	pair := f.declare("pair", f.right("a", f.num), f.right("b", f.num))
	res, bag := f.resolve(t, "pair 1", nil, pair)
	if len(res.Complete) != 0 || bag.Len() != 0 {
		t.Errorf("expected no match and no diagnostic, have %d complete", len(res.Complete))
	}
}

func TestNoArgumentsCompleteImmediately(t *testing.T) {
	f := newFixture()
	nop := f.declare("nop")
	res, _ := f.resolve(t, "nop", nil, nop)
	if _, ok := res.Resolved(); !ok {
		t.Error("expected function without parameters to be complete")
	}
}

func TestSideEffectsChargedOnce(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	f := newFixture()
	pa := f.declare("show", f.right("a", f.num))
	pb := f.declare("show", f.right("b", f.num))
	pc := f.declare("show", f.right("c", f.num))
	res, _ := f.resolve(t, "show tick", nil, pa, pb, pc)
	if res.SideEffects != 1 {
		t.Errorf("expected side effect to be charged once, have %d", res.SideEffects)
	}
	for _, c := range res.Complete {
		if c.SideEffects != 1 || c.Call.SideEffects != 1 {
			t.Errorf("expected each candidate to report exactly its own side effect, have %d", c.SideEffects)
		}
	}
}

func TestLeftOperand(t *testing.T) {
	f := newFixture()
	add := f.declare("add",
		ast.Parameter{Name: "a", Side: ast.SideLeft, Type: ast.Instance{Type: f.num}},
		f.right("b", f.num))
	left := &ast.LiteralRef{Literal: f.prog.AddLiteral(ast.Literal{Kind: ast.NumberLit, Text: "1"})}
	res, _ := f.resolve(t, "add 2", left, add)
	c, ok := res.Resolved()
	if !ok || len(c.Call.Arguments) != 2 {
		t.Fatalf("expected left and right operand to be bound")
	}
	res, _ = f.resolve(t, "add 2", nil, add)
	if len(res.Complete) != 0 {
		t.Error("expected left operand to be required")
	}
	str := &ast.LiteralRef{Literal: f.prog.AddLiteral(ast.Literal{Kind: ast.StringLit, Text: "x"})}
	res, _ = f.resolve(t, "add 2", str, add)
	if !res.LeftRejected {
		t.Error("expected string left operand to be rejected")
	}
}

func TestSplatted(t *testing.T) {
	f := newFixture()
	sum := f.declare("sum", ast.Parameter{Name: "v", Side: ast.SideRight,
		Type: ast.Instance{Type: f.num}, Flags: ast.Splatted})
	res, _ := f.resolve(t, "sum 1, 2, 3", nil, sum)
	c, ok := res.Resolved()
	if !ok {
		t.Fatal("expected splatted call to resolve")
	}
	if n := len(c.Call.Arguments[0].Values); n != 3 {
		t.Errorf("expected 3 values gathered, have %d", n)
	}
	res, _ = f.resolve(t, "sum", nil, sum)
	if _, ok := res.Resolved(); !ok {
		t.Error("expected splatted parameter to accept zero values")
	}
}

func TestBlockRetiresOthers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	f := newFixture()
	short := f.declare("repeat", f.right("n", f.num))
	long := f.declare("repeat", f.right("n", f.num), f.right("body", f.block))
	block, err := lexer.Parse("repeat 3\n  print 1\n")
	if err != nil {
		t.Fatal(err)
	}
	c := token.NewCursor(block.Lines[0])
	c.Next()
	r := New(f.prog, f, nil)
	res := r.Resolve(Input{Cursor: c, Functions: []ast.FunctionID{short, long}})
	won, ok := res.Resolved()
	if !ok || won.Function != long || !won.HasBlocks() {
		t.Errorf("expected the block taking overload to win, have %d complete", len(res.Complete))
	}
}

func TestTypeOnlyArgument(t *testing.T) {
	f := newFixture()
	sizeof := f.declare("sizeof", f.right("t", f.typ))
	res, _ := f.resolve(t, "sizeof :NumLit", nil, sizeof)
	c, ok := res.Resolved()
	if !ok {
		t.Fatal("expected type argument to bind")
	}
	ref := c.Call.Arguments[0].Values[0].(*ast.LiteralRef)
	if lit := f.prog.Literal(ref.Literal); lit.Kind != ast.TypeLit {
		t.Errorf("expected a type literal, have %s", lit.Kind)
	}
}

func TestArityDecidesBetweenOverloads(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.resolver")
	defer teardown()
	//
	for _, input := range []string{"f 1, 2", "f 1 2", "f(1, 2)"} {
		f := newFixture()
		one := f.declare("f", f.right("a", f.num))
		two := f.declare("f", f.right("a", f.num), f.right("b", f.num))
		res, _ := f.resolve(t, input, nil, one, two)
		c, ok := res.Resolved()
		if !ok {
			t.Errorf("%q: expected exactly one complete overload, have %d", input, len(res.Complete))
			continue
		}
		if c.Function != two || len(c.Call.Arguments) != 2 {
			t.Errorf("%q: expected the two-argument overload to match", input)
		}
	}
	f := newFixture()
	one := f.declare("f", f.right("a", f.num))
	two := f.declare("f", f.right("a", f.num), f.right("b", f.num))
	res, _ := f.resolve(t, "f 1", nil, one, two)
	if c, ok := res.Resolved(); !ok || c.Function != one {
		t.Errorf("expected the one-argument overload to match a single argument")
	}
}
