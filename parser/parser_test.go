package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/exec"
	"github.com/npillmayer/rebuild/lexer"
	"github.com/npillmayer/rebuild/prelude"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type fixture struct {
	prog    *ast.Program
	globals *scope.Scope
	types   *prelude.Types
	bag     *diag.Bag
	p       *Parser
}

func newFixture(withExecutor bool) *fixture {
	f := &fixture{
		prog:    ast.NewProgram(),
		globals: scope.NewScope("globals", nil),
		bag:     diag.NewBag(20),
	}
	f.types = prelude.Declare(f.prog, f.globals, &strings.Builder{})
	f.p = New(f.prog, diag.BagReporter{Bag: f.bag})
	if withExecutor {
		m := exec.NewMachine(f.prog, arena.New(4096))
		m.SetParser(f.p)
		f.p.SetExecutor(m)
	}
	return f
}

func (f *fixture) parse(t *testing.T, src string) (*ast.Block, error) {
	t.Helper()
	lit, err := lexer.Parse(src)
	if err != nil {
		t.Fatalf("cannot scan %q: %v", src, err)
	}
	return f.p.ParseBlock(lit, f.globals)
}

func (f *fixture) expectSingle(t *testing.T, code diag.Code) diag.Diagnostic {
	t.Helper()
	if f.bag.Len() != 1 {
		for _, d := range f.bag.Items() {
			t.Log(d)
		}
		t.Fatalf("expected 1 diagnostic, got %d", f.bag.Len())
	}
	d := f.bag.Items()[0]
	if d.Code != code {
		t.Errorf("expected diagnostic %s, got %s", code, d.Code)
	}
	return d
}

func TestLetDeclaresLocal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	f := newFixture(true)
	b, err := f.parse(t, "let a = int 2\nlet b :i32")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Locals) != 2 {
		t.Fatalf("expected 2 locals, got %d", len(b.Locals))
	}
	if len(b.Nodes) != 1 {
		t.Fatalf("expected 1 node (declaration without value has none), got %d", len(b.Nodes))
	}
	if _, ok := b.Nodes[0].(*ast.VariableInit); !ok {
		t.Errorf("expected variable initialization, got %s", f.prog.Describe(b.Nodes[0]))
	}
	sc := f.p.ScopeOf(b)
	if sc == nil || sc.Parent != f.globals {
		t.Fatalf("expected block scope to be child of globals")
	}
	v, err := scope.Lookup[scope.Variable](sc, "a")
	if err != nil {
		t.Fatal(err)
	}
	if typ := f.prog.Variable(v.ID).Type; !ast.Compatible(ast.Instance{Type: f.types.I64}, typ) {
		t.Errorf("expected a :i64, got %s", f.prog.TypeName(typ))
	}
	if _, err := f.globals.Lookup("a"); !errors.Is(err, scope.ErrNotFound) {
		t.Errorf("expected local a to be invisible in globals")
	}
}

func TestUnknownIdentifier(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	f := newFixture(true)
	b, err := f.parse(t, "nope 1\nprint 2")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
	f.expectSingle(t, diag.ParserUnknownIdentifier)
	if len(b.Nodes) != 1 {
		t.Errorf("expected parsing to continue on the next line, got %d nodes", len(b.Nodes))
	}
}

func TestAmbiguousOverload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	f := newFixture(true)
	nop := func([]byte, *exec.IntrinsicContext) error { return nil }
	for i := 0; i < 2; i++ {
		exec.DeclareIntrinsic(f.prog, f.globals, "twin", ast.RunTime, nop,
			ast.Parameter{Name: "x", Side: ast.SideRight, Type: ast.Instance{Type: f.types.NumLit}})
	}
	_, err := f.parse(t, "twin 1")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
	d := f.expectSingle(t, diag.ParserAmbiguousOverload)
	if len(d.Notes) != 2 {
		t.Errorf("expected a note for each matching overload, got %d", len(d.Notes))
	}
}

func TestNoOverload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	f := newFixture(true)
	_, err := f.parse(t, `int "seven"`)
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
	d := f.expectSingle(t, diag.ParserNoOverload)
	if len(d.Notes) != 1 {
		t.Errorf("expected a note for the single candidate, got %d", len(d.Notes))
	}
}

func TestLetErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	cases := []struct {
		src  string
		code diag.Code
	}{
		{"let a :bool = int 1", diag.ParserTypeMismatch},
		{"let a = int 1\nlet a = int 2", diag.ParserDuplicateName},
		{"let a", diag.ParserExpectedType},
		{"let a :nope", diag.ParserExpectedType},
		{"let a = print 1", diag.ParserTypeMismatch},
		{"let 1", diag.ParserUnexpectedToken},
	}
	for _, c := range cases {
		f := newFixture(true)
		if _, err := f.parse(t, c.src); !errors.Is(err, ErrSyntax) {
			t.Errorf("%q: expected syntax error, got %v", c.src, err)
		}
		f.expectSingle(t, c.code)
	}
}

func TestUnexpectedTokenSkipsLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	f := newFixture(true)
	b, _ := f.parse(t, "print 1 = 2\nprint 3")
	f.expectSingle(t, diag.ParserUnexpectedToken)
	if len(b.Nodes) != 2 {
		t.Errorf("expected 2 calls, got %d", len(b.Nodes))
	}
}

func TestCompileTimeNeedsExecutor(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.parser")
	defer teardown()
	//
	for _, withExecutor := range []bool{false, true} {
		f := newFixture(withExecutor)
		b, err := f.parse(t, "print str 42")
		if err != nil {
			t.Fatal(err)
		}
		call := b.Nodes[0].(*ast.Call)
		arg := call.Arguments[0].Values[0]
		_, isLiteral := arg.(*ast.LiteralRef)
		if isLiteral != withExecutor {
			t.Errorf("executor=%v: argument is %s", withExecutor, f.prog.Describe(arg))
		}
	}
}
