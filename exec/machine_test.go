package exec

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type fixture struct {
	prog    *ast.Program
	globals *scope.Scope
	m       *Machine
	out     strings.Builder
	num     ast.TypeID
	i64     ast.TypeID
	i32     ast.TypeID
}

func newFixture() *fixture {
	f := &fixture{prog: ast.NewProgram(), globals: scope.NewScope("globals", nil)}
	f.num = f.prog.DeclareType(ast.Type{Name: "NumLit", Size: ast.PointerSize})
	f.i64 = f.prog.DeclareType(ast.Type{Name: "i64", Size: 8})
	f.i32 = f.prog.DeclareType(ast.Type{Name: "i32", Size: 4})
	f.prog.SetLiteralType(ast.NumberLit, f.num)
	f.m = NewMachine(f.prog, arena.New(4096))
	return f
}

func (f *fixture) right(name string, t ast.TypeID) ast.Parameter {
	return ast.Parameter{Name: name, Side: ast.SideRight, Type: ast.Instance{Type: t}}
}

func (f *fixture) result(t ast.TypeID) ast.Parameter {
	return ast.Parameter{Name: "result", Side: ast.SideResult, Type: ast.Pointer{Elem: ast.Instance{Type: t}}}
}

func (f *fixture) number(text string) *ast.LiteralRef {
	return &ast.LiteralRef{Literal: f.prog.AddLiteral(ast.Literal{Kind: ast.NumberLit, Text: text})}
}

func (f *fixture) call(fid ast.FunctionID, args ...ast.Node) *ast.Call {
	call := &ast.Call{Function: fid}
	params := f.prog.Function(fid).Params
	for i, arg := range args {
		call.Bind(params[i], arg)
	}
	return call
}

// intrinsics declares i64, add, printInt and inc.
func (f *fixture) intrinsics() (i64, add, printInt, inc ast.FunctionID) {
	i64 = DeclareIntrinsic(f.prog, f.globals, "i64", ast.CompileTime|ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			lit, err := ic.Literal(0)
			if err != nil {
				return err
			}
			n, err := strconv.ParseInt(lit.Text, 10, 64)
			if err != nil {
				return err
			}
			ic.PutInt64(ic.Result(1), n)
			return nil
		}, f.right("v", f.num), f.result(f.i64))
	add = DeclareIntrinsic(f.prog, f.globals, "add", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			ic.PutInt64(ic.Result(2), ic.Int64(ic.Arg(0))+ic.Int64(ic.Arg(1)))
			return nil
		}, f.right("a", f.i64), f.right("b", f.i64), f.result(f.i64))
	printInt = DeclareIntrinsic(f.prog, f.globals, "print", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			fmt.Fprintf(&f.out, "%d\n", ic.Int64(ic.Arg(0)))
			return nil
		}, f.right("v", f.i64))
	incParam := f.right("x", f.i64)
	incParam.Flags = ast.Assignable
	inc = DeclareIntrinsic(f.prog, f.globals, "inc", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			ic.PutInt64(ic.Deref(0), ic.Int64(ic.Deref(0))+1)
			return nil
		}, incParam)
	return
}

func (f *fixture) run(t *testing.T, b *ast.Block) {
	t.Helper()
	if err := f.m.Run(b, f.globals); err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if used := f.m.Stack().Used(); used != 0 {
		t.Errorf("expected stack to be empty after run, %d bytes in use", used)
	}
}

func TestPrintLiteral(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.exec")
	defer teardown()
	//
	f := newFixture()
	pr := DeclareIntrinsic(f.prog, f.globals, "print", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			lit, err := ic.Literal(0)
			if err != nil {
				return err
			}
			f.out.WriteString(lit.Text)
			return nil
		}, f.right("v", f.num))
	f.run(t, &ast.Block{Nodes: []ast.Node{f.call(pr, f.number("42"))}})
	if f.out.String() != "42" {
		t.Errorf("expected output 42, have %q", f.out.String())
	}
}

func TestLocalsFrame(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.exec")
	defer teardown()
	//
	f := newFixture()
	a := f.prog.DeclareVariable(ast.Variable{Name: "a", Type: ast.Instance{Type: f.i64}})
	b := f.prog.DeclareVariable(ast.Variable{Name: "b", Type: ast.Instance{Type: f.i32}})
	var used uint32
	var addrA, addrB arena.Addr
	inspect := DeclareIntrinsic(f.prog, f.globals, "inspect", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) (err error) {
			used = ic.Stack().Used()
			if addrA, err = ic.Variable(a); err != nil {
				return err
			}
			addrB, err = ic.Variable(b)
			return err
		})
	f.run(t, &ast.Block{Locals: []ast.VariableID{a, b}, Nodes: []ast.Node{f.call(inspect)}})
	if used != 12 {
		t.Errorf("expected block frame of 12 bytes, have %d bytes in use", used)
	}
	if addrA == addrB || addrA+8 > 12 || addrB+4 > 12 {
		t.Fatalf("variables at %d and %d not within a 12 byte frame", addrA, addrB)
	}
	if addrA < addrB && addrA+8 > addrB || addrB < addrA && addrB+4 > addrA {
		t.Errorf("variables at %d and %d overlap", addrA, addrB)
	}
}

func TestStoreLiteralAndReadBack(t *testing.T) {
	f := newFixture()
	x := f.prog.DeclareVariable(ast.Variable{Name: "x", Type: ast.Instance{Type: f.num}})
	seven := f.number("7")
	var have *ast.Literal
	show := DeclareIntrinsic(f.prog, f.globals, "show", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) (err error) {
			have, err = ic.Literal(0)
			return err
		}, f.right("v", f.num))
	f.run(t, &ast.Block{
		Locals: []ast.VariableID{x},
		Nodes: []ast.Node{
			&ast.VariableInit{Variable: x, Value: seven},
			f.call(show, &ast.VariableRef{Variable: x}),
		},
	})
	if have != f.prog.Literal(seven.Literal) {
		t.Errorf("expected to read back literal 7, have %v", have)
	}
}

func TestNestedResults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.exec")
	defer teardown()
	//
	f := newFixture()
	i64, add, printInt, _ := f.intrinsics()
	sum := f.call(add, f.call(i64, f.number("2")), f.call(i64, f.number("3")))
	f.run(t, &ast.Block{Nodes: []ast.Node{f.call(printInt, sum), sum}})
	if f.out.String() != "5\n" {
		t.Errorf("expected output 5, have %q", f.out.String())
	}
}

func TestAssignable(t *testing.T) {
	f := newFixture()
	i64, _, printInt, inc := f.intrinsics()
	n := f.prog.DeclareVariable(ast.Variable{Name: "n", Type: ast.Instance{Type: f.i64}})
	f.run(t, &ast.Block{
		Locals: []ast.VariableID{n},
		Nodes: []ast.Node{
			&ast.VariableInit{Variable: n, Value: f.call(i64, f.number("41"))},
			f.call(inc, &ast.VariableRef{Variable: n}),
			f.call(printInt, &ast.VariableRef{Variable: n}),
		},
	})
	if f.out.String() != "42\n" {
		t.Errorf("expected output 42, have %q", f.out.String())
	}
}

func TestSplatted(t *testing.T) {
	f := newFixture()
	i64, _, printInt, _ := f.intrinsics()
	values := ast.Parameter{Name: "v", Side: ast.SideRight, Type: ast.Instance{Type: f.i64}, Flags: ast.Splatted}
	sum := DeclareIntrinsic(f.prog, f.globals, "sum", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			var total int64
			for _, addr := range ic.Splat(0) {
				total += ic.Int64(addr)
			}
			ic.PutInt64(ic.Result(1), total)
			return nil
		}, values, f.result(f.i64))
	call := &ast.Call{Function: sum}
	v := f.prog.Function(sum).Params[0]
	for _, text := range []string{"1", "2", "3"} {
		call.Bind(v, f.call(i64, f.number(text)))
	}
	empty := &ast.Call{Function: sum}
	f.run(t, &ast.Block{Nodes: []ast.Node{f.call(printInt, call), f.call(printInt, empty)}})
	if f.out.String() != "6\n0\n" {
		t.Errorf("expected output 6 and 0, have %q", f.out.String())
	}
}

func TestDefaults(t *testing.T) {
	f := newFixture()
	i64, _, _, _ := f.intrinsics()
	par := f.right("v", f.i64)
	par.Defaults = []ast.Node{f.call(i64, f.number("9"))}
	var have int64
	show := DeclareIntrinsic(f.prog, f.globals, "show", ast.RunTime,
		func(frame []byte, ic *IntrinsicContext) error {
			have = ic.Int64(ic.Arg(0))
			return nil
		}, par)
	f.run(t, &ast.Block{Nodes: []ast.Node{&ast.Call{Function: show}}})
	if have != 9 {
		t.Errorf("expected default value 9, have %d", have)
	}
}

func TestInterpretedBody(t *testing.T) {
	f := newFixture()
	i64, _, printInt, _ := f.intrinsics()
	twice := f.prog.DeclareFunction(ast.Function{Name: "twice", Flags: ast.RunTime}, f.right("x", f.i64))
	x := f.prog.Function(twice).Params[0]
	f.prog.Function(twice).Body = &ast.Block{Nodes: []ast.Node{
		f.call(printInt, &ast.ParameterRef{Parameter: x}),
		f.call(printInt, &ast.ParameterRef{Parameter: x}),
	}}
	f.run(t, &ast.Block{Nodes: []ast.Node{f.call(twice, f.call(i64, f.number("7")))}})
	if f.out.String() != "7\n7\n" {
		t.Errorf("expected output 7 twice, have %q", f.out.String())
	}
}

func TestCompileTimeResult(t *testing.T) {
	f := newFixture()
	incr := DeclareIntrinsic(f.prog, f.globals, "incr", ast.CompileTime,
		func(frame []byte, ic *IntrinsicContext) error {
			lit, err := ic.Literal(0)
			if err != nil {
				return err
			}
			n, _ := strconv.Atoi(lit.Text)
			lid := ic.Program().AddLiteral(ast.Literal{Kind: ast.NumberLit, Text: strconv.Itoa(n + 1)})
			ic.PutLiteral(ic.Result(1), lid)
			return nil
		}, f.right("v", f.num), f.result(f.num))
	node, err := f.m.RunCall(f.call(incr, f.number("1")), f.globals)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := node.(*ast.LiteralRef)
	if !ok || f.prog.Literal(ref.Literal).Text != "2" {
		t.Errorf("expected literal 2 to replace the call, have %v", node)
	}
}

func TestMissingBody(t *testing.T) {
	f := newFixture()
	fid := f.prog.DeclareFunction(ast.Function{Name: "nobody"})
	if err := f.m.Run(&ast.Block{Nodes: []ast.Node{&ast.Call{Function: fid}}}, f.globals); err == nil {
		t.Error("expected call of function without body to fail")
	}
}
