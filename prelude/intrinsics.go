package prelude

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/exec"
	"github.com/npillmayer/rebuild/scope"
)

// ErrBadDeclaration is returned by fn for malformed function declarations.
var ErrBadDeclaration = errors.New("bad function declaration")

const (
	rt   = ast.RunTime
	ct   = ast.CompileTime
	ctrt = ast.CompileTime | ast.RunTime
)

func declareIntrinsics(prog *ast.Program, sc *scope.Scope, t *Types, out io.Writer) {
	printText := func(frame []byte, ic *exec.IntrinsicContext) error {
		lit, err := ic.Literal(0)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, lit.Text)
		return err
	}
	exec.DeclareIntrinsic(prog, sc, "print", rt, printText, right("v", t.NumLit))
	exec.DeclareIntrinsic(prog, sc, "print", rt, printText, right("v", t.StrLit))
	exec.DeclareIntrinsic(prog, sc, "print", rt, func(frame []byte, ic *exec.IntrinsicContext) error {
		_, err := fmt.Fprintln(out, ic.Int64(ic.Arg(0)))
		return err
	}, right("v", t.I64))
	exec.DeclareIntrinsic(prog, sc, "print", rt, func(frame []byte, ic *exec.IntrinsicContext) error {
		_, err := fmt.Fprintln(out, ic.Stack().Bytes(ic.Arg(0), 1)[0] != 0)
		return err
	}, right("v", t.Bool))

	exec.DeclareIntrinsic(prog, sc, "int", ctrt, intFromLiteral, right("v", t.NumLit), result(t.I64))
	exec.DeclareIntrinsic(prog, sc, "str", ct, strFromLiteral, right("v", t.NumLit), result(t.StrLit))
	exec.DeclareIntrinsic(prog, sc, "add", rt, func(frame []byte, ic *exec.IntrinsicContext) error {
		ic.PutInt64(ic.Result(2), ic.Int64(ic.Arg(0))+ic.Int64(ic.Arg(1)))
		return nil
	}, left("a", t.I64), right("b", t.I64), result(t.I64))
	exec.DeclareIntrinsic(prog, sc, "eq", rt, func(frame []byte, ic *exec.IntrinsicContext) error {
		putBool(ic, ic.Result(2), ic.Int64(ic.Arg(0)) == ic.Int64(ic.Arg(1)))
		return nil
	}, left("a", t.I64), right("b", t.I64), result(t.Bool))
	exec.DeclareIntrinsic(prog, sc, "sum", rt, func(frame []byte, ic *exec.IntrinsicContext) error {
		var total int64
		for _, addr := range ic.Splat(0) {
			total += ic.Int64(addr)
		}
		ic.PutInt64(ic.Result(1), total)
		return nil
	}, ast.Parameter{Name: "v", Side: ast.SideRight, Type: ast.Instance{Type: t.I64}, Flags: ast.Splatted},
		result(t.I64))
	inc := right("x", t.I64)
	inc.Flags = ast.Assignable
	exec.DeclareIntrinsic(prog, sc, "inc", rt, func(frame []byte, ic *exec.IntrinsicContext) error {
		target := ic.Deref(0)
		ic.PutInt64(target, ic.Int64(target)+1)
		return nil
	}, inc)
	exec.DeclareIntrinsic(prog, sc, "sizeof", ctrt, func(frame []byte, ic *exec.IntrinsicContext) error {
		lit, err := ic.Literal(0)
		if err != nil {
			return err
		}
		ic.PutInt64(ic.Result(1), int64(ic.Program().TypeSize(lit.Type)))
		return nil
	}, right("t", t.Type), result(t.I64))

	exec.DeclareIntrinsic(prog, sc, "repeat", rt, repeat, right("n", t.NumLit), right("body", t.BlockLit))
	exec.DeclareIntrinsic(prog, sc, "when", rt, when, right("cond", t.Bool), right("body", t.BlockLit))
	exec.DeclareIntrinsic(prog, sc, "fn", ast.CompileTimeSideEffects, declareFunction,
		right("name", t.Ident), right("params", t.Tuple), right("body", t.BlockLit))
}

func putBool(ic *exec.IntrinsicContext, addr arena.Addr, b bool) {
	if addr == arena.NoAddr {
		return
	}
	var v byte
	if b {
		v = 1
	}
	ic.Stack().Bytes(addr, 1)[0] = v
}

func intFromLiteral(frame []byte, ic *exec.IntrinsicContext) error {
	lit, err := ic.Literal(0)
	if err != nil {
		return err
	}
	n, err := strconv.ParseInt(lit.Text, 10, 64)
	if err != nil {
		return fmt.Errorf("int %s: %w", lit.Text, err)
	}
	ic.PutInt64(ic.Result(1), n)
	return nil
}

func strFromLiteral(frame []byte, ic *exec.IntrinsicContext) error {
	lit, err := ic.Literal(0)
	if err != nil {
		return err
	}
	lid := ic.Program().AddLiteral(ast.Literal{Kind: ast.StringLit, Text: lit.Text, Span: lit.Span})
	ic.PutLiteral(ic.Result(1), lid)
	return nil
}

// repeat executes its body n times. The body is parsed when first run.
func repeat(frame []byte, ic *exec.IntrinsicContext) error {
	count, err := ic.Literal(0)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(count.Text)
	if err != nil {
		return fmt.Errorf("repeat %s: %w", count.Text, err)
	}
	body, err := parseBody(ic, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := ic.RunBlock(body); err != nil {
			return err
		}
	}
	return nil
}

// when executes its body if cond holds.
func when(frame []byte, ic *exec.IntrinsicContext) error {
	if ic.Stack().Bytes(ic.Arg(0), 1)[0] == 0 {
		return nil
	}
	body, err := parseBody(ic, 1)
	if err != nil {
		return err
	}
	return ic.RunBlock(body)
}

func parseBody(ic *exec.IntrinsicContext, slot int) (*ast.Block, error) {
	lit, err := ic.Literal(slot)
	if err != nil {
		return nil, err
	}
	if lit.Kind != ast.BlockLit {
		return nil, fmt.Errorf("expected a block, have a %s literal", lit.Kind)
	}
	return ic.Parse(lit.Block, ic.Scope())
}

// declareFunction declares a function with an interpreted body. The
// function is declared in the outermost scope, before its body is parsed, so
// the body may call it recursively. Variables of the declaring block are
// out of reach of the body: their storage does not outlive the block.
func declareFunction(frame []byte, ic *exec.IntrinsicContext) error {
	prog := ic.Program()
	name, err := ic.Literal(0)
	if err != nil {
		return err
	}
	tuple, err := ic.Literal(1)
	if err != nil {
		return err
	}
	body, err := ic.Literal(2)
	if err != nil {
		return err
	}
	var params []ast.Parameter
	for _, entry := range tuple.Tuple {
		if entry.Name == "" || entry.Type == nil {
			return fmt.Errorf("%w: parameter of %s needs a name and a type", ErrBadDeclaration, name.Text)
		}
		par := ast.Parameter{Name: entry.Name, Side: ast.SideRight, Type: entry.Type, Span: entry.Span}
		if entry.Value != nil {
			par.Defaults = []ast.Node{entry.Value}
		}
		params = append(params, par)
	}
	scopes := ic.Scopes()
	if scopes == nil || scopes.Depth() == 0 {
		return fmt.Errorf("%w: %s declared outside of parsing", ErrBadDeclaration, name.Text)
	}
	fid := prog.DeclareFunction(ast.Function{Name: name.Text, Flags: ast.RunTime, Span: name.Span}, params...)
	globals := scopes.Globals()
	if _, err := globals.Declare(scope.Function{Name: name.Text, ID: fid}); err != nil {
		return err
	}
	// the body sees globals and parameters only, never variables of the
	// declaring block
	scopes.Enter(globals)
	defer scopes.PopScope()
	inner := scopes.PushNewScope("fn " + name.Text)
	defer scopes.PopScope()
	for _, pid := range prog.Function(fid).Params {
		if _, err := inner.Declare(scope.Parameter{Name: prog.Parameter(pid).Name, ID: pid}); err != nil {
			return fmt.Errorf("%w: %v", ErrBadDeclaration, err)
		}
	}
	block, err := ic.Parse(body.Block, inner)
	if err != nil {
		return err
	}
	prog.Function(fid).Body = block
	tracer().Debugf("declared %s", prog.Signature(fid))
	return nil
}
