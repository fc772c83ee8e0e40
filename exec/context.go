package exec

import (
	"fmt"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/scope"
)

// Context is the state of one active call or block. Contexts are immutable
// after construction and live for the dynamic extent of their call or block.
type Context struct {
	Parent   *Context       // enclosing context, nil for the root
	Machine  *Machine       // shared machine state
	Caller   *Context       // context of the call site
	Base     arena.Addr     // start of the local storage
	Size     uint32         // size of the local storage
	Frame    *Frame         // addresses of parameters and variables
	Scope    *scope.Scope   // compile-time scope, if known
	Function ast.FunctionID // function of a call context
}

// createCall creates the context of a call from ctx, using region as its
// argument frame.
func (ctx *Context) createCall(fid ast.FunctionID, region arena.Region) *Context {
	name := ctx.Machine.prog.Function(fid).Name
	return &Context{
		Parent:   ctx,
		Machine:  ctx.Machine,
		Caller:   ctx,
		Base:     region.Base,
		Size:     region.Size,
		Frame:    NewFrame(name, ctx.Frame),
		Scope:    ctx.Scope,
		Function: fid,
	}
}

// createBlock creates the context of a block nested in ctx.
func (ctx *Context) createBlock(b *ast.Block, region arena.Region) *Context {
	sc := ctx.Machine.scopeOf(b)
	if sc == nil {
		sc = ctx.Scope
	}
	return &Context{
		Parent:  ctx,
		Machine: ctx.Machine,
		Caller:  ctx.Caller,
		Base:    region.Base,
		Size:    region.Size,
		Frame:   NewFrame("block", ctx.Frame),
		Scope:   sc,
	}
}

// ParameterAddr returns the storage of a parameter. For assignable
// parameters this is the slot holding the referenced address.
func (ctx *Context) ParameterAddr(pid ast.ParameterID) (arena.Addr, error) {
	if addr, ok := ctx.Frame.Parameter(pid); ok {
		return addr, nil
	}
	return arena.NoAddr, fmt.Errorf("%w: parameter %s", ErrNotLive, ctx.Machine.prog.Parameter(pid).Name)
}

// VariableAddr returns the storage of a variable. Variables made for a
// parameter share the parameter's storage.
func (ctx *Context) VariableAddr(vid ast.VariableID) (arena.Addr, error) {
	if addr, ok := ctx.Frame.Variable(vid); ok {
		return addr, nil
	}
	v := ctx.Machine.prog.Variable(vid)
	if v.Parameter.IsValid() {
		return ctx.ParameterAddr(v.Parameter)
	}
	return arena.NoAddr, fmt.Errorf("%w: variable %s", ErrNotLive, v.Name)
}

// valueAddr returns the address of the value a reference denotes, following
// assignable parameters to their target.
func (ctx *Context) valueAddr(n ast.Node) (arena.Addr, ast.TypeExpr, error) {
	prog := ctx.Machine.prog
	var pid ast.ParameterID
	switch ref := n.(type) {
	case *ast.VariableRef:
		v := prog.Variable(ref.Variable)
		if !v.Parameter.IsValid() {
			addr, err := ctx.VariableAddr(ref.Variable)
			return addr, v.Type, err
		}
		pid = v.Parameter
	case *ast.ParameterRef:
		pid = ref.Parameter
	default:
		return arena.NoAddr, nil, fmt.Errorf("%s is not a reference", prog.Describe(n))
	}
	addr, err := ctx.ParameterAddr(pid)
	if err != nil {
		return addr, nil, err
	}
	par := prog.Parameter(pid)
	if par.Has(ast.Assignable) {
		addr = ctx.Machine.stack.LoadAddr(addr)
	}
	return addr, par.Type, nil
}
