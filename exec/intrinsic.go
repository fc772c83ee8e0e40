package exec

import (
	"fmt"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/rebuild/token"
)

// Intrinsic is the native implementation of a function. It receives the
// packed argument frame of the call; parameter slots are at the offsets of
// the function's argument layout.
type Intrinsic func(frame []byte, ictx *IntrinsicContext) error

// DeclareIntrinsic declares a natively implemented function in sc.
func DeclareIntrinsic(prog *ast.Program, sc *scope.Scope, name string, flags ast.FunctionFlags,
	native Intrinsic, params ...ast.Parameter) ast.FunctionID {
	//
	fid := prog.DeclareFunction(ast.Function{Name: name, Flags: flags, Native: native}, params...)
	fn := prog.Function(fid)
	fn.Body = &ast.Block{Nodes: []ast.Node{&ast.IntrinsicCall{Function: fid}}}
	if _, err := sc.Declare(scope.Function{Name: name, ID: fid}); err != nil {
		panic(fmt.Errorf("cannot declare intrinsic %s: %w", name, err))
	}
	return fid
}

// IntrinsicContext gives intrinsics access to their arguments and to the
// machine.
type IntrinsicContext struct {
	ctx    *Context // context of the call
	layout ast.Layout
}

// Program returns the program being executed.
func (ic *IntrinsicContext) Program() *ast.Program {
	return ic.ctx.Machine.prog
}

// Stack returns the stack allocator.
func (ic *IntrinsicContext) Stack() *arena.Stack {
	return ic.ctx.Machine.stack
}

// Scope returns the compile-time scope of the call site.
func (ic *IntrinsicContext) Scope() *scope.Scope {
	if ic.ctx.Caller != nil && ic.ctx.Caller.Scope != nil {
		return ic.ctx.Caller.Scope
	}
	return ic.ctx.Scope
}

// Args returns the parameters of the called function, in declared order.
func (ic *IntrinsicContext) Args() []ast.ParameterID {
	return ic.Program().Function(ic.ctx.Function).Params
}

// Arg returns the address of the slot of parameter i.
func (ic *IntrinsicContext) Arg(i int) arena.Addr {
	return ic.ctx.Base + arena.Addr(ic.layout.Offsets[i])
}

// Result returns the destination of result parameter i, or NoAddr if the
// caller discards the result.
func (ic *IntrinsicContext) Result(i int) arena.Addr {
	return ic.Stack().LoadAddr(ic.Arg(i))
}

// Deref returns the address referenced by assignable parameter i.
func (ic *IntrinsicContext) Deref(i int) arena.Addr {
	return ic.Stack().LoadAddr(ic.Arg(i))
}

// Literal returns the literal referenced by the handle stored in slot i.
func (ic *IntrinsicContext) Literal(i int) (*ast.Literal, error) {
	lid := ast.LiteralID(ic.Stack().LoadUint64(ic.Arg(i)))
	lit := ic.Program().Literal(lid)
	if lit == nil {
		return nil, fmt.Errorf("argument %d does not hold a literal", i)
	}
	return lit, nil
}

// Splat returns the addresses of the values of splatted parameter i.
func (ic *IntrinsicContext) Splat(i int) []arena.Addr {
	slot := ic.Arg(i)
	base := ic.Stack().LoadAddr(slot)
	count := ic.Stack().LoadUint64(slot + arena.AddrSize)
	elem := ic.Program().TypeSize(ic.Program().Parameter(ic.Args()[i]).Type)
	addrs := make([]arena.Addr, count)
	for k := range addrs {
		addrs[k] = base + arena.Addr(uint32(k)*elem)
	}
	return addrs
}

// Int64 reads a 64-bit integer at addr.
func (ic *IntrinsicContext) Int64(addr arena.Addr) int64 {
	return int64(ic.Stack().LoadUint64(addr))
}

// PutInt64 writes a 64-bit integer at addr. Writes to NoAddr are dropped.
func (ic *IntrinsicContext) PutInt64(addr arena.Addr, v int64) {
	if addr == arena.NoAddr {
		return
	}
	ic.Stack().StoreUint64(addr, uint64(v))
}

// PutLiteral writes a literal handle at addr. Writes to NoAddr are dropped.
func (ic *IntrinsicContext) PutLiteral(addr arena.Addr, lid ast.LiteralID) {
	if addr == arena.NoAddr {
		return
	}
	ic.Stack().StoreUint64(addr, uint64(lid))
}

// Variable returns the storage of a variable visible at the call site.
func (ic *IntrinsicContext) Variable(vid ast.VariableID) (arena.Addr, error) {
	return ic.ctx.Caller.VariableAddr(vid)
}

// Scopes returns the scopes of the blocks being parsed, or nil without a
// parser.
func (ic *IntrinsicContext) Scopes() *scope.Tree {
	if ic.ctx.Machine.parser == nil {
		return nil
	}
	return ic.ctx.Machine.parser.Scopes()
}

// Parse parses a block literal within a child scope of sc. Each block
// literal is parsed once per scope.
func (ic *IntrinsicContext) Parse(b *token.BlockLiteral, sc *scope.Scope) (*ast.Block, error) {
	m := ic.ctx.Machine
	if m.parser == nil {
		return nil, fmt.Errorf("no parser to parse block of %d lines", len(b.Lines))
	}
	return m.parser.ParseBlock(b, sc)
}

// RunBlock executes a block in the context of the call site.
func (ic *IntrinsicContext) RunBlock(b *ast.Block) error {
	return ic.ctx.Machine.runBlock(b, ic.ctx.Caller)
}
