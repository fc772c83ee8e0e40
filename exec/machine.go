/*
Package exec implements the execution machine.

The machine runs resolved calls and blocks on a stack allocator. Each call
allocates one argument frame, sized by the callee's parameter layout, and
binds its parameters in declared order: explicit arguments and defaults are
stored into their slots, result parameters receive the caller's destination
address. Each block allocates the storage of its local variables. Storage is
released when the call or block returns, in strict LIFO order.

Functions producing a value declare a result parameter of pointer type. A
call nested as an argument receives the address of the argument slot as its
result, which is how values are returned.

Intrinsic functions are implemented natively. Their body is a block holding a
single IntrinsicCall, which invokes the callback with the packed argument
frame of the call.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package exec

import (
	"errors"
	"fmt"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/rebuild/token"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.exec'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.exec")
}

// Errors during execution.
var (
	ErrNotLive = errors.New("no storage for")
	ErrNoBody  = errors.New("function has no body")
)

// BlockParser parses block literals on behalf of intrinsics.
type BlockParser interface {
	ParseBlock(b *token.BlockLiteral, parent *scope.Scope) (*ast.Block, error)
	ScopeOf(b *ast.Block) *scope.Scope
	Scopes() *scope.Tree
}

// Machine executes calls and blocks of a program.
type Machine struct {
	prog   *ast.Program
	stack  *arena.Stack
	parser BlockParser
}

// NewMachine creates a machine executing on stack.
func NewMachine(prog *ast.Program, stack *arena.Stack) *Machine {
	return &Machine{prog: prog, stack: stack}
}

// SetParser sets the parser for lazily parsed blocks.
func (m *Machine) SetParser(p BlockParser) {
	m.parser = p
}

// Stack returns the machine's stack allocator.
func (m *Machine) Stack() *arena.Stack {
	return m.stack
}

func (m *Machine) scopeOf(b *ast.Block) *scope.Scope {
	if m.parser == nil {
		return nil
	}
	return m.parser.ScopeOf(b)
}

func (m *Machine) root(sc *scope.Scope) *Context {
	ctx := &Context{Machine: m, Frame: NewFrame("root", nil), Scope: sc}
	ctx.Caller = ctx
	return ctx
}

// Run executes a block.
func (m *Machine) Run(b *ast.Block, sc *scope.Scope) error {
	return m.runBlock(b, m.root(sc))
}

// RunCall executes a call at compile time, on behalf of the parser. If the
// function has a result parameter, the result is expected to be a literal
// handle and is returned as a literal node.
func (m *Machine) RunCall(call *ast.Call, sc *scope.Scope) (ast.Node, error) {
	ctx := m.root(sc)
	res, ok := m.prog.ResultParameter(call.Function)
	if !ok {
		return nil, m.runCall(call, ctx, arena.NoAddr)
	}
	slot := m.stack.Allocate(ast.PointerSize)
	defer slot.Release()
	if err := m.runCall(call, ctx, slot.Base); err != nil {
		return nil, err
	}
	lid := ast.LiteralID(m.stack.LoadUint64(slot.Base))
	if m.prog.Literal(lid) == nil {
		return nil, fmt.Errorf("%s did not produce a literal for %s", m.prog.Function(call.Function).Name,
			m.prog.Parameter(res).Name)
	}
	return &ast.LiteralRef{Literal: lid, Span: call.Span}, nil
}

// splatTail computes the storage needed for the values of splatted
// parameters of a call.
func (m *Machine) splatTail(call *ast.Call) uint32 {
	var tail uint32
	for _, a := range call.Arguments {
		par := m.prog.Parameter(a.Parameter)
		if par.Has(ast.Splatted) {
			tail += m.prog.TypeSize(par.Type) * uint32(len(a.Values))
		}
	}
	return tail
}

// runCall executes a call from ctx. dest receives the result, if the callee
// has a result parameter.
func (m *Machine) runCall(call *ast.Call, ctx *Context, dest arena.Addr) error {
	fn := m.prog.Function(call.Function)
	if fn.Body == nil {
		return fmt.Errorf("%w: %s", ErrNoBody, fn.Name)
	}
	layout := m.prog.ArgumentsLayout(call.Function)
	region := m.stack.Allocate(layout.Size + m.splatTail(call))
	defer region.Release()
	callCtx := ctx.createCall(call.Function, region)
	tracer().Debugf("call %s, frame %d bytes at %d", fn.Name, region.Size, region.Base)
	tail := region.Base + arena.Addr(layout.Size)
	for i, pid := range fn.Params {
		addr := region.Base + arena.Addr(layout.Offsets[i])
		callCtx.Frame.BindParameter(pid, addr)
		par := m.prog.Parameter(pid)
		if par.Side == ast.SideResult {
			m.stack.StoreAddr(addr, dest)
			continue
		}
		values := par.Defaults
		if a, ok := call.Argument(pid); ok {
			values = a.Values
		}
		var err error
		switch {
		case par.Has(ast.Splatted):
			tail, err = m.bindSplat(par, values, addr, tail, ctx)
		case len(values) == 0:
			// slot stays zeroed
		case par.Has(ast.Assignable):
			var target arena.Addr
			if target, _, err = ctx.valueAddr(values[0]); err == nil {
				m.stack.StoreAddr(addr, target)
			}
		default:
			err = m.storeNode(values[0], addr, ctx)
		}
		if err != nil {
			return fmt.Errorf("binding %s of %s: %w", par.Name, fn.Name, err)
		}
	}
	return m.runBlock(fn.Body, callCtx)
}

// bindSplat stores the values of a splatted parameter into the call's tail
// and writes the descriptor {base, count} into its slot. It returns the new
// start of the free tail.
func (m *Machine) bindSplat(par *ast.Parameter, values []ast.Node, slot, tail arena.Addr, ctx *Context) (arena.Addr, error) {
	base := tail
	elem := m.prog.TypeSize(par.Type)
	for _, v := range values {
		if err := m.storeNode(v, tail, ctx); err != nil {
			return tail, err
		}
		tail += arena.Addr(elem)
	}
	m.stack.StoreAddr(slot, base)
	m.stack.StoreUint64(slot+arena.AddrSize, uint64(len(values)))
	return tail, nil
}

// runBlock executes a block nested in ctx, with storage for its locals.
func (m *Machine) runBlock(b *ast.Block, ctx *Context) error {
	layout := m.prog.LocalsLayout(b)
	region := m.stack.Allocate(layout.Size)
	defer region.Release()
	bctx := ctx.createBlock(b, region)
	for i, vid := range b.Locals {
		if v := m.prog.Variable(vid); v.Parameter.IsValid() {
			continue // shares the parameter's slot
		}
		bctx.Frame.BindVariable(vid, region.Base+arena.Addr(layout.Offsets[i]))
	}
	for _, n := range b.Nodes {
		if err := m.runNode(n, bctx); err != nil {
			return err
		}
	}
	return nil
}

// runNode executes a statement node.
func (m *Machine) runNode(n ast.Node, ctx *Context) error {
	switch node := n.(type) {
	case *ast.Block:
		return m.runBlock(node, ctx)
	case *ast.Call:
		if _, ok := m.prog.ResultParameter(node.Function); !ok {
			return m.runCall(node, ctx, arena.NoAddr)
		}
		size := m.prog.TypeSize(m.prog.TypeOf(node))
		scratch := m.stack.Allocate(size) // result is discarded
		defer scratch.Release()
		return m.runCall(node, ctx, scratch.Base)
	case *ast.IntrinsicCall:
		return m.runIntrinsic(node, ctx)
	case *ast.VariableInit:
		addr, err := ctx.VariableAddr(node.Variable)
		if err != nil {
			return err
		}
		return m.storeNode(node.Value, addr, ctx)
	case *ast.ParameterRef, *ast.VariableRef, *ast.LiteralRef:
		return nil
	}
	panic(fmt.Errorf("unknown node type %T", n))
}

// storeNode stores the value of an expression at dest.
func (m *Machine) storeNode(n ast.Node, dest arena.Addr, ctx *Context) error {
	switch node := n.(type) {
	case *ast.Call:
		return m.runCall(node, ctx, dest)
	case *ast.LiteralRef:
		m.stack.StoreUint64(dest, uint64(node.Literal))
		return nil
	case *ast.VariableRef, *ast.ParameterRef:
		src, typ, err := ctx.valueAddr(node)
		if err != nil {
			return err
		}
		m.stack.Copy(dest, src, m.prog.TypeSize(typ))
		return nil
	}
	return fmt.Errorf("%s does not produce a value", m.prog.Describe(n))
}

func (m *Machine) runIntrinsic(node *ast.IntrinsicCall, ctx *Context) error {
	fn := m.prog.Function(node.Function)
	native, ok := fn.Native.(Intrinsic)
	if !ok {
		return fmt.Errorf("%w: %s has no native implementation", ErrNoBody, fn.Name)
	}
	callCtx := ctx.Parent // the packed argument frame is one level up
	if callCtx == nil || callCtx.Function != node.Function {
		panic(fmt.Errorf("intrinsic %s invoked outside of its call", fn.Name))
	}
	ictx := &IntrinsicContext{ctx: callCtx, layout: m.prog.ArgumentsLayout(node.Function)}
	return native(m.stack.Bytes(callCtx.Base, callCtx.Size), ictx)
}
