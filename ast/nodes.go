package ast

import "github.com/npillmayer/rebuild"

// Node is a syntax node. It is one of *Block, *Call, *IntrinsicCall,
// *ParameterRef, *VariableRef, *LiteralRef or *VariableInit.
type Node interface {
	Pos() rebuild.Span
	isNode()
}

// Block is a sequence of statement nodes. Locals lists the variables
// declared directly within the block, in declaration order.
type Block struct {
	Nodes  []Node
	Locals []VariableID
	Span   rebuild.Span
}

// ArgumentAssignment binds values to a parameter. Splatted parameters may
// receive more than one value.
type ArgumentAssignment struct {
	Parameter ParameterID
	Values    []Node
}

// Call is a resolved function call. Parameters without an assignment fall back
// to their defaults at execution time.
type Call struct {
	Function    FunctionID
	Arguments   []ArgumentAssignment
	SideEffects int // number of argument values with side effects
	Span        rebuild.Span
}

// IntrinsicCall invokes the native implementation of a function. It is the
// single node in the body of an intrinsic function.
type IntrinsicCall struct {
	Function FunctionID
	Span     rebuild.Span
}

// ParameterRef references a parameter of the enclosing function.
type ParameterRef struct {
	Parameter ParameterID
	Span      rebuild.Span
}

// VariableRef references a local variable.
type VariableRef struct {
	Variable VariableID
	Span     rebuild.Span
}

// LiteralRef references immutable literal data.
type LiteralRef struct {
	Literal LiteralID
	Span    rebuild.Span
}

// VariableInit initializes a variable with the value of an expression.
type VariableInit struct {
	Variable VariableID
	Value    Node
	Span     rebuild.Span
}

func (b *Block) Pos() rebuild.Span         { return b.Span }
func (c *Call) Pos() rebuild.Span          { return c.Span }
func (c *IntrinsicCall) Pos() rebuild.Span { return c.Span }
func (r *ParameterRef) Pos() rebuild.Span  { return r.Span }
func (r *VariableRef) Pos() rebuild.Span   { return r.Span }
func (r *LiteralRef) Pos() rebuild.Span    { return r.Span }
func (v *VariableInit) Pos() rebuild.Span  { return v.Span }

func (*Block) isNode()         {}
func (*Call) isNode()          {}
func (*IntrinsicCall) isNode() {}
func (*ParameterRef) isNode()  {}
func (*VariableRef) isNode()   {}
func (*LiteralRef) isNode()    {}
func (*VariableInit) isNode()  {}

// Argument returns the assignment for parameter pid, if present.
func (c *Call) Argument(pid ParameterID) (*ArgumentAssignment, bool) {
	for i := range c.Arguments {
		if c.Arguments[i].Parameter == pid {
			return &c.Arguments[i], true
		}
	}
	return nil, false
}

// Bind appends values to the assignment of parameter pid, creating it if
// necessary.
func (c *Call) Bind(pid ParameterID, values ...Node) {
	if a, ok := c.Argument(pid); ok {
		a.Values = append(a.Values, values...)
		return
	}
	c.Arguments = append(c.Arguments, ArgumentAssignment{Parameter: pid, Values: values})
}

// HasSideEffects is a predicate: may evaluating n have effects beyond producing
// a value? Calls of functions which cannot run at compile time count as
// having side effects, as do declarations and initializations.
func (p *Program) HasSideEffects(n Node) bool {
	switch node := n.(type) {
	case *Block:
		for _, sub := range node.Nodes {
			if p.HasSideEffects(sub) {
				return true
			}
		}
		return false
	case *Call:
		fn := p.Function(node.Function)
		if fn == nil || !fn.Has(CompileTime) || fn.Has(CompileTimeSideEffects) {
			return true
		}
		if node.SideEffects > 0 {
			return true
		}
		for _, a := range node.Arguments {
			for _, v := range a.Values {
				if p.HasSideEffects(v) {
					return true
				}
			}
		}
		return false
	case *IntrinsicCall, *VariableInit:
		return true
	}
	return false
}

// TypeOf returns the type of the value an expression produces, or nil if it
// produces none. A call produces a value if its function has a result
// parameter; the value is of the parameter's pointee type.
func (p *Program) TypeOf(n Node) TypeExpr {
	switch node := n.(type) {
	case *LiteralRef:
		lit := p.Literal(node.Literal)
		if lit == nil {
			return nil
		}
		return Instance{Type: p.LiteralType(lit.Kind)}
	case *VariableRef:
		if v := p.Variable(node.Variable); v != nil {
			return v.Type
		}
	case *ParameterRef:
		if par := p.Parameter(node.Parameter); par != nil {
			return par.Type
		}
	case *Call:
		res, ok := p.ResultParameter(node.Function)
		if !ok {
			return nil
		}
		t := p.Parameter(res).Type
		if ptr, ok := t.(Pointer); ok {
			return ptr.Elem
		}
		return t
	}
	return nil
}
