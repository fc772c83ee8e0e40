package ast

import (
	"sort"

	"github.com/npillmayer/rebuild"
)

// FunctionFlags tell when a function may be executed.
type FunctionFlags uint8

// Function flags.
const (
	CompileTime            FunctionFlags = 1 << iota // may be executed while parsing
	RunTime                                          // may be executed at run time
	CompileTimeSideEffects                           // may be executed while parsing, affecting the parse
)

// Side is the syntactic position a parameter is bound from.
type Side uint8

// Parameter sides, in canonical order.
const (
	SideLeft   Side = iota // from the expression preceding the call
	SideRight              // from the tokens following the function name
	SideResult             // a caller-supplied writable slot
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return "result"
}

// ParameterFlags modify how a parameter is bound.
type ParameterFlags uint8

// Parameter flags.
const (
	Optional        ParameterFlags = 1 << iota // may remain unbound
	Splatted                                   // gathers any number of values
	Assignable                                 // bound by reference
	CompileTimeOnly                            // value must be known while parsing
	RunTimeOnly                                // value is only known at run time
)

// Parameter is a parameter of a function.
type Parameter struct {
	Name     string
	Type     TypeExpr
	Side     Side
	Flags    ParameterFlags
	Defaults []Node // default value(s) for unbound parameters
	Function FunctionID
	Span     rebuild.Span
}

// Has is a predicate: is flag f set?
func (par *Parameter) Has(f ParameterFlags) bool {
	return par.Flags&f != 0
}

// IsRequired is a predicate: does a call have to bind this parameter?
func (par *Parameter) IsRequired() bool {
	return !par.Has(Optional) && !par.Has(Splatted) && len(par.Defaults) == 0
}

// Function is a callable. Body is either an interpreted block, or a block
// containing a single IntrinsicCall for functions implemented natively. Native
// then holds the callback, as provided by the execution machine.
type Function struct {
	Name   string
	Flags  FunctionFlags
	Params []ParameterID
	Body   *Block
	Native any
	Span   rebuild.Span
}

// Has is a predicate: is any of the flags f set?
func (fn *Function) Has(f FunctionFlags) bool {
	return fn.Flags&f != 0
}

// IsCompileTime is a predicate: may fn be executed while parsing?
func (fn *Function) IsCompileTime() bool {
	return fn.Has(CompileTime | CompileTimeSideEffects)
}

// ReorderParameters sorts the parameters of a function into canonical order:
// left parameters precede right parameters, which precede result parameters.
// The relative order of parameters of the same side is kept.
func (p *Program) ReorderParameters(id FunctionID) {
	fn := p.Function(id)
	sort.SliceStable(fn.Params, func(i, j int) bool {
		return p.Parameter(fn.Params[i]).Side < p.Parameter(fn.Params[j]).Side
	})
}

// ParametersOf returns the parameters of a function on a given side, in order.
func (p *Program) ParametersOf(id FunctionID, side Side) []ParameterID {
	var params []ParameterID
	for _, pid := range p.Function(id).Params {
		if p.Parameter(pid).Side == side {
			params = append(params, pid)
		}
	}
	return params
}

// ResultParameter returns the first result parameter of a function, if any.
func (p *Program) ResultParameter(id FunctionID) (ParameterID, bool) {
	if res := p.ParametersOf(id, SideResult); len(res) > 0 {
		return res[0], true
	}
	return 0, false
}

// NamedParameter finds a parameter by name.
func (p *Program) NamedParameter(id FunctionID, name string) (ParameterID, bool) {
	for _, pid := range p.Function(id).Params {
		if p.Parameter(pid).Name == name {
			return pid, true
		}
	}
	return 0, false
}

// Variable is a local variable. A variable created for a parameter refers
// back to it and shares its storage.
type Variable struct {
	Name      string
	Type      TypeExpr
	Parameter ParameterID
	Span      rebuild.Span
}
